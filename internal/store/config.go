package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"fund-advisor/internal/batch"
	"fund-advisor/internal/signal"
	"fund-advisor/internal/types"
)

var validate = validator.New()

type Config struct {
	Batch struct {
		MaxWorkers int           `yaml:"max_workers" default:"4" validate:"gte=1"`
		Timeout    time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
		MaxRetries int           `yaml:"max_retries" default:"2" validate:"gte=0"`
		TopPicks   int           `yaml:"top_picks" default:"5" validate:"gte=0"`
		Backoff    struct {
			Initial time.Duration `yaml:"initial" default:"200ms" validate:"gte=0"`
			Max     time.Duration `yaml:"max" default:"5s" validate:"gtefield=Initial"`
			Jitter  float64       `yaml:"jitter" default:"0.2" validate:"gte=0,lte=1"`
		} `yaml:"backoff"`
	} `yaml:"batch"`
	Provider struct {
		Kind        string        `yaml:"kind" default:"mock" validate:"oneof=mock file http"`
		Dir         string        `yaml:"dir" validate:"required_if=Kind file"`
		URL         string        `yaml:"url" validate:"omitempty,url"`
		TokenEnv    string        `yaml:"token_env" default:"ADVISOR_PROVIDER_TOKEN"`
		Timeout     time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		RatePerSec  float64       `yaml:"rate_per_sec" default:"20" validate:"gte=0"`
		Burst       int           `yaml:"burst" default:"5" validate:"gte=1"`
		HistoryDays int           `yaml:"history_days" default:"260" validate:"gte=80"`
	} `yaml:"provider"`
	// Scoring maps are keyed by category and indicator names; anything left
	// out keeps its built-in default.
	Weights          map[string]float64            `yaml:"weights"`
	IndicatorWeights map[string]map[string]float64 `yaml:"indicator_weights"`
	WeightProfiles   map[string]map[string]float64 `yaml:"weight_profiles"`
	Thresholds       *signal.Thresholds            `yaml:"thresholds"`
	History          struct {
		Dir           string `yaml:"dir" default:"data/history"`
		RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	} `yaml:"history"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Report struct {
		Dir string `yaml:"dir" default:"reports"`
	} `yaml:"report"`
	Funds []string `yaml:"funds"`
}

// Validate runs struct tag rules, then the scoring weight and threshold checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s%s", fe.Namespace(), fe.Tag(), param(fe)))
			}
			return types.Invalid("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Provider.Kind == "http" && c.Provider.URL == "" {
		return types.Invalid("provider.url is required for the http provider")
	}
	for _, id := range c.Funds {
		if strings.TrimSpace(id) == "" {
			return types.Invalid("funds must not contain empty ids")
		}
	}
	return c.SignalConfig().Validate()
}

func param(fe validator.FieldError) string {
	if fe.Param() == "" {
		return ""
	}
	return "=" + fe.Param()
}

// SignalConfig overlays the configured weights and thresholds on the
// defaults.
func (c *Config) SignalConfig() signal.Config {
	sc := signal.DefaultConfig()
	if len(c.Weights) > 0 {
		sc.CategoryWeights = make(signal.Weights[types.Category], len(c.Weights))
		for k, w := range c.Weights {
			sc.CategoryWeights[types.Category(k)] = w
		}
	}
	for cat, ws := range c.IndicatorWeights {
		iw := make(signal.Weights[string], len(ws))
		for name, w := range ws {
			iw[name] = w
		}
		sc.IndicatorWeights[types.Category(cat)] = iw
	}
	if len(c.WeightProfiles) > 0 {
		sc.Profiles = make(map[types.FundType]signal.Weights[types.Category], len(c.WeightProfiles))
		for ft, ws := range c.WeightProfiles {
			pw := make(signal.Weights[types.Category], len(ws))
			for k, w := range ws {
				pw[types.Category(k)] = w
			}
			sc.Profiles[types.FundType(ft)] = pw
		}
	}
	if c.Thresholds != nil {
		sc.Thresholds = *c.Thresholds
	}
	return sc
}

// BatchConfig is the orchestrator view of the configuration.
func (c *Config) BatchConfig() batch.Config {
	return batch.Config{
		MaxWorkers: c.Batch.MaxWorkers,
		Timeout:    c.Batch.Timeout,
		MaxRetries: c.Batch.MaxRetries,
		Backoff: batch.Backoff{
			Initial: c.Batch.Backoff.Initial,
			Max:     c.Batch.Backoff.Max,
			Jitter:  c.Batch.Backoff.Jitter,
		},
		TopPicks: c.Batch.TopPicks,
		Scoring:  c.SignalConfig(),
	}
}

// LoadConfig reads YAML from path on top of the defaults, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// applyEnv lets ADVISOR_* variables override the file.
func (c *Config) applyEnv() error {
	if v := os.Getenv("ADVISOR_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.Invalid("ADVISOR_MAX_WORKERS: %v", err)
		}
		c.Batch.MaxWorkers = n
	}
	if v := os.Getenv("ADVISOR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return types.Invalid("ADVISOR_TIMEOUT: %v", err)
		}
		c.Batch.Timeout = d
	}
	if v := os.Getenv("ADVISOR_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.Invalid("ADVISOR_MAX_RETRIES: %v", err)
		}
		c.Batch.MaxRetries = n
	}
	if v := os.Getenv("ADVISOR_PROVIDER"); v != "" {
		c.Provider.Kind = v
	}
	if v := os.Getenv("ADVISOR_PROVIDER_URL"); v != "" {
		c.Provider.URL = v
	}
	if v := os.Getenv("ADVISOR_DATA_DIR"); v != "" {
		c.Provider.Dir = v
	}
	if v := os.Getenv("ADVISOR_HISTORY_DIR"); v != "" {
		c.History.Dir = v
	}
	if v := os.Getenv("ADVISOR_FUNDS"); v != "" {
		c.Funds = strings.Split(v, ",")
		for i := range c.Funds {
			c.Funds[i] = strings.TrimSpace(c.Funds[i])
		}
	}
	return nil
}
