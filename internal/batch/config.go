package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fund-advisor/internal/signal"
	"fund-advisor/internal/types"
)

var validate = validator.New()

// Backoff shapes the delay between retries of a transient failure.
type Backoff struct {
	Initial time.Duration `validate:"gte=0"`
	Max     time.Duration `validate:"gtefield=Initial"`
	// Jitter is the fraction of each delay that may be shaved off at random.
	Jitter float64 `validate:"gte=0,lte=1"`
}

// Config is everything RunBatch needs besides the fund ids. It is checked
// on every call before any work starts.
type Config struct {
	MaxWorkers int           `validate:"gte=1"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gte=0"`
	Backoff    Backoff
	// TopPicks caps the summary's ranked list; 0 lists every success.
	TopPicks int `validate:"gte=0"`
	Scoring  signal.Config
}

// DefaultConfig mirrors the defaults of the YAML configuration.
func DefaultConfig() Config {
	return Config{
		MaxWorkers: 4,
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		Backoff:    Backoff{Initial: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		TopPicks:   5,
		Scoring:    signal.DefaultConfig(),
	}
}

// Validate returns an ErrInvalidInput-wrapped error describing every broken
// rule.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return types.Invalid("batch config: %v", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msg := fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
			if fe.Param() != "" {
				msg += "=" + fe.Param()
			}
			msgs = append(msgs, msg)
		}
		return types.Invalid("batch config: %s", strings.Join(msgs, "; "))
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("batch config: %w", err)
	}
	return nil
}
