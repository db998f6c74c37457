package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fund-advisor/internal/api"
	"fund-advisor/internal/types"
)

// HTTPProvider fetches a NAVHistory document per fund from
// GET {baseURL}/funds/{fund_id}.
type HTTPProvider struct {
	client *api.Client
}

// NewHTTPProvider builds a provider against baseURL. A non-empty token is
// sent as a bearer Authorization header.
func NewHTTPProvider(baseURL, token string, timeout time.Duration, opts ...api.ClientOption) *HTTPProvider {
	all := []api.ClientOption{api.WithBaseURL(baseURL), api.WithTimeout(timeout), api.WithLogging(true)}
	if token != "" {
		all = append(all, api.WithHeader("Authorization", "Bearer "+token))
	}
	return &HTTPProvider{client: api.NewClient(append(all, opts...)...)}
}

// Fetch treats 404 and other 4xx answers and undecodable bodies as
// permanent; 429, 5xx and network failures as transient.
func (p *HTTPProvider) Fetch(ctx context.Context, fundID string) (types.FundSnapshot, error) {
	if fundID == "" {
		return types.FundSnapshot{}, types.Invalid("empty fund id")
	}

	var h NAVHistory
	err := p.client.GetJSON(ctx, "/funds/"+url.PathEscape(fundID), &h)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.FundSnapshot{}, ctxErr
		}
		var se *api.StatusError
		var de *api.DecodeError
		switch {
		case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
			return types.FundSnapshot{}, types.Permanent(fundID, fmt.Errorf("unknown fund: %w", err))
		case errors.As(err, &se) && !se.Temporary():
			return types.FundSnapshot{}, types.Permanent(fundID, err)
		case errors.As(err, &de):
			return types.FundSnapshot{}, types.Permanent(fundID, err)
		}
		return types.FundSnapshot{}, types.Transient(fundID, err)
	}

	if h.FundID == "" {
		h.FundID = fundID
	}
	if h.FundID != fundID {
		return types.FundSnapshot{}, types.Permanent(fundID, fmt.Errorf("response holds fund %s", h.FundID))
	}
	return h.Snapshot()
}
