// internal/intake/verification/pan_client.go
package verification

import (
	"context"
	"fmt"
	"time"

	commonhttp "loan-intake/internal/common/http"
	"loan-intake/internal/intake/validators"
)

// PANRegistryClient checks PANs against an HTTP registry. The format is
// checked locally first so malformed input never leaves the process.
type PANRegistryClient struct {
	client *commonhttp.Client
	url    string
}

func NewPANRegistryClient(url, apiKey string, timeout time.Duration) *PANRegistryClient {
	return &PANRegistryClient{
		client: commonhttp.NewClient(timeout).WithHeader("X-API-Key", apiKey),
		url:    url,
	}
}

type panRequest struct {
	PAN string `json:"pan"`
}

type panResponse struct {
	Valid  bool   `json:"valid"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (c *PANRegistryClient) VerifyPAN(ctx context.Context, pan string) (PANResult, error) {
	normalized, err := validators.PAN(pan)
	if err != nil {
		return PANResult{Valid: false, Reason: ReasonInvalidPAN}, nil
	}

	var resp panResponse
	if err := c.client.PostJSON(ctx, c.url, panRequest{PAN: normalized}, &resp); err != nil {
		return PANResult{}, fmt.Errorf("pan registry: %w", err)
	}

	if !resp.Valid {
		reason := resp.Reason
		if reason == "" {
			reason = ReasonPANNotFound
		}
		return PANResult{Valid: false, Reason: reason}, nil
	}
	return PANResult{Valid: true, PAN: normalized}, nil
}
