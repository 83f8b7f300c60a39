package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gramseva/idverify/models"
)

// MatcherConfig configures the HTTP biometric matcher client.
type MatcherConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpMatcher struct {
	client *resty.Client
}

// NewHTTPMatcher builds a [BiometricMatcher] and [DocumentValidator]
// talking to the matcher service over HTTP. The matcher service also
// hosts document field extraction, so one client serves both contracts.
func NewHTTPMatcher(cfg MatcherConfig) interface {
	BiometricMatcher
	DocumentValidator
} {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpMatcher{client: cli}
}

type matchRequest struct {
	Image       []byte `json:"image"`
	TemplateRef string `json:"template_ref"`
}

type matchResponse struct {
	Score float64 `json:"score"`
}

func (m *httpMatcher) Match(ctx context.Context, image []byte, templateRef string) (float64, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(matchRequest{Image: image, TemplateRef: templateRef}).
		Post("/api/match")
	if err != nil {
		return 0, classifyTransportError("match request", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%w: match status %d", ErrCapabilityUnavailable, resp.StatusCode())
	}

	var out matchResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return 0, fmt.Errorf("decode match response: %w", err)
	}

	return out.Score, nil
}

type livenessResponse struct {
	Pass bool `json:"pass"`
}

func (m *httpMatcher) CheckLiveness(ctx context.Context, image []byte) (bool, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string][]byte{"image": image}).
		Post("/api/liveness")
	if err != nil {
		return false, classifyTransportError("liveness request", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("%w: liveness status %d", ErrCapabilityUnavailable, resp.StatusCode())
	}

	var out livenessResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return false, fmt.Errorf("decode liveness response: %w", err)
	}

	return out.Pass, nil
}

func (m *httpMatcher) Extract(ctx context.Context, document []byte) (models.DocumentFields, error) {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string][]byte{"document": document}).
		Post("/api/document/extract")
	if err != nil {
		return models.DocumentFields{}, classifyTransportError("document extract request", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return models.DocumentFields{}, fmt.Errorf("%w: extract status %d", ErrCapabilityUnavailable, resp.StatusCode())
	}

	var fields models.DocumentFields
	if err = json.Unmarshal(resp.Body(), &fields); err != nil {
		return models.DocumentFields{}, fmt.Errorf("decode document fields: %w", err)
	}

	return fields, nil
}

// classifyTransportError distinguishes deadline overruns from plain
// connectivity failures so the state machine can record TIMEOUT attempts.
func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrCapabilityTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCapabilityUnavailable, op, err)
}
