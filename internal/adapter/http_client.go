// Package adapter is the agent's client for the central server: device
// enrolment, credential and family-link fetches for the local cache,
// direct audit delivery while online, and batch delivery of drained
// offline transactions. Transport failures and 5xx responses map to
// [ErrNetworkUnavailable] so callers can switch to the offline path.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

// CentralConfig configures the central-server client.
type CentralConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CentralClient talks to the central server on behalf of the agent.
type CentralClient interface {
	Enrol(ctx context.Context, deviceID, sharedSecret string) error
	Ping(ctx context.Context) error
	FetchUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	FetchFamilyLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
	DeliverRecord(ctx context.Context, record models.SessionRecord) error
	DeliverBatch(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error)
}

type centralClient struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

// NewCentralClient builds a [CentralClient] for the given base URL.
func NewCentralClient(cfg CentralConfig) CentralClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &centralClient{client: cli}
}

func (c *centralClient) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

func (c *centralClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Enrol exchanges the shared enrolment secret for a device token used
// on every subsequent call.
func (c *centralClient) Enrol(ctx context.Context, deviceID, sharedSecret string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.EnrolDeviceRequest{DeviceID: deviceID, SharedSecret: sharedSecret}).
		Post("/api/devices/enrol")
	if err != nil {
		return fmt.Errorf("%w: enrol request: %w", ErrNetworkUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	var out models.EnrolDeviceResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("decode enrol response: %w", err)
	}

	c.setToken(out.Token)
	return nil
}

// Ping is the connectivity probe used before choosing the online
// delivery path.
func (c *centralClient) Ping(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrNetworkUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: ping status %d", ErrNetworkUnavailable, resp.StatusCode())
	}
	return nil
}

func (c *centralClient) FetchUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.bearer()).
		Get("/api/users/" + userID.String())
	if err != nil {
		return models.User{}, fmt.Errorf("%w: fetch user: %w", ErrNetworkUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	// The server sends credential fields hidden from the public JSON
	// view under their own keys; fold them back into the model.
	var payload struct {
		models.User
		PhoneNumber string `json:"phone_number"`
		PINHash     string `json:"pin_hash"`
	}
	if err = json.Unmarshal(resp.Body(), &payload); err != nil {
		return models.User{}, fmt.Errorf("decode user: %w", err)
	}

	user := payload.User
	user.PhoneNumber = payload.PhoneNumber
	user.PINHash = payload.PINHash
	return user, nil
}

func (c *centralClient) FetchFamilyLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.bearer()).
		SetQueryParam("member", memberUserID.String()).
		SetQueryParam("primary", primaryUserID.String()).
		Get("/api/family/link")
	if err != nil {
		return models.FamilyMember{}, fmt.Errorf("%w: fetch family link: %w", ErrNetworkUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.FamilyMember{}, err
	}

	var member models.FamilyMember
	if err = json.Unmarshal(resp.Body(), &member); err != nil {
		return models.FamilyMember{}, fmt.Errorf("decode family member: %w", err)
	}
	return member, nil
}

// DeliverRecord appends one completed session straight to the central
// audit sink. Keyed by session ID server-side, so re-delivery after an
// ambiguous failure is safe.
func (c *centralClient) DeliverRecord(ctx context.Context, record models.SessionRecord) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.bearer()).
		SetHeader("Content-Type", "application/json").
		SetBody(record).
		Post("/api/audit/records")
	if err != nil {
		return fmt.Errorf("%w: deliver record: %w", ErrNetworkUnavailable, err)
	}
	return mapHTTPError(resp)
}

// DeliverBatch ships drained offline transactions. The server answers
// per transaction; duplicates are acknowledged as already applied.
func (c *centralClient) DeliverBatch(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.bearer()).
		SetHeader("Content-Type", "application/json").
		SetBody(batch).
		Post("/api/sync/transactions")
	if err != nil {
		return models.SyncBatchResponse{}, fmt.Errorf("%w: deliver batch: %w", ErrNetworkUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncBatchResponse{}, err
	}

	var out models.SyncBatchResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.SyncBatchResponse{}, fmt.Errorf("decode sync response: %w", err)
	}
	return out, nil
}

func mapHTTPError(resp *resty.Response) error {
	switch {
	case resp.StatusCode() < 300:
		return nil
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode())
	case resp.StatusCode() >= 500:
		return fmt.Errorf("%w: status %d", ErrNetworkUnavailable, resp.StatusCode())
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
}
