package capability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SMSConfig configures the HTTP SMS gateway client.
type SMSConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpSMS struct {
	client *resty.Client
}

// NewHTTPSMS builds an [SMSSender] talking to the SMS gateway. The
// default timeout matches the gateway's 30-second delivery SLA.
func NewHTTPSMS(cfg SMSConfig) SMSSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpSMS{client: cli}
}

type sendRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

func (s *httpSMS) Send(ctx context.Context, phoneNumber, message string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendRequest{PhoneNumber: phoneNumber, Message: message}).
		Post("/api/sms/send")
	if err != nil {
		return classifyTransportError("sms send", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("%w: sms status %d", ErrCapabilityUnavailable, resp.StatusCode())
	}

	return nil
}
