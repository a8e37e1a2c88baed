package store

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"pantry-exchange/pkg/types"
)

// Remote ships records to an HTTP collector. Each record is POSTed to
// /records; 5xx responses and transport errors are retried with backoff.
// Delivery is best-effort: the caller logs and drops on persistent failure.
type Remote struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewRemote creates a collector client for the given base URL.
func NewRemote(baseURL string, logger *slog.Logger) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Remote{
		http:   client,
		logger: logger.With("component", "store-remote"),
	}
}

// Append POSTs one record to the collector.
func (r *Remote) Append(rec types.Record) error {
	resp, err := r.http.R().
		SetBody(rec).
		Post("/records")
	if err != nil {
		return fmt.Errorf("post record: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("post record: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (r *Remote) Close() error {
	return nil
}
