package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ABCMilioli/api-control/internal/model"
)

// Error kinds recorded on failed delivery attempts.
const (
	ErrorKindTimeout   = "timeout"
	ErrorKindNetwork   = "network"
	ErrorKindHTTPError = "http_error"
)

const maxResponseBody = 512

// Envelope is the JSON body POSTed to subscription endpoints.
type Envelope struct {
	Event          string `json:"event"`
	Timestamp      string `json:"timestamp"`
	Data           any    `json:"data"`
	SubscriptionID string `json:"subscription_id"`
}

// Result describes the final outcome of a delivery after the retry budget.
// It is reported to logs and metrics only, never to the caller that produced
// the event.
type Result struct {
	Succeeded    bool
	HTTPStatus   int
	ResponseBody string
	ErrorKind    string
	AttemptsUsed int
}

// Deliverer performs webhook delivery attempts with per-subscription timeout
// and exponential backoff between retries.
type Deliverer struct {
	client *http.Client
	logger zerolog.Logger
	// backoff returns the delay before the n-th retry (0-indexed).
	// Overridable in tests.
	backoff func(retry int) time.Duration
}

func NewDeliverer(logger zerolog.Logger) *Deliverer {
	return &Deliverer{
		// Per-attempt deadlines come from the subscription's timeout_ms via
		// request contexts, not from the client.
		client:  &http.Client{},
		logger:  logger,
		backoff: expBackoff,
	}
}

func expBackoff(retry int) time.Duration {
	return time.Duration(1<<uint(retry)) * time.Second
}

// Deliver POSTs the event to the subscription endpoint, retrying failed
// attempts sequentially up to sub.MaxRetries times. The payload is marshalled
// and signed once; every attempt sends identical bytes.
func (d *Deliverer) Deliver(ctx context.Context, sub *model.WebhookSubscription, event model.Event) Result {
	body, err := json.Marshal(Envelope{
		Event:          event.Name,
		Timestamp:      event.OccurredAt.Format(time.RFC3339),
		Data:           event.Payload,
		SubscriptionID: sub.ID,
	})
	if err != nil {
		d.logger.Error().Err(err).Str("subscription_id", sub.ID).Str("event", event.Name).
			Msg("webhook payload not marshalable")
		return Result{ErrorKind: ErrorKindNetwork}
	}

	var signature string
	if sub.Secret != "" {
		signature = Sign(sub.Secret, body)
	}

	var result Result
	for attempt := 0; attempt <= sub.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(d.backoff(attempt - 1)):
			case <-ctx.Done():
				result.AttemptsUsed = attempt
				d.observe(event.Name, result)
				return result
			}
		}

		result = d.attempt(ctx, sub, event, body, signature)
		result.AttemptsUsed = attempt + 1
		if result.Succeeded {
			break
		}
		d.logger.Warn().
			Str("subscription_id", sub.ID).
			Str("event", event.Name).
			Int("attempt", attempt+1).
			Str("error_kind", result.ErrorKind).
			Int("http_status", result.HTTPStatus).
			Msg("webhook delivery attempt failed")
	}

	if !result.Succeeded {
		d.logger.Error().
			Str("subscription_id", sub.ID).
			Str("event", event.Name).
			Int("attempts", result.AttemptsUsed).
			Msg("webhook delivery failed after retries")
	}
	d.observe(event.Name, result)
	return result
}

// attempt performs a single POST bounded by the subscription timeout.
func (d *Deliverer) attempt(ctx context.Context, sub *model.WebhookSubscription, event model.Event, body []byte, signature string) Result {
	attemptCtx, cancel := context.WithTimeout(ctx, sub.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return Result{ErrorKind: ErrorKindNetwork}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event.Name)
	req.Header.Set("X-Webhook-Timestamp", event.OccurredAt.Format(time.RFC3339))
	req.Header.Set("X-Webhook-ID", sub.ID)
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return Result{ErrorKind: ErrorKindTimeout}
		}
		return Result{ErrorKind: ErrorKindNetwork}
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Succeeded: true, HTTPStatus: resp.StatusCode, ResponseBody: string(preview)}
	}
	return Result{
		HTTPStatus:   resp.StatusCode,
		ResponseBody: string(preview),
		ErrorKind:    ErrorKindHTTPError,
	}
}

func (d *Deliverer) observe(eventName string, result Result) {
	outcome := "failure"
	if result.Succeeded {
		outcome = "success"
	}
	deliveriesTotal.WithLabelValues(eventName, outcome).Inc()
	deliveryAttempts.WithLabelValues(eventName).Observe(float64(result.AttemptsUsed))
}
