// Package integrations provides outbox handlers delivering events to external
// webhook consumers. Handlers are registered on the outbox registry keyed by
// target system; the dispatcher knows nothing about the systems themselves.
package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/chronoshq/chronos/internal/errors"
	outboxDomain "github.com/chronoshq/chronos/internal/outbox/domain"
	outboxUseCase "github.com/chronoshq/chronos/internal/outbox/usecase"
)

// Target system keys under which the webhook handlers register.
const (
	TargetSystemN8N      = "n8n"
	TargetSystemTelegram = "telegram"
)

// WebhookConfig holds the delivery endpoints and shared auth token.
type WebhookConfig struct {
	N8NURL      string
	TelegramURL string
	AuthToken   string
}

// WebhookDelivery posts outbox entry payloads to webhook endpoints. One
// resty client is shared across handlers; per-entry timeouts come from the
// dispatcher's context, not the client.
type WebhookDelivery struct {
	config WebhookConfig
	client *resty.Client
	logger *slog.Logger
}

// NewWebhookDelivery creates a new WebhookDelivery
func NewWebhookDelivery(config WebhookConfig, logger *slog.Logger) *WebhookDelivery {
	return &WebhookDelivery{
		config: config,
		client: resty.New(),
		logger: logger,
	}
}

// Register registers the configured webhook handlers on the outbox registry.
// Systems without a configured URL are skipped: enqueuing for them fails at
// dispatch time with a missing-handler error instead of silently vanishing.
func (d *WebhookDelivery) Register(registry *outboxUseCase.Registry) {
	if d.config.N8NURL != "" {
		registry.Register(TargetSystemN8N, d.handlerFor(d.config.N8NURL))
	}
	if d.config.TelegramURL != "" {
		registry.Register(TargetSystemTelegram, d.handlerFor(d.config.TelegramURL))
	}
}

// handlerFor builds an outbox handler delivering entries to one endpoint.
func (d *WebhookDelivery) handlerFor(url string) outboxUseCase.Handler {
	return func(ctx context.Context, entry *outboxDomain.OutboxEntry) error {
		return d.deliver(ctx, url, entry)
	}
}

// deliver posts one entry. Any transport error or non-2xx response is a
// failure; the dispatcher handles retry and backoff.
func (d *WebhookDelivery) deliver(ctx context.Context, url string, entry *outboxDomain.OutboxEntry) error {
	var payload json.RawMessage
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		return apperrors.Wrap(err, "invalid entry payload")
	}

	headers := map[string]string{}
	if entry.Headers != "" {
		if err := json.Unmarshal([]byte(entry.Headers), &headers); err != nil {
			return apperrors.Wrap(err, "invalid entry headers")
		}
	}

	request := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Event-Type", entry.EventType).
		SetHeader("X-Idempotency-Key", entry.IdempotencyKey).
		SetBody(payload)

	for key, value := range headers {
		request.SetHeader(key, value)
	}
	if d.config.AuthToken != "" {
		request.SetHeader("Authorization", "Bearer "+d.config.AuthToken)
	}

	response, err := request.Post(url)
	if err != nil {
		return apperrors.Wrap(err, "webhook delivery failed")
	}

	if response.IsError() {
		return fmt.Errorf("webhook returned status %d", response.StatusCode())
	}

	if d.logger != nil {
		d.logger.Debug("webhook delivered",
			slog.String("entry_id", entry.ID.String()),
			slog.String("event_type", entry.EventType),
			slog.Int("status_code", response.StatusCode()),
		)
	}

	return nil
}
