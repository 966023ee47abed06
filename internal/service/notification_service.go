package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/config"
	"github.com/spec-kit/impactlens/internal/events"
)

// NotificationService forwards analysis lifecycle events to a webhook
// endpoint when one is configured, and logs them otherwise.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAnalysisCompleted, n.handleAnalysisCompleted)
	n.dispatcher.Subscribe(events.EventAnalysisFailed, n.handleAnalysisFailed)
	n.dispatcher.Subscribe(events.EventTicketSynced, n.handleTicketSynced)
}

func (n *NotificationService) handleAnalysisCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("AnalysisCompleted", zap.String("ticket_key", event.TicketKey), zap.Any("payload", event.Payload))
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleAnalysisFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn("AnalysisFailed", zap.String("ticket_key", event.TicketKey), zap.Any("payload", event.Payload))
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketSynced(ctx context.Context, event events.Event) error {
	n.logger.Debug("TicketSynced", zap.String("ticket_key", event.TicketKey), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("url", n.cfg.WebhookURL),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return
	}
	resp.Body.Close()
}
