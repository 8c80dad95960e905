package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	"github.com/carebridge/carelog-api/pkg/logger"
	"github.com/carebridge/carelog-api/pkg/messaging"
	"github.com/carebridge/carelog-api/pkg/metrics"
)

// EventChannel is the broker channel care log events are relayed to.
const EventChannel = "carelog.events"

// Notifier is given every successfully relayed event.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload []byte) error
}

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// OutboxProcessor relays pending outbox events to the broker and drives
// email notices. Events are claimed with row locks, so running several
// worker instances is safe.
type OutboxProcessor struct {
	repo     repository.OutboxRepository
	broker   messaging.Broker
	notifier Notifier
	config   OutboxProcessorConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	notifier Notifier,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}

	return &OutboxProcessor{
		repo:     repo,
		broker:   broker,
		notifier: notifier,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox events")
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingWithLock(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := p.relay(ctx, event); err != nil {
			p.metrics.OutboxEventsFailed.Inc()
			p.logger.Error(err, "failed to relay event")
			if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				p.logger.Error(markErr, "failed to mark event failed")
			}
			continue
		}

		p.metrics.OutboxEventsProcessed.Inc()
		if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
			p.logger.Error(err, "failed to mark event processed")
		}
	}

	return nil
}

func (p *OutboxProcessor) relay(ctx context.Context, event *model.OutboxEvent) error {
	msg := map[string]interface{}{
		"id":         event.ID,
		"event_type": event.EventType,
		"payload":    event.Payload,
		"created_at": event.CreatedAt,
	}
	if err := p.broker.Publish(ctx, EventChannel, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, event.EventType, event.Payload); err != nil {
			// Notices are best effort; the event itself has been relayed.
			p.logger.Error(err, "failed to send notice")
		}
	}
	return nil
}
