package suggestions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"traktflix/internal/activity"
	"traktflix/internal/cachekey"
	"traktflix/internal/logging"
	"traktflix/internal/observability"
	"traktflix/internal/services"
	"traktflix/internal/transport"
)

// Publisher reports confirmed mappings. Publish is advisory: it never returns
// an error, never panics outward, and its outcome never touches the activity.
type Publisher struct {
	gate     Gate
	sender   transport.Sender
	endpoint string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewPublisher builds a publisher that posts to endpoint through sender.
func NewPublisher(gate Gate, sender transport.Sender, endpoint string, logger *slog.Logger) *Publisher {
	return &Publisher{
		gate:     gate,
		sender:   sender,
		endpoint: endpoint,
		logger:   logging.NewComponentLogger(logger, "crowdsync"),
	}
}

// Publish starts a detached task that checks the gate and, when allowed,
// sends one request carrying the activity cache key and matchedURL. The
// task's result is ignored; only metrics and debug logs observe it.
func (p *Publisher) Publish(ctx context.Context, a activity.Activity, matchedURL string) {
	if p == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	snapshot := a.Clone()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				observability.RecordPublish(observability.PublishSkippedError)
				p.logger.Debug("crowd-sync publish panicked", logging.Any("panic", r))
			}
		}()
		p.publish(ctx, snapshot, matchedURL)
	}()
}

// Wait blocks until every detached publish task has handed off to the sender.
func (p *Publisher) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}

func (p *Publisher) publish(ctx context.Context, a activity.Activity, matchedURL string) {
	logger := logging.WithContext(ctx, p.logger)
	if err := p.gate.Check(ctx); err != nil {
		observability.RecordPublish(skipOutcome(err))
		logger.Debug("crowd-sync publish skipped", logging.Error(err))
		return
	}
	if p.sender == nil || p.endpoint == "" {
		observability.RecordPublish(observability.PublishSkippedError)
		return
	}
	key := cachekey.Derive(a)
	p.sender.Send(transport.Request{
		Method: http.MethodPost,
		URL:    p.endpoint,
		Params: map[string]string{"id": key, "url": matchedURL},
		OnSuccess: func(int) {
			observability.RecordPublish(observability.PublishSent)
		},
		OnError: func(err error) {
			observability.RecordPublish(observability.PublishTransportFailed)
			logger.Debug("crowd-sync publish failed",
				logging.CacheKey(key),
				logging.Error(fmt.Errorf("%w: %w", services.ErrPublishTransport, err)),
			)
		},
	})
}

func skipOutcome(err error) string {
	switch {
	case errors.Is(err, ErrDisabled):
		return observability.PublishSkippedDisabled
	case errors.Is(err, ErrNoPermission):
		return observability.PublishSkippedPermission
	default:
		return observability.PublishSkippedError
	}
}
