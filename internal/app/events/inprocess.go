package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InProcess delivers events to the handler on a fresh goroutine, detached
// from the publishing request's context. This is the single-binary
// fire-and-forget transport; deployments that need at-least-once delivery
// use the AMQP transport instead.
type InProcess struct {
	handler Handler
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInProcess creates the in-process transport.
func NewInProcess(handler Handler, logger *slog.Logger) *InProcess {
	return &InProcess{
		handler: handler,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Publish schedules the handler and returns immediately. Handler failures
// are logged, never propagated: downstream failures are visible through
// persisted state only.
func (p *InProcess) Publish(_ context.Context, e Event) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.handler.Handle(ctx, e); err != nil {
			p.logger.Error("event handler failed",
				"type", string(e.Type),
				"recording_id", e.RecordingID,
				"error", err,
			)
		}
	}()
	return nil
}

// Wait blocks until all in-flight handlers finish. Used by tests and by
// graceful shutdown.
func (p *InProcess) Wait() {
	p.wg.Wait()
}
