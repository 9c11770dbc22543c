package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/notes-service/internal/logging"
	"github.com/iliyamo/notes-service/internal/queue"
)

// Events fires publications in the background so a slow or absent broker
// never delays or fails a request.  Failures are logged and dropped.
type Events struct {
	pub     EventPublisher
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewEvents(pub EventPublisher, log *slog.Logger, timeout time.Duration) *Events {
	return &Events{pub: pub, log: log, timeout: timeout}
}

// Emit publishes ev asynchronously.  The request context only contributes
// its values; its cancellation does not abort the publish.
func (e *Events) Emit(ctx context.Context, ev queue.Event) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		if err := e.pub.Publish(ctx, ev); err != nil {
			e.log.WarnContext(ctx, "publish event failed", slog.String("type", ev.Type), logging.Err(err))
		}
	}()
}

// Wait blocks until every in-flight publication has finished.
func (e *Events) Wait() { e.wg.Wait() }
