package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"example.com/commentcap/internal/automation"
	"example.com/commentcap/internal/domain"
)

// TriggerHandler handles one comment-submit event.
type TriggerHandler interface {
	Name() string
	HandleCommentSubmit(ctx context.Context, ev *domain.CommentSubmit) (automation.Decision, error)
}

// Delivery is a queued event with the id handed back to the caller.
type Delivery struct {
	ID    string
	Event *domain.CommentSubmit
}

// Dispatcher fans every accepted event out to all registered handlers.
// Handler errors are logged and dropped; nothing is retried.
type Dispatcher struct {
	queue    chan Delivery
	handlers []TriggerHandler
	workers  int
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(handlers []TriggerHandler, queueMaxSize, workers int, log *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		queue:    make(chan Delivery, queueMaxSize),
		handlers: handlers,
		workers:  workers,
		log:      log.With("component", "dispatch"),
	}
}

// Start launches the workers. They exit once ctx is cancelled; deliveries still
// queued at that point are abandoned.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case dl := <-d.queue:
					d.handle(ctx, dl)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Enqueue accepts ev without blocking. ok is false when the queue is full.
func (d *Dispatcher) Enqueue(ev *domain.CommentSubmit) (id string, ok bool) {
	dl := Delivery{ID: uuid.NewString(), Event: ev}
	select {
	case d.queue <- dl:
		return dl.ID, true
	default:
		return "", false
	}
}

func (d *Dispatcher) handle(ctx context.Context, dl Delivery) {
	for _, h := range d.handlers {
		dec, err := h.HandleCommentSubmit(ctx, dl.Event)
		if err != nil {
			d.log.Error("handler failed", "delivery", dl.ID, "handler", h.Name(), "err", err)
			continue
		}
		d.log.Debug("handled", "delivery", dl.ID, "handler", h.Name(), "decision", dec.Kind)
	}
}
