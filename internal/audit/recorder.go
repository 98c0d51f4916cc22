package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"example.com/commentcap/internal/domain"
)

// BatchWriter persists a batch of action records.
type BatchWriter interface {
	InsertBatch(ctx context.Context, items []domain.ActionRecord) (int64, error)
}

// Recorder buffers applied action bundles and writes them in batches, flushing
// when a batch fills up or batchMaxWait elapses.
type Recorder struct {
	queue        chan domain.ActionRecord
	writer       BatchWriter
	batchMaxSize int
	batchMaxWait time.Duration
	log          *slog.Logger
	done         sync.WaitGroup
}

func NewRecorder(writer BatchWriter, queueMaxSize, batchMaxSize int, batchMaxWait time.Duration, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		queue:        make(chan domain.ActionRecord, queueMaxSize),
		writer:       writer,
		batchMaxSize: batchMaxSize,
		batchMaxWait: batchMaxWait,
		log:          log.With("component", "audit"),
	}
}

// Start runs the flush loop until ctx is cancelled; a final flush happens on the way out.
func (rc *Recorder) Start(ctx context.Context) {
	rc.done.Add(1)
	go func() {
		defer rc.done.Done()
		batch := make([]domain.ActionRecord, 0, rc.batchMaxSize)
		t := time.NewTimer(rc.batchMaxWait)
		defer t.Stop()

		resetTimer := func() {
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(rc.batchMaxWait)
		}

		flush := func(ctx context.Context) {
			if len(batch) == 0 {
				resetTimer()
				return
			}
			affected, err := rc.writer.InsertBatch(ctx, batch)
			if err != nil {
				rc.log.Error("batch insert failed", "err", err, "dropped", len(batch))
			} else {
				rc.log.Debug("batch insert ok", "inserted", affected, "size", len(batch))
			}
			batch = batch[:0]
			resetTimer()
		}

		for {
			select {
			case <-ctx.Done():
				// drain what is already queued, then write with a fresh context
			drain:
				for {
					select {
					case rec := <-rc.queue:
						batch = append(batch, rec)
					default:
						break drain
					}
				}
				fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				flush(fctx)
				cancel()
				return
			case rec := <-rc.queue:
				batch = append(batch, rec)
				if len(batch) >= rc.batchMaxSize {
					flush(ctx)
				}
			case <-t.C:
				flush(ctx)
			}
		}
	}()
}

// Wait blocks until the flush loop has exited.
func (rc *Recorder) Wait() { rc.done.Wait() }

// Record queues rec without blocking; it reports false when the queue is full.
func (rc *Recorder) Record(rec domain.ActionRecord) bool {
	select {
	case rc.queue <- rec:
		return true
	default:
		return false
	}
}
