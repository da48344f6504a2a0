package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/repository"
	"github.com/fashionbreeze/lifecycle/internal/storage"
)

// Recorder batches audited boundary mutations and hands them to a worker
// pool that files them as outbox tasks, from where the kafka publisher
// ships them. Losing an audit entry under pressure is acceptable; blocking
// a request is not.
type Recorder struct {
	workerCount int
	batchSize   int
	timeout     time.Duration
	topic       string

	repo   storage.OutboxTaskRepository
	logger *zap.Logger

	inputChan  chan repository.AuditLogPayload
	batchChan  chan []repository.AuditLogPayload
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewRecorder(repo storage.OutboxTaskRepository, topic string, workerCount, batchSize int, timeout time.Duration, logger *zap.Logger) *Recorder {
	return &Recorder{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		topic:       topic,
		repo:        repo,
		logger:      logger,
		inputChan:   make(chan repository.AuditLogPayload, workerCount*batchSize*2),
		batchChan:   make(chan []repository.AuditLogPayload, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.runAggregator(ctx)

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.runWorker(ctx, i)
	}
}

func (r *Recorder) Shutdown(ctx context.Context) {
	r.once.Do(func() {
		close(r.shutdownCh)

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			r.logger.Info("audit recorder shutdown completed")
		case <-ctx.Done():
			r.logger.Warn("audit recorder shutdown interrupted")
		}
	})
}

// Record enqueues one entry without blocking the request path. A full queue
// drops the entry with a log line.
func (r *Recorder) Record(entry repository.AuditLogPayload) {
	select {
	case r.inputChan <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			zap.String("path", entry.Path),
			zap.String("entity_id", entry.EntityID))
	}
}

func (r *Recorder) runAggregator(ctx context.Context) {
	defer r.wg.Done()

	var (
		batch    []repository.AuditLogPayload
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			r.dispatchBatch(batch)
		}
		close(r.batchChan)
	}()

	for {
		select {
		case entry := <-r.inputChan:
			batch = append(batch, entry)
			if len(batch) >= r.batchSize {
				r.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(r.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			r.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-r.shutdownCh:
			return
		}
	}
}

func (r *Recorder) dispatchBatch(batch []repository.AuditLogPayload) {
	batchCopy := make([]repository.AuditLogPayload, len(batch))
	copy(batchCopy, batch)

	select {
	case r.batchChan <- batchCopy:
	default:
		r.logger.Warn("audit workers saturated, dropping batch", zap.Int("entries", len(batchCopy)))
	}
}

// persistTimeout bounds a single batch write once the app context no longer
// applies.
const persistTimeout = 5 * time.Second

func (r *Recorder) runWorker(ctx context.Context, id int) {
	defer r.wg.Done()

	for batch := range r.batchChan {
		// During the shutdown drain the app context is already cancelled;
		// detaching keeps the final batches reaching the outbox.
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		r.persistBatch(persistCtx, id, batch)
		cancel()
	}
}

func (r *Recorder) persistBatch(ctx context.Context, workerID int, batch []repository.AuditLogPayload) {
	for _, entry := range batch {
		payload, err := json.Marshal(entry)
		if err != nil {
			r.logger.Error("failed to encode audit entry", zap.Int("worker", workerID), zap.Error(err))
			continue
		}

		task := &repository.OutboxTask{
			Payload: payload,
			Topic:   r.topic,
		}
		if err := r.repo.Create(ctx, task); err != nil {
			r.logger.Error("failed to file audit outbox task",
				zap.Int("worker", workerID),
				zap.String("path", entry.Path),
				zap.Error(err))
		}
	}
}
