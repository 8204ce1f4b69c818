package printing

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/infrastructure/telemetry"
)

// ErrDispatcherClosed is returned when an upload is dispatched after shutdown
var ErrDispatcherClosed = errors.New("upload dispatcher is closed")

// UploadDispatcherConfig controls the background upload workers
type UploadDispatcherConfig struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

// DefaultUploadDispatcherConfig returns sensible defaults
func DefaultUploadDispatcherConfig() UploadDispatcherConfig {
	return UploadDispatcherConfig{
		Workers:        4,
		QueueSize:      100,
		MaxAttempts:    3,
		RetryDelay:     2 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

type uploadJob struct {
	obj    *UploadObject
	record *printing.UploadRecord
	origin telemetry.SpanOption
}

// UploadDispatcher uploads documents in the background. Callers never wait
// for an upload; its outcome is recorded in the status repository.
type UploadDispatcher struct {
	storage  ObjectStorage
	statuses printing.UploadStatusRepository
	config   UploadDispatcherConfig
	logger   *zap.Logger
	metrics  *telemetry.DocumentMetrics

	queue   chan uploadJob
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	started bool
}

// DispatcherOption configures an UploadDispatcher
type DispatcherOption func(*UploadDispatcher)

// WithUploadMetrics records upload outcomes
func WithUploadMetrics(metrics *telemetry.DocumentMetrics) DispatcherOption {
	return func(d *UploadDispatcher) {
		d.metrics = metrics
	}
}

// NewUploadDispatcher creates a dispatcher. Call Start to launch the workers.
func NewUploadDispatcher(
	storage ObjectStorage,
	statuses printing.UploadStatusRepository,
	config UploadDispatcherConfig,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *UploadDispatcher {
	defaults := DefaultUploadDispatcherConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &UploadDispatcher{
		storage:  storage,
		statuses: statuses,
		config:   config,
		logger:   logger,
		queue:    make(chan uploadJob, config.QueueSize),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker goroutines
func (d *UploadDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("upload dispatcher started",
		zap.Int("workers", d.config.Workers),
		zap.Int("queue_size", d.config.QueueSize))
}

// Dispatch records a pending upload and queues it. It never blocks: when the
// queue is full the record is marked failed and returned.
func (d *UploadDispatcher) Dispatch(ctx context.Context, obj *UploadObject) (*printing.UploadRecord, error) {
	record, err := printing.NewUploadRecord(obj.Bucket, obj.Key, len(obj.Data))
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}

	d.save(ctx, record)
	// the worker owns record once it is queued
	pending := snapshot(record)
	select {
	case d.queue <- uploadJob{obj: obj, record: record, origin: telemetry.LinkedTo(ctx)}:
		d.logger.Debug("upload queued",
			zap.String("bucket", obj.Bucket),
			zap.String("key", obj.Key),
			zap.Int("size", len(obj.Data)))
		return pending, nil
	default:
		_ = record.Fail("upload queue is full")
		d.save(ctx, record)
		d.metrics.RecordUpload(ctx, telemetry.OutcomeDropped, 0)
		d.logger.Error("upload dropped: queue is full",
			zap.String("bucket", obj.Bucket),
			zap.String("key", obj.Key))
		return record, nil
	}
}

// Shutdown stops accepting uploads and waits for queued ones to finish or
// for ctx to expire
func (d *UploadDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		close(d.stop)
		return ctx.Err()
	}
}

func (d *UploadDispatcher) worker(id int) {
	defer d.wg.Done()
	for job := range d.queue {
		d.process(job)
	}
	d.logger.Debug("upload worker stopped", zap.Int("worker", id))
}

// process runs the attempts of one upload with linear backoff
func (d *UploadDispatcher) process(job uploadJob) {
	record := job.record
	obj := job.obj
	log := d.logger.With(zap.String("bucket", obj.Bucket), zap.String("key", obj.Key))

	spanCtx, span := telemetry.StartServiceSpan(context.Background(), "upload", "process",
		job.origin,
		telemetry.WithAttribute(telemetry.SpanAttrBucket, obj.Bucket),
		telemetry.WithAttribute(telemetry.SpanAttrKey, obj.Key),
		telemetry.WithAttribute(telemetry.SpanAttrBytes, len(obj.Data)))
	defer span.End()

	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		if err := record.StartAttempt(); err != nil {
			log.Error("upload record in unexpected state", zap.Error(err))
			return
		}
		d.save(context.Background(), record)

		ctx, cancel := context.WithTimeout(spanCtx, d.config.AttemptTimeout)
		err := d.storage.Put(ctx, obj)
		cancel()

		if err == nil {
			_ = record.Complete()
			d.save(context.Background(), record)
			telemetry.SetAttributes(span, telemetry.SpanAttrAttempts, record.Attempts)
			d.metrics.RecordUpload(spanCtx, telemetry.OutcomeSuccess, record.Attempts)
			log.Info("document uploaded",
				zap.Int("attempts", record.Attempts),
				zap.Int("size", len(obj.Data)))
			return
		}

		if attempt == d.config.MaxAttempts {
			_ = record.Fail(err.Error())
			d.save(context.Background(), record)
			telemetry.SetAttributes(span, telemetry.SpanAttrAttempts, record.Attempts)
			telemetry.RecordError(span, err)
			d.metrics.RecordUpload(spanCtx, telemetry.OutcomeFailure, record.Attempts)
			log.Error("document upload failed",
				zap.Int("attempts", record.Attempts),
				zap.Error(err))
			return
		}

		_ = record.Retry(err.Error())
		d.save(context.Background(), record)
		log.Warn("document upload attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-time.After(d.config.RetryDelay * time.Duration(attempt)):
		case <-d.stop:
		}
	}
}

func (d *UploadDispatcher) save(ctx context.Context, record *printing.UploadRecord) {
	if d.statuses == nil {
		return
	}
	if err := d.statuses.Save(ctx, snapshot(record)); err != nil {
		d.logger.Warn("failed to save upload status",
			zap.String("bucket", record.Bucket),
			zap.String("key", record.Key),
			zap.String("status", record.Status.String()),
			zap.Error(err))
	}
}

// snapshot copies a record so repositories and callers never share the
// worker's instance
func snapshot(r *printing.UploadRecord) *printing.UploadRecord {
	c := *r
	return &c
}
