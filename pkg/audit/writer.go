package audit

import (
	"context"
	"time"

	"github.com/scolaris/scolaris/pkg/observability"
)

// AsyncWriter drains queued records into a Sink on a background goroutine.
// Enqueue never blocks; when the queue is full the record is dropped and
// counted, because audit must not add latency or failure modes to the
// request path.
type AsyncWriter struct {
	sink    Sink
	queue   chan *Record
	done    chan struct{}
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAsyncWriter creates the writer and starts its drain goroutine
func NewAsyncWriter(sink Sink, queueSize int, logger *observability.Logger, metrics *observability.Metrics) *AsyncWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}

	w := &AsyncWriter{
		sink:    sink,
		queue:   make(chan *Record, queueSize),
		done:    make(chan struct{}),
		logger:  logger,
		metrics: metrics,
	}
	go w.run()
	return w
}

// Enqueue implements Recorder
func (w *AsyncWriter) Enqueue(rec *Record) {
	select {
	case w.queue <- rec:
		if w.metrics != nil {
			w.metrics.AuditQueueDepth.Set(float64(len(w.queue)))
		}
	default:
		if w.metrics != nil {
			w.metrics.AuditDroppedTotal.Inc()
		}
		if w.logger != nil {
			w.logger.WithField("action", rec.Action).Warn("audit queue full, dropping record")
		}
	}
}

func (w *AsyncWriter) run() {
	// done must close even if the drain loop panics, or Close hangs forever
	defer observability.RecoverPanicWithCallback(w.logger, "audit writer", func() {
		close(w.done)
	})

	for rec := range w.queue {
		w.write(rec)
	}
}

func (w *AsyncWriter) write(rec *Record) {
	// A panicking sink loses one record, not the drain goroutine
	defer observability.RecoverPanic(w.logger, "audit write")

	// Detached context: the originating request is long gone by now
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := w.sink.Insert(ctx, rec)
	if w.metrics != nil {
		w.metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())
		w.metrics.AuditQueueDepth.Set(float64(len(w.queue)))
	}

	if err != nil {
		if w.metrics != nil {
			w.metrics.AuditRecordsTotal.WithLabelValues("error").Inc()
		}
		if w.logger != nil {
			w.logger.WithError(err).WithField("action", rec.Action).Error("failed to write activity log")
		}
		return
	}

	if w.metrics != nil {
		w.metrics.AuditRecordsTotal.WithLabelValues("written").Inc()
	}
}

// Close stops accepting records and waits for the queue to drain, bounded by
// the context deadline.
func (w *AsyncWriter) Close(ctx context.Context) error {
	close(w.queue)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
