package worker

import (
	"context"
	"errors"
	"time"

	"venuebook/internal/models"

	"github.com/rs/zerolog"
)

// LogLister supplies the confirmation-log rows to export.
type LogLister interface {
	ListLogEntries(ctx context.Context) ([]*models.ConfirmationLogEntry, error)
}

// FileWriter renders a snapshot to a file and returns its path.
type FileWriter interface {
	Write(entries []*models.ConfirmationLogEntry) (string, error)
}

// ExportTask asks for a fresh confirmation-log export.
type ExportTask struct {
	Reason    string
	CreatedAt time.Time
}

// ExportWorker serializes confirmation-log exports on a single goroutine so
// confirmations never wait on file IO.
type ExportWorker struct {
	store       LogLister
	writer      FileWriter
	retryPolicy RetryPolicy
	queue       chan ExportTask
	logger      *zerolog.Logger
}

func NewExportWorker(store LogLister, writer FileWriter, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	return &ExportWorker{
		store:       store,
		writer:      writer,
		retryPolicy: retry.withDefaults(),
		queue:       make(chan ExportTask, models.WorkerQueueSize),
		logger:      logger,
	}
}

// EnqueueExport schedules an export without blocking the caller. A full queue
// drops the task: the next confirmation enqueues a fresh snapshot anyway.
func (w *ExportWorker) EnqueueExport(_ context.Context, reason string) error {
	task := ExportTask{Reason: reason, CreatedAt: time.Now()}
	select {
	case w.queue <- task:
		return nil
	default:
		w.logger.Warn().Str("reason", reason).Msg("export queue full, dropping task")
		return errors.New("export queue is full")
	}
}

// Start consumes tasks until ctx is cancelled.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("export worker stopped")
			return
		case task := <-w.queue:
			w.process(ctx, task)
		}
	}
}

func (w *ExportWorker) process(ctx context.Context, task ExportTask) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		path, err := w.runExport(ctx)
		if err == nil {
			w.logger.Info().
				Str("reason", task.Reason).
				Str("file_path", path).
				Int("attempt", attempt).
				Msg("confirmation log exported")
			return
		}
		lastErr = err

		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("export attempt failed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	w.logger.Error().
		Err(lastErr).
		Str("reason", task.Reason).
		Msg("export failed after all retries")
}

func (w *ExportWorker) runExport(ctx context.Context) (string, error) {
	entries, err := w.store.ListLogEntries(ctx)
	if err != nil {
		return "", err
	}
	return w.writer.Write(entries)
}
