package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExamSweeper submits exam attempts whose deadline passed.
type ExamSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExamExpiryWorker runs the sweeper on a fixed interval.
type ExamExpiryWorker struct {
	sweeper  ExamSweeper
	interval time.Duration
	logger   *zap.Logger
}

// NewExamExpiryWorker builds the worker.
func NewExamExpiryWorker(sweeper ExamSweeper, interval time.Duration, logger *zap.Logger) *ExamExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamExpiryWorker{sweeper: sweeper, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled.
func (w *ExamExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("exam expiry worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("exam expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExamExpiryWorker) sweep(ctx context.Context) {
	submitted, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("exam sweep failed", zap.Error(err))
		}
		return
	}
	if submitted > 0 {
		w.logger.Info("expired exams submitted", zap.Int("count", submitted))
	}
}
