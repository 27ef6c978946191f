package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopsphere/payments-core/internal/application"
)

// LedgerGC prunes processed-event ledger entries past the retention window.
// Retention must comfortably exceed the gateway's redelivery horizon, or a
// very late redelivery would be treated as new.
type LedgerGC struct {
	ledger    application.LedgerRepository
	interval  time.Duration
	retention time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewLedgerGC(
	ledger application.LedgerRepository,
	interval time.Duration,
	retention time.Duration,
	batchSize int,
	logger *slog.Logger,
) *LedgerGC {
	return &LedgerGC{
		ledger:    ledger,
		interval:  interval,
		retention: retention,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *LedgerGC) Start(ctx context.Context) {
	w.logger.Info("ledger gc started", "interval", w.interval, "retention", w.retention)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ledger gc stopping")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *LedgerGC) prune(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)

	var total int64
	for {
		deleted, err := w.ledger.DeleteOlderThan(ctx, cutoff, w.batchSize)
		if err != nil {
			w.logger.Error("ledger pruning failed", "error", err)
			return
		}
		total += deleted
		if deleted < int64(w.batchSize) {
			break
		}
	}

	if total > 0 {
		w.logger.Info("pruned processed events", "deleted", total, "cutoff", cutoff)
	}
}
