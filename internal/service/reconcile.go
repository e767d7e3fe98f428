package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benx421/billpay/internal/config"
	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/metrics"
	"github.com/benx421/billpay/internal/outcome"
	"github.com/benx421/billpay/internal/provider"
	"github.com/benx421/billpay/internal/repository"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/benx421/billpay/internal/models"
)

// sweepLimit caps how many rows a single sweep will requery.
const sweepLimit = 500

// SweepStats summarizes one reconciliation sweep.
type SweepStats struct {
	Selected     int
	Settled      int
	StillPending int
	Errors       int
	Stuck        int64
}

// ReconcileService resolves pending transactions by requerying the biller
// and applying the same terminal-transition rule as the synchronous path.
type ReconcileService struct {
	db      *db.DB
	txRepo  repository.TransactionRepository
	biller  provider.Biller
	settler terminalApplier
	cfg     config.SchedulerConfig
	logger  *slog.Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(database *db.DB, biller provider.Biller, cfg config.SchedulerConfig, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{
		db:      database,
		txRepo:  repository.NewTransactionRepository(database.DB),
		biller:  biller,
		settler: newTxSettler(database, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Sweep selects pending transactions still inside the retry and age ceilings
// and requeries each. Rows past either ceiling are only counted: they need
// manual operator intervention and the gauge is the alert for that.
func (s *ReconcileService) Sweep(ctx context.Context) (SweepStats, error) {
	timer := prometheus.NewTimer(metrics.SweepSeconds)
	defer timer.ObserveDuration()

	var stats SweepStats
	cutoff := time.Now().Add(-s.cfg.AgeWindow)

	stuck, err := s.txRepo.CountStuckPending(ctx, cutoff, s.cfg.MaxRetries)
	if err != nil {
		s.logger.Error("failed to count stuck transactions", "error", err)
	} else {
		stats.Stuck = stuck
		metrics.ReconciliationExhaustedTotal.Set(float64(stuck))
		if stuck > 0 {
			s.logger.Warn("pending transactions past reconciliation ceiling, manual intervention required",
				"count", stuck,
			)
		}
	}

	rows, err := s.txRepo.ListPendingForRequery(ctx, cutoff, s.cfg.MaxRetries, sweepLimit)
	if err != nil {
		return stats, fmt.Errorf("failed to select transactions for requery: %w", err)
	}
	stats.Selected = len(rows)

	for i, txn := range rows {
		// Short pause between batches so the sweep does not hammer the biller.
		if i > 0 && s.cfg.BatchSize > 0 && i%s.cfg.BatchSize == 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(s.cfg.BatchDelay):
			}
		}

		settled, err := s.reconcileOne(ctx, txn)
		switch {
		case err != nil:
			stats.Errors++
		case settled:
			stats.Settled++
		default:
			stats.StillPending++
		}
	}

	s.logger.Info("reconciliation sweep complete",
		"selected", stats.Selected,
		"settled", stats.Settled,
		"still_pending", stats.StillPending,
		"errors", stats.Errors,
		"stuck", stats.Stuck,
	)

	return stats, nil
}

// reconcileOne requeries a single pending transaction. The retry counter is
// incremented whatever the requery returns, so a persistently erroring row
// still ages out of the sweep.
func (s *ReconcileService) reconcileOne(ctx context.Context, txn *models.Transaction) (bool, error) {
	if err := s.txRepo.IncrementRetry(ctx, txn.RequestID); err != nil {
		s.logger.Error("failed to increment retry count",
			"request_id", txn.RequestID,
			"error", err,
		)
	}

	timer := prometheus.NewTimer(metrics.ProviderRequestSeconds.WithLabelValues("requery"))
	resp, err := s.biller.Requery(ctx, txn.RequestID)
	timer.ObserveDuration()
	if err != nil {
		// Unlike the pay path, a requery transport error triggers no refund:
		// the row is already pending and the next sweep will try again.
		s.logger.Warn("requery failed",
			"request_id", txn.RequestID,
			"retry_count", txn.RetryCount+1,
			"error", err,
		)
		return false, err
	}

	out := outcome.Classify(resp.Code, resp.Content.Transactions.Status, resp.ResponseDescription)
	ref := resp.Content.Transactions.TransactionID

	if !out.Terminal() {
		if out == outcome.Unknown {
			s.logger.Warn("unrecognized requery response",
				"request_id", txn.RequestID,
				"code", resp.Code,
				"provider_status", resp.Content.Transactions.Status,
			)
		}
		if err := s.txRepo.AppendMetadata(ctx, txn.RequestID, ref, resp.Raw); err != nil {
			s.logger.Error("failed to record requery payload",
				"request_id", txn.RequestID,
				"error", err,
			)
		}
		return false, nil
	}

	return s.settler.apply(ctx, txn, statusForOutcome(out), ref, resp.Raw, sourceRequery)
}
