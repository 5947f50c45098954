package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/ledger"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/shopspring/decimal"
)

// SurchargeService is the billing pass that fixes late payment surcharges.
// A surcharge is computed once for each overdue row and locked; the ledger
// reads the stored figure verbatim and never recomputes it.
type SurchargeService struct {
	ledgerRepo repository.LedgerRepository
	cfg        *config.Config
}

// NewSurchargeService creates a new surcharge service
func NewSurchargeService(ledgerRepo repository.LedgerRepository, cfg *config.Config) *SurchargeService {
	return &SurchargeService{
		ledgerRepo: ledgerRepo,
		cfg:        cfg,
	}
}

// LockOverdue computes and locks surcharges for unpaid rows whose due date is
// past the grace period. Returns the number of rows locked. Safe to run
// repeatedly; locked rows are excluded at the query and again at the update.
func (s *SurchargeService) LockOverdue(ctx context.Context, asOf time.Time) (int, error) {
	cutoff := asOf.In(ledger.Karachi).AddDate(0, 0, -s.cfg.SurchargeGraceDays)

	candidates, err := s.ledgerRepo.FindSurchargeCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	today := ledger.DateIn(asOf)
	locked := 0

	for i := range candidates {
		row := candidates[i].ToLedgerRow()

		// Fully covered rows are late bookkeeping, not late payment.
		if ledger.EffectivePaid(row) >= row.InstallmentAmount {
			continue
		}

		lateDays := ledger.LateDays(row.DueDate, ledger.EffectivePaymentDate(row), today)
		if lateDays <= 0 {
			continue
		}

		amount := s.computeSurcharge(row.InstallmentAmount, ledger.EffectivePaid(row), lateDays)
		if amount <= 0 {
			continue
		}

		if err := s.ledgerRepo.LockSurcharge(ctx, candidates[i].ID, amount); err != nil {
			slog.Error("failed to lock surcharge",
				"row_id", candidates[i].ID,
				"error", err,
			)
			continue
		}
		locked++
	}

	return locked, nil
}

// computeSurcharge prorates the monthly percentage over the days late:
// round(outstanding * pct/100 * lateDays/30).
func (s *SurchargeService) computeSurcharge(installment, paid float64, lateDays int) float64 {
	outstanding := decimal.NewFromFloat(installment).Sub(decimal.NewFromFloat(paid))
	if outstanding.IsNegative() || outstanding.IsZero() {
		return 0
	}

	amount := outstanding.
		Mul(decimal.NewFromFloat(s.cfg.SurchargeMonthlyPct)).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(lateDays))).
		Div(decimal.NewFromInt(30)).
		Round(0)

	v, _ := amount.Float64()
	return v
}
