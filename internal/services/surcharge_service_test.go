package services

import (
	"context"
	"testing"
	"time"

	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/models"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

// Mock LedgerRepository (embedding so only the methods under test need bodies)
type mockLedgerRepository struct {
	repository.LedgerRepository
	mockFindCandidates func(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error)
	mockLockSurcharge  func(ctx context.Context, rowID uint, amount float64) error
}

func (m *mockLedgerRepository) FindSurchargeCandidates(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error) {
	if m.mockFindCandidates != nil {
		return m.mockFindCandidates(ctx, dueBefore)
	}
	return nil, nil
}

func (m *mockLedgerRepository) LockSurcharge(ctx context.Context, rowID uint, amount float64) error {
	if m.mockLockSurcharge != nil {
		return m.mockLockSurcharge(ctx, rowID, amount)
	}
	return nil
}

func surchargeConfig() *config.Config {
	return &config.Config{
		SurchargeGraceDays:  10,
		SurchargeMonthlyPct: 2,
	}
}

func TestLockOverdue_ComputesProratedSurcharge(t *testing.T) {
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	repo := &mockLedgerRepository{}
	repo.mockFindCandidates = func(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error) {
		// Cutoff must sit grace-days before asOf
		assert.True(t, dueBefore.Before(asOf))
		return []models.InstallmentRow{
			{ID: 7, InstallmentAmount: 19444, DueDate: &due},
		}, nil
	}

	var lockedID uint
	var lockedAmount float64
	repo.mockLockSurcharge = func(ctx context.Context, rowID uint, amount float64) error {
		lockedID = rowID
		lockedAmount = amount
		return nil
	}

	svc := NewSurchargeService(repo, surchargeConfig())
	locked, err := svc.LockOverdue(context.Background(), asOf)

	assert.NoError(t, err)
	assert.Equal(t, 1, locked)
	assert.Equal(t, uint(7), lockedID)

	// 58 days late (2026-07-01 to 2026-08-28 PKT):
	// round(19444 * 2/100 * 58/30) = round(751.77) = 752
	assert.Equal(t, 752.0, lockedAmount)
}

func TestLockOverdue_SkipsFullyPaidRows(t *testing.T) {
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	paidOn := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	repo := &mockLedgerRepository{}
	repo.mockFindCandidates = func(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error) {
		return []models.InstallmentRow{
			// Paid in full, just recorded late
			{ID: 1, InstallmentAmount: 10000, DueDate: &due, AmountPaid: 10000, PaymentDate: &paidOn},
			// Covered through child payments
			{ID: 2, InstallmentAmount: 10000, DueDate: &due, AmountPaid: 4000, Children: []models.ChildPayment{
				{AmountPaid: 6000, PaymentDate: &paidOn},
			}},
		}, nil
	}

	lockCalls := 0
	repo.mockLockSurcharge = func(ctx context.Context, rowID uint, amount float64) error {
		lockCalls++
		return nil
	}

	svc := NewSurchargeService(repo, surchargeConfig())
	locked, err := svc.LockOverdue(context.Background(), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Equal(t, 0, locked)
	assert.Equal(t, 0, lockCalls)
}

func TestLockOverdue_PartialPaymentReducesOutstanding(t *testing.T) {
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	repo := &mockLedgerRepository{}
	repo.mockFindCandidates = func(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error) {
		return []models.InstallmentRow{
			{ID: 3, InstallmentAmount: 20000, DueDate: &due, AmountPaid: 15000},
		}, nil
	}

	var lockedAmount float64
	repo.mockLockSurcharge = func(ctx context.Context, rowID uint, amount float64) error {
		lockedAmount = amount
		return nil
	}

	svc := NewSurchargeService(repo, surchargeConfig())
	locked, err := svc.LockOverdue(context.Background(), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Equal(t, 1, locked)

	// Outstanding is 5000, not 20000; partial payments without a payment
	// date leave the row late as of today (58 days).
	// round(5000 * 2/100 * 58/30) = round(193.33) = 193
	assert.Equal(t, 193.0, lockedAmount)
}

func TestLockOverdue_NoCandidates(t *testing.T) {
	repo := &mockLedgerRepository{}
	svc := NewSurchargeService(repo, surchargeConfig())

	locked, err := svc.LockOverdue(context.Background(), time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 0, locked)
}
