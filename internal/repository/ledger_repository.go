package repository

import (
	"context"
	"time"

	"github.com/makkaan/avenue-api/internal/models"
	"gorm.io/gorm"
)

// PaymentSummary is the per-contract aggregate used to enrich list views
// without re-fetching every contract's full ledger.
type PaymentSummary struct {
	ContractID uint    `json:"contract_id"`
	TotalRows  int     `json:"total_rows"`
	PaidRows   int     `json:"paid_rows"`
	AmountPaid float64 `json:"amount_paid"`
}

// LedgerRepository defines the interface for installment row and child
// payment data access
type LedgerRepository interface {
	FindRowsByContract(ctx context.Context, contractID uint) ([]models.InstallmentRow, error)
	FindRowByID(ctx context.Context, id uint) (*models.InstallmentRow, error)
	CreateRow(ctx context.Context, row *models.InstallmentRow) error
	UpdateRow(ctx context.Context, row *models.InstallmentRow) error
	DeleteRow(ctx context.Context, id uint) error
	MaxSrNo(ctx context.Context, contractID uint) (int, error)

	FindChildByID(ctx context.Context, id uint) (*models.ChildPayment, error)
	CreateChild(ctx context.Context, child *models.ChildPayment) error
	UpdateChild(ctx context.Context, child *models.ChildPayment) error
	DeleteChild(ctx context.Context, id uint) error

	PaymentSummaries(ctx context.Context, contractIDs []uint) (map[uint]PaymentSummary, error)
	FindSurchargeCandidates(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error)
	LockSurcharge(ctx context.Context, rowID uint, amount float64) error
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) FindRowsByContract(ctx context.Context, contractID uint) ([]models.InstallmentRow, error) {
	var rows []models.InstallmentRow
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Order("sr_no ASC").
		Find(&rows).Error
	return rows, err
}

func (r *ledgerRepository) FindRowByID(ctx context.Context, id uint) (*models.InstallmentRow, error) {
	var row models.InstallmentRow
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		First(&row, id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ledgerRepository) CreateRow(ctx context.Context, row *models.InstallmentRow) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *ledgerRepository) UpdateRow(ctx context.Context, row *models.InstallmentRow) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// DeleteRow removes a row and its child payments together
func (r *ledgerRepository) DeleteRow(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("row_id = ?", id).Delete(&models.ChildPayment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.InstallmentRow{}, id).Error
	})
}

func (r *ledgerRepository) MaxSrNo(ctx context.Context, contractID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.InstallmentRow{}).
		Select("COALESCE(MAX(sr_no), 0)").
		Where("contract_id = ?", contractID).
		Scan(&max).Error
	return max, err
}

func (r *ledgerRepository) FindChildByID(ctx context.Context, id uint) (*models.ChildPayment, error) {
	var child models.ChildPayment
	err := r.db.WithContext(ctx).First(&child, id).Error
	if err != nil {
		return nil, err
	}
	return &child, nil
}

func (r *ledgerRepository) CreateChild(ctx context.Context, child *models.ChildPayment) error {
	return r.db.WithContext(ctx).Create(child).Error
}

func (r *ledgerRepository) UpdateChild(ctx context.Context, child *models.ChildPayment) error {
	return r.db.WithContext(ctx).Save(child).Error
}

func (r *ledgerRepository) DeleteChild(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ChildPayment{}, id).Error
}

// PaymentSummaries aggregates paid amounts and paid-row counts for many
// contracts in one query. Child payments are folded into each row's paid sum
// before the fully-paid comparison, matching the reconciliation rule.
func (r *ledgerRepository) PaymentSummaries(ctx context.Context, contractIDs []uint) (map[uint]PaymentSummary, error) {
	summaries := make(map[uint]PaymentSummary, len(contractIDs))
	if len(contractIDs) == 0 {
		return summaries, nil
	}

	var results []PaymentSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT ir.contract_id,
		       COUNT(*) AS total_rows,
		       COALESCE(SUM(ir.amount_paid + COALESCE(cp.child_total, 0)), 0) AS amount_paid,
		       COALESCE(SUM(CASE
		           WHEN ir.installment_amount > 0
		            AND ir.amount_paid + COALESCE(cp.child_total, 0) >= ir.installment_amount
		           THEN 1 ELSE 0 END), 0) AS paid_rows
		FROM installment_rows ir
		LEFT JOIN (
			SELECT row_id, SUM(amount_paid) AS child_total
			FROM child_payments
			GROUP BY row_id
		) cp ON cp.row_id = ir.id
		WHERE ir.contract_id IN ?
		GROUP BY ir.contract_id`, contractIDs).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		summaries[res.ContractID] = res
	}
	return summaries, nil
}

// FindSurchargeCandidates returns unpaid rows on active contracts whose due
// date is past the grace cutoff and whose surcharge was never locked.
func (r *ledgerRepository) FindSurchargeCandidates(ctx context.Context, dueBefore time.Time) ([]models.InstallmentRow, error) {
	var rows []models.InstallmentRow
	err := r.db.WithContext(ctx).
		Joins("JOIN contracts ON contracts.id = installment_rows.contract_id AND contracts.status = ?",
			models.ContractStatusActive).
		Where("installment_rows.surcharge_locked_at IS NULL").
		Where("installment_rows.installment_amount > 0").
		Where("installment_rows.due_date IS NOT NULL AND installment_rows.due_date < ?", dueBefore).
		Preload("Children").
		Order("installment_rows.due_date ASC").
		Find(&rows).Error
	return rows, err
}

// LockSurcharge fixes a row's surcharge exactly once. The guard on
// surcharge_locked_at makes a second lock attempt a no-op even if two job
// runs race.
func (r *ledgerRepository) LockSurcharge(ctx context.Context, rowID uint, amount float64) error {
	return r.db.WithContext(ctx).
		Model(&models.InstallmentRow{}).
		Where("id = ? AND surcharge_locked_at IS NULL", rowID).
		Updates(map[string]interface{}{
			"late_payment_surcharge": amount,
			"surcharge_locked_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
