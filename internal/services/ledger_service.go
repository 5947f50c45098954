package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/makkaan/avenue-api/internal/ledger"
	"github.com/makkaan/avenue-api/internal/models"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/makkaan/avenue-api/internal/storage"
	"gorm.io/gorm"
)

// LedgerService produces the reconciled ledger view and manages installment
// rows and child payments.
type LedgerService struct {
	contractRepo repository.ContractRepository
	ledgerRepo   repository.LedgerRepository
	store        *storage.LocalStorage
}

// NewLedgerService creates a new ledger service
func NewLedgerService(contractRepo repository.ContractRepository, ledgerRepo repository.LedgerRepository, store *storage.LocalStorage) *LedgerService {
	return &LedgerService{
		contractRepo: contractRepo,
		ledgerRepo:   ledgerRepo,
		store:        store,
	}
}

// LedgerView is the full reconciled ledger for one contract.
type LedgerView struct {
	Contract models.ContractResponse         `json:"contract"`
	Rows     []models.InstallmentRowResponse `json:"rows"`
	Totals   ledger.Totals                   `json:"totals"`
	Progress ledger.ProgressSummary          `json:"progress"`
}

// View returns the contract's ledger with every row reconciled against its
// recorded payments as of now.
func (s *LedgerService) View(ctx context.Context, contractID uint) (*LedgerView, error) {
	contract, err := s.contractRepo.FindByIDWithDetails(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.buildView(contract), nil
}

// ViewForClient returns the reconciled ledger for the client's own contract.
func (s *LedgerService) ViewForClient(ctx context.Context, clientID uint) (*LedgerView, error) {
	contract, err := s.contractRepo.FindByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.buildView(contract), nil
}

func (s *LedgerService) buildView(contract *models.Contract) *LedgerView {
	terms := ledger.ResolveTerms(contract.Terms())

	ledgerRows := make([]ledger.Row, len(contract.Rows))
	for i := range contract.Rows {
		ledgerRows[i] = contract.Rows[i].ToLedgerRow()
	}

	result := ledger.Reconcile(terms, ledgerRows, time.Now())
	progress := ledger.Progress(ledgerRows, len(ledgerRows), terms.TotalPayable)

	view := &LedgerView{
		Totals:   result.Totals,
		Progress: progress,
		Rows:     make([]models.InstallmentRowResponse, len(contract.Rows)),
	}

	for i := range contract.Rows {
		resp := contract.Rows[i].ToResponse()
		resp.EffectivePaid = result.Rows[i].EffectivePaid
		resp.Balance = result.Rows[i].Balance
		resp.EffectivePaymentDate = result.Rows[i].EffectivePaymentDate
		resp.LateDays = result.Rows[i].LateDays
		view.Rows[i] = resp
	}

	// The contract header goes out without rows; the reconciled rows above
	// are the authoritative copy.
	header := *contract
	header.Rows = nil
	view.Contract = header.ToResponse()
	view.Contract.Progress = &progress
	view.Contract.TotalPaid = result.Totals.TotalPaid

	return view
}

// RowInput carries the editable fields of an installment row.
type RowInput struct {
	Description       string     `json:"description"`
	InstallmentAmount float64    `json:"installment_amount"`
	DueDate           *time.Time `json:"due_date"`
	AmountPaid        float64    `json:"amount_paid"`
	PaymentDate       *time.Time `json:"payment_date"`
	InstrumentType    *string    `json:"instrument_type"`
	InstrumentNo      *string    `json:"instrument_no"`
}

// ChildInput carries the editable fields of a child payment.
type ChildInput struct {
	Description    string     `json:"description"`
	AmountPaid     float64    `json:"amount_paid"`
	PaymentDate    *time.Time `json:"payment_date"`
	InstrumentType *string    `json:"instrument_type"`
	InstrumentNo   *string    `json:"instrument_no"`
}

// CreateRow appends a new row to the contract's schedule. The serial number
// continues from the current maximum.
func (s *LedgerService) CreateRow(ctx context.Context, contractID uint, input *RowInput) (*models.InstallmentRow, error) {
	if _, err := s.contractRepo.FindByID(ctx, contractID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if input.AmountPaid < 0 || input.InstallmentAmount < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
	}

	maxSr, err := s.ledgerRepo.MaxSrNo(ctx, contractID)
	if err != nil {
		return nil, err
	}

	row := &models.InstallmentRow{
		ContractID:        contractID,
		SrNo:              maxSr + 1,
		Description:       strings.TrimSpace(input.Description),
		InstallmentAmount: input.InstallmentAmount,
		DueDate:           input.DueDate,
		AmountPaid:        input.AmountPaid,
		PaymentDate:       input.PaymentDate,
		InstrumentType:    input.InstrumentType,
		InstrumentNo:      input.InstrumentNo,
	}
	if err := s.ledgerRepo.CreateRow(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateRow edits a row's stored fields. The locked surcharge is never
// touched here; it belongs to the billing pass.
func (s *LedgerService) UpdateRow(ctx context.Context, rowID uint, input *RowInput) (*models.InstallmentRow, error) {
	row, err := s.ledgerRepo.FindRowByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if input.AmountPaid < 0 || input.InstallmentAmount < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
	}

	row.Description = strings.TrimSpace(input.Description)
	row.InstallmentAmount = input.InstallmentAmount
	row.DueDate = input.DueDate
	row.AmountPaid = input.AmountPaid
	row.PaymentDate = input.PaymentDate
	row.InstrumentType = input.InstrumentType
	row.InstrumentNo = input.InstrumentNo

	if err := s.ledgerRepo.UpdateRow(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// DeleteRow removes a row and its child payments. The stored proof file, if
// any, is removed too.
func (s *LedgerService) DeleteRow(ctx context.Context, rowID uint) error {
	row, err := s.ledgerRepo.FindRowByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.ledgerRepo.DeleteRow(ctx, rowID); err != nil {
		return err
	}
	if row.PaymentProof != nil && s.store != nil {
		s.store.Delete(*row.PaymentProof)
	}
	return nil
}

// CreateChild records a partial payment under a parent row.
func (s *LedgerService) CreateChild(ctx context.Context, rowID uint, input *ChildInput) (*models.ChildPayment, error) {
	row, err := s.ledgerRepo.FindRowByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if input.AmountPaid < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}

	maxLine := 0
	for _, child := range row.Children {
		if child.LineNo > maxLine {
			maxLine = child.LineNo
		}
	}

	child := &models.ChildPayment{
		RowID:          rowID,
		LineNo:         maxLine + 1,
		Description:    strings.TrimSpace(input.Description),
		AmountPaid:     input.AmountPaid,
		PaymentDate:    input.PaymentDate,
		InstrumentType: input.InstrumentType,
		InstrumentNo:   input.InstrumentNo,
	}
	if err := s.ledgerRepo.CreateChild(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// UpdateChild edits a child payment.
func (s *LedgerService) UpdateChild(ctx context.Context, childID uint, input *ChildInput) (*models.ChildPayment, error) {
	child, err := s.ledgerRepo.FindChildByID(ctx, childID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if input.AmountPaid < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}

	child.Description = strings.TrimSpace(input.Description)
	child.AmountPaid = input.AmountPaid
	child.PaymentDate = input.PaymentDate
	child.InstrumentType = input.InstrumentType
	child.InstrumentNo = input.InstrumentNo

	if err := s.ledgerRepo.UpdateChild(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// DeleteChild removes a child payment.
func (s *LedgerService) DeleteChild(ctx context.Context, childID uint) error {
	if _, err := s.ledgerRepo.FindChildByID(ctx, childID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.ledgerRepo.DeleteChild(ctx, childID)
}

// AttachProof stores an uploaded payment proof and links it to the row,
// replacing (and removing) any previous file.
func (s *LedgerService) AttachProof(ctx context.Context, rowID uint, file multipart.File, header *multipart.FileHeader) (*models.InstallmentRow, error) {
	row, err := s.ledgerRepo.FindRowByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if header.Size > storage.MaxFileSize() {
		return nil, fmt.Errorf("%w: file exceeds the 10MB limit", ErrValidation)
	}
	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%w: only PDF and image files are accepted", ErrValidation)
	}

	path, err := s.store.Upload(file, header, "proofs")
	if err != nil {
		return nil, err
	}

	old := row.PaymentProof
	row.PaymentProof = &path
	if err := s.ledgerRepo.UpdateRow(ctx, row); err != nil {
		s.store.Delete(path)
		return nil, err
	}
	if old != nil {
		s.store.Delete(*old)
	}
	return row, nil
}

// ProofPath resolves a row's stored proof to an absolute file path.
func (s *LedgerService) ProofPath(ctx context.Context, rowID uint) (string, error) {
	row, err := s.ledgerRepo.FindRowByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if row.PaymentProof == nil || !s.store.Exists(*row.PaymentProof) {
		return "", ErrNotFound
	}
	return s.store.GetFullPath(*row.PaymentProof), nil
}
