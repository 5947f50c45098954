package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/ledger"
	"github.com/makkaan/avenue-api/internal/models"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/makkaan/avenue-api/internal/statemachine"
	"gorm.io/gorm"
)

// ClientService manages client contracts: the user account, the unit and the
// installment contract are created and deleted as one record.
type ClientService struct {
	contractRepo repository.ContractRepository
	userRepo     repository.UserRepository
	unitRepo     repository.UnitRepository
	ledgerRepo   repository.LedgerRepository
	schedule     *ScheduleService
	cfg          *config.Config
}

// NewClientService creates a new client service
func NewClientService(
	contractRepo repository.ContractRepository,
	userRepo repository.UserRepository,
	unitRepo repository.UnitRepository,
	ledgerRepo repository.LedgerRepository,
	schedule *ScheduleService,
	cfg *config.Config,
) *ClientService {
	return &ClientService{
		contractRepo: contractRepo,
		userRepo:     userRepo,
		unitRepo:     unitRepo,
		ledgerRepo:   ledgerRepo,
		schedule:     schedule,
		cfg:          cfg,
	}
}

// CreateClientInput carries everything needed to register a client: account,
// unit and contract fields in one request.
type CreateClientInput struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	CNIC     string `json:"cnic"`
	Address  string `json:"address"`
	Password string `json:"password" binding:"required,min=8"`

	Project    string  `json:"project"`
	UnitNumber string  `json:"unit_number" binding:"required"`
	UnitType   string  `json:"unit_type"`
	UnitSize   float64 `json:"unit_size"`

	TotalAmount    float64    `json:"total_amount" binding:"required,gt=0"`
	DownPayment    float64    `json:"down_payment"`
	DownPaymentPct float64    `json:"down_payment_pct"`
	PossessionPct  float64    `json:"possession_pct"`
	Months         int        `json:"months" binding:"required,gt=0"`
	BookingDate    *time.Time `json:"booking_date"`
	StartDate      *time.Time `json:"start_date"`
}

// UpdateClientInput carries a partial update; nil fields are left untouched.
type UpdateClientInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	CNIC     *string `json:"cnic"`
	Address  *string `json:"address"`

	Project    *string  `json:"project"`
	UnitNumber *string  `json:"unit_number"`
	UnitType   *string  `json:"unit_type"`
	UnitSize   *float64 `json:"unit_size"`

	BookingDate *time.Time `json:"booking_date"`
	StartDate   *time.Time `json:"start_date"`
}

// Create registers a client account, its unit and the contract, and generates
// the initial installment schedule. The whole thing lands in one transaction.
func (s *ClientService) Create(ctx context.Context, input *CreateClientInput, creatorID uint) (*models.ContractResponse, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var address *string
	if addr := strings.TrimSpace(input.Address); addr != "" {
		address = &addr
	}

	user := &models.User{
		Email:             strings.ToLower(strings.TrimSpace(input.Email)),
		EncryptedPassword: hash,
		Role:              models.RoleClient,
		FullName:          strings.TrimSpace(input.FullName),
		Phone:             strings.TrimSpace(input.Phone),
		CNIC:              strings.TrimSpace(input.CNIC),
		Address:           address,
		Status:            models.StatusActive,
		CreatedBy:         &creatorID,
	}

	project := strings.TrimSpace(input.Project)
	if project == "" {
		project = s.cfg.DefaultProject
	}
	unit := &models.Unit{
		Project:    project,
		UnitNumber: strings.TrimSpace(input.UnitNumber),
		UnitType:   strings.TrimSpace(input.UnitType),
		UnitSize:   input.UnitSize,
	}

	downPct := input.DownPaymentPct
	if input.DownPayment == 0 && downPct == 0 {
		downPct = s.cfg.DefaultDownPaymentPct
	}

	contract := &models.Contract{
		CreatorID:      &creatorID,
		TotalAmount:    input.TotalAmount,
		DownPayment:    input.DownPayment,
		DownPaymentPct: downPct,
		PossessionPct:  input.PossessionPct,
		Months:         input.Months,
		Status:         models.ContractStatusActive,
		BookingDate:    input.BookingDate,
		StartDate:      input.StartDate,
	}

	rows := s.schedule.GenerateRows(contract)

	if err := s.contractRepo.CreateWithDependents(ctx, user, unit, contract, rows); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: email is already registered", ErrDuplicate)
		}
		return nil, err
	}

	return s.Show(ctx, contract.ID)
}

// Show returns a contract with its client, unit and full schedule, plus the
// resolved terms and progress summary.
func (s *ClientService) Show(ctx context.Context, contractID uint) (*models.ContractResponse, error) {
	contract, err := s.contractRepo.FindByIDWithDetails(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp := contract.ToResponse()
	s.attachProgress(&resp, contract)
	return &resp, nil
}

// List returns a page of contracts enriched with paid totals and progress.
// The enrichment runs as one aggregate query over the page's contract IDs
// instead of re-reading each contract's ledger.
func (s *ClientService) List(ctx context.Context, query *repository.ContractQuery) ([]models.ContractResponse, int64, error) {
	contracts, total, err := s.contractRepo.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(contracts))
	for i, c := range contracts {
		ids[i] = c.ID
	}
	summaries, err := s.ledgerRepo.PaymentSummaries(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]models.ContractResponse, len(contracts))
	for i, contract := range contracts {
		summary := summaries[contract.ID]
		contract.TotalPaid = summary.AmountPaid

		resp := contract.ToResponse()
		resp.Progress = progressFromSummary(resp.Terms, summary)
		responses[i] = resp
	}

	return responses, total, nil
}

// Update applies a partial edit to the client, unit and contract dates.
// Financial terms are immutable after creation; the schedule would silently
// drift from the stored rows otherwise.
func (s *ClientService) Update(ctx context.Context, contractID uint, input *UpdateClientInput) (*models.ContractResponse, error) {
	contract, err := s.contractRepo.FindByIDWithDetails(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	client := contract.Client
	if input.FullName != nil {
		client.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		client.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.CNIC != nil {
		client.CNIC = strings.TrimSpace(*input.CNIC)
	}
	if input.Address != nil {
		client.Address = input.Address
	}
	if err := s.userRepo.Update(ctx, &client); err != nil {
		return nil, err
	}

	unit := contract.Unit
	if input.Project != nil {
		unit.Project = strings.TrimSpace(*input.Project)
	}
	if input.UnitNumber != nil {
		unit.UnitNumber = strings.TrimSpace(*input.UnitNumber)
	}
	if input.UnitType != nil {
		unit.UnitType = strings.TrimSpace(*input.UnitType)
	}
	if input.UnitSize != nil {
		unit.UnitSize = *input.UnitSize
	}
	if err := s.unitRepo.Update(ctx, &unit); err != nil {
		return nil, err
	}

	if input.BookingDate != nil {
		contract.BookingDate = input.BookingDate
	}
	if input.StartDate != nil {
		contract.StartDate = input.StartDate
	}

	contract.Client = client
	contract.Unit = unit
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, err
	}

	return s.Show(ctx, contractID)
}

// Delete removes the contract with its unit, ledger and client account.
func (s *ClientService) Delete(ctx context.Context, contractID uint) error {
	contract, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.contractRepo.DeleteCascade(ctx, contract)
}

// Stats returns contract counts by status
func (s *ClientService) Stats(ctx context.Context) (*repository.ContractStats, error) {
	return s.contractRepo.GetStats(ctx)
}

// UpdateStatus drives a contract through its state machine. Supported events:
// activate, deactivate, close, reopen.
func (s *ClientService) UpdateStatus(ctx context.Context, contractID uint, event string) (*models.ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	fsm := statemachine.NewContractFSM(contract)
	switch event {
	case "activate":
		err = fsm.Activate(ctx)
	case "deactivate":
		err = fsm.Deactivate(ctx)
	case "close":
		err = fsm.Close(ctx)
	case "reopen":
		err = fsm.Reopen(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown status event %q", ErrValidation, event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if contract.Status == models.ContractStatusClosed {
		now := time.Now()
		contract.ClosedAt = &now
	} else {
		contract.ClosedAt = nil
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, err
	}
	return s.Show(ctx, contractID)
}

// CloseSettled closes active contracts whose receivable has reached zero.
// Runs from the background worker; returns the number of contracts closed.
func (s *ClientService) CloseSettled(ctx context.Context) (int, error) {
	active, err := s.contractRepo.FindByStatus(ctx, models.ContractStatusActive)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range active {
		contract := &active[i]

		rows, err := s.ledgerRepo.FindRowsByContract(ctx, contract.ID)
		if err != nil {
			return closed, err
		}

		ledgerRows := make([]ledger.Row, len(rows))
		for j := range rows {
			ledgerRows[j] = rows[j].ToLedgerRow()
		}

		result := ledger.Reconcile(ledger.ResolveTerms(contract.Terms()), ledgerRows, time.Now())
		if result.Totals.TotalReceivable > 0 || result.Totals.TotalPaid <= 0 {
			continue
		}

		fsm := statemachine.NewContractFSM(contract)
		if err := fsm.Close(ctx); err != nil {
			continue
		}
		now := time.Now()
		contract.ClosedAt = &now
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

func (s *ClientService) validateCreate(input *CreateClientInput) error {
	if strings.TrimSpace(input.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if strings.TrimSpace(input.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if strings.TrimSpace(input.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if len(input.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if strings.TrimSpace(input.UnitNumber) == "" {
		return fmt.Errorf("%w: unit number is required", ErrValidation)
	}
	if input.TotalAmount <= 0 {
		return fmt.Errorf("%w: total amount must be greater than zero", ErrValidation)
	}
	if input.Months <= 0 {
		return fmt.Errorf("%w: months must be greater than zero", ErrValidation)
	}
	if input.DownPayment < 0 || input.DownPaymentPct < 0 || input.PossessionPct < 0 {
		return fmt.Errorf("%w: payment terms cannot be negative", ErrValidation)
	}
	return nil
}

// attachProgress fills the progress summary from the loaded schedule rows
func (s *ClientService) attachProgress(resp *models.ContractResponse, contract *models.Contract) {
	rows := make([]ledger.Row, len(contract.Rows))
	for i := range contract.Rows {
		rows[i] = contract.Rows[i].ToLedgerRow()
	}
	progress := ledger.Progress(rows, len(rows), resp.Terms.TotalPayable)
	resp.Progress = &progress
	resp.TotalPaid = progress.PaidAmount
}

// progressFromSummary builds a progress view out of the batched aggregate,
// avoiding a per-contract ledger read on list pages.
func progressFromSummary(terms ledger.Terms, summary repository.PaymentSummary) *ledger.ProgressSummary {
	percent := 0
	if summary.TotalRows > 0 {
		percent = int(float64(summary.PaidRows)/float64(summary.TotalRows)*100 + 0.5)
	} else if terms.TotalPayable > 0 {
		percent = int(summary.AmountPaid/terms.TotalPayable*100 + 0.5)
	}
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return &ledger.ProgressSummary{
		PaidCount:  summary.PaidRows,
		TotalCount: summary.TotalRows,
		PaidAmount: summary.AmountPaid,
		Percent:    percent,
	}
}
