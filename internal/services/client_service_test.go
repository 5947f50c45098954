package services

import (
	"context"
	"errors"
	"testing"

	"github.com/makkaan/avenue-api/internal/config"
	"github.com/makkaan/avenue-api/internal/models"
	"github.com/makkaan/avenue-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

// Mock ContractRepository (embedding to avoid implementing all methods)
type mockContractRepository struct {
	repository.ContractRepository
	mockFindByID             func(ctx context.Context, id uint) (*models.Contract, error)
	mockFindByIDWithDetails  func(ctx context.Context, id uint) (*models.Contract, error)
	mockCreateWithDependents func(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error
	mockUpdate               func(ctx context.Context, contract *models.Contract) error
	mockList                 func(ctx context.Context, query *repository.ContractQuery) ([]models.Contract, int64, error)
}

func (m *mockContractRepository) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, errors.New("not stubbed")
}

func (m *mockContractRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error) {
	if m.mockFindByIDWithDetails != nil {
		return m.mockFindByIDWithDetails(ctx, id)
	}
	return nil, errors.New("not stubbed")
}

func (m *mockContractRepository) CreateWithDependents(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error {
	if m.mockCreateWithDependents != nil {
		return m.mockCreateWithDependents(ctx, user, unit, contract, rows)
	}
	return nil
}

func (m *mockContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, contract)
	}
	return nil
}

func (m *mockContractRepository) List(ctx context.Context, query *repository.ContractQuery) ([]models.Contract, int64, error) {
	if m.mockList != nil {
		return m.mockList(ctx, query)
	}
	return nil, 0, nil
}

type mockLedgerRepositoryWithSummaries struct {
	repository.LedgerRepository
	mockPaymentSummaries func(ctx context.Context, contractIDs []uint) (map[uint]repository.PaymentSummary, error)
}

func (m *mockLedgerRepositoryWithSummaries) PaymentSummaries(ctx context.Context, contractIDs []uint) (map[uint]repository.PaymentSummary, error) {
	if m.mockPaymentSummaries != nil {
		return m.mockPaymentSummaries(ctx, contractIDs)
	}
	return map[uint]repository.PaymentSummary{}, nil
}

func clientConfig() *config.Config {
	return &config.Config{
		DefaultProject:        "Avenue 18",
		DefaultDownPaymentPct: 20,
	}
}

func newClientService(contractRepo repository.ContractRepository, ledgerRepo repository.LedgerRepository) *ClientService {
	return NewClientService(contractRepo, nil, nil, ledgerRepo, NewScheduleService(), clientConfig())
}

func validCreateInput() *CreateClientInput {
	return &CreateClientInput{
		FullName:    "Ali Raza",
		Email:       "  Ali.Raza@Example.COM ",
		Phone:       "0300-1234567",
		CNIC:        "35202-1234567-1",
		Password:    "secret-pass-1",
		UnitNumber:  "A-101",
		UnitType:    models.UnitTypeApartment,
		TotalAmount: 1000000,
		DownPayment: 200000,
		Months:      36,
	}
}

func TestCreateClient_Success(t *testing.T) {
	contractRepo := &mockContractRepository{}

	var capturedUser *models.User
	var capturedUnit *models.Unit
	var capturedRows []models.InstallmentRow
	contractRepo.mockCreateWithDependents = func(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error {
		capturedUser = user
		capturedUnit = unit
		capturedRows = rows
		contract.ID = 42
		return nil
	}
	contractRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Contract, error) {
		assert.Equal(t, uint(42), id)
		return &models.Contract{
			ID:          42,
			TotalAmount: 1000000,
			DownPayment: 200000,
			Months:      36,
			Status:      models.ContractStatusActive,
			Client:      models.User{FullName: "Ali Raza", Email: "ali.raza@example.com"},
			Unit:        models.Unit{Project: "Avenue 18", UnitNumber: "A-101"},
		}, nil
	}

	svc := newClientService(contractRepo, &mockLedgerRepositoryWithSummaries{})
	resp, err := svc.Create(context.Background(), validCreateInput(), 1)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, uint(42), resp.ID)

	// Email is normalized, role forced to client
	assert.Equal(t, "ali.raza@example.com", capturedUser.Email)
	assert.Equal(t, models.RoleClient, capturedUser.Role)
	assert.NotEqual(t, "secret-pass-1", capturedUser.EncryptedPassword)

	// Unit falls back to the default project
	assert.Equal(t, "Avenue 18", capturedUnit.Project)

	// Schedule generated: down payment + 36 installments
	assert.Len(t, capturedRows, 37)
	assert.Equal(t, "Down Payment", capturedRows[0].Description)
}

func TestCreateClient_ValidationErrors(t *testing.T) {
	svc := newClientService(&mockContractRepository{}, &mockLedgerRepositoryWithSummaries{})

	cases := []struct {
		name   string
		mutate func(*CreateClientInput)
	}{
		{"missing name", func(in *CreateClientInput) { in.FullName = "  " }},
		{"missing email", func(in *CreateClientInput) { in.Email = "" }},
		{"missing phone", func(in *CreateClientInput) { in.Phone = "" }},
		{"short password", func(in *CreateClientInput) { in.Password = "short" }},
		{"missing unit number", func(in *CreateClientInput) { in.UnitNumber = "" }},
		{"zero total", func(in *CreateClientInput) { in.TotalAmount = 0 }},
		{"zero months", func(in *CreateClientInput) { in.Months = 0 }},
		{"negative down payment", func(in *CreateClientInput) { in.DownPayment = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(input)
			_, err := svc.Create(context.Background(), input, 1)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateClient_DuplicateEmail(t *testing.T) {
	contractRepo := &mockContractRepository{}
	contractRepo.mockCreateWithDependents = func(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error {
		return repository.ErrDuplicateEmail
	}

	svc := newClientService(contractRepo, &mockLedgerRepositoryWithSummaries{})
	_, err := svc.Create(context.Background(), validCreateInput(), 1)

	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateClient_DefaultDownPaymentPct(t *testing.T) {
	contractRepo := &mockContractRepository{}

	var capturedContract *models.Contract
	contractRepo.mockCreateWithDependents = func(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error {
		capturedContract = contract
		contract.ID = 1
		return nil
	}
	contractRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Contract, error) {
		return &models.Contract{ID: 1}, nil
	}

	input := validCreateInput()
	input.DownPayment = 0
	input.DownPaymentPct = 0

	svc := newClientService(contractRepo, &mockLedgerRepositoryWithSummaries{})
	_, err := svc.Create(context.Background(), input, 1)

	assert.NoError(t, err)
	assert.Equal(t, 20.0, capturedContract.DownPaymentPct)
}

func TestListClients_EnrichesWithSummaries(t *testing.T) {
	contractRepo := &mockContractRepository{}
	contractRepo.mockList = func(ctx context.Context, query *repository.ContractQuery) ([]models.Contract, int64, error) {
		return []models.Contract{
			{ID: 1, TotalAmount: 1000000, DownPayment: 200000, Months: 36},
			{ID: 2, TotalAmount: 500000, Months: 10},
		}, 2, nil
	}

	ledgerRepo := &mockLedgerRepositoryWithSummaries{}
	ledgerRepo.mockPaymentSummaries = func(ctx context.Context, contractIDs []uint) (map[uint]repository.PaymentSummary, error) {
		assert.ElementsMatch(t, []uint{1, 2}, contractIDs)
		return map[uint]repository.PaymentSummary{
			1: {ContractID: 1, TotalRows: 37, PaidRows: 18, AmountPaid: 400000},
		}, nil
	}

	svc := newClientService(contractRepo, ledgerRepo)
	responses, total, err := svc.List(context.Background(), &repository.ContractQuery{ListQuery: repository.NewListQuery()})

	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, responses, 2)

	assert.Equal(t, 400000.0, responses[0].TotalPaid)
	assert.NotNil(t, responses[0].Progress)
	assert.Equal(t, 18, responses[0].Progress.PaidCount)
	// 18/37 = 48.6% → 49
	assert.Equal(t, 49, responses[0].Progress.Percent)

	// Contract without a summary gets zeroed progress, not a nil panic
	assert.NotNil(t, responses[1].Progress)
	assert.Equal(t, 0.0, responses[1].TotalPaid)
}

func TestUpdateStatus_UnknownEvent(t *testing.T) {
	contractRepo := &mockContractRepository{}
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return &models.Contract{ID: 1, Status: models.ContractStatusActive}, nil
	}

	svc := newClientService(contractRepo, &mockLedgerRepositoryWithSummaries{})
	_, err := svc.UpdateStatus(context.Background(), 1, "archive")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	contractRepo := &mockContractRepository{}
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return &models.Contract{ID: 1, Status: models.ContractStatusClosed}, nil
	}

	svc := newClientService(contractRepo, &mockLedgerRepositoryWithSummaries{})
	_, err := svc.UpdateStatus(context.Background(), 1, "close")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateStatus_CloseSetsClosedAt(t *testing.T) {
	contractRepo := &mockContractRepository{}
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return &models.Contract{ID: 1, Status: models.ContractStatusActive}, nil
	}

	var updated *models.Contract
	contractRepo.mockUpdate = func(ctx context.Context, contract *models.Contract) error {
		updated = contract
		return nil
	}
	contractRepo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Contract, error) {
		return &models.Contract{ID: 1, Status: models.ContractStatusClosed}, nil
	}

	svc := newClientService(contractRepo, &mockLedgerRepositoryWithSummaries{})
	resp, err := svc.UpdateStatus(context.Background(), 1, "close")

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusClosed, updated.Status)
	assert.NotNil(t, updated.ClosedAt)
	assert.Equal(t, models.ContractStatusClosed, resp.Status)
}
