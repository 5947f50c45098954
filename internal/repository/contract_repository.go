package repository

import (
	"context"
	"strings"

	"github.com/makkaan/avenue-api/internal/models"
	"gorm.io/gorm"
)

// ContractRepository defines the interface for contract data access
type ContractRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Contract, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error)
	FindByClient(ctx context.Context, clientID uint) (*models.Contract, error)
	FindByStatus(ctx context.Context, status string) ([]models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	CreateWithDependents(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error
	Update(ctx context.Context, contract *models.Contract) error
	DeleteCascade(ctx context.Context, contract *models.Contract) error
	List(ctx context.Context, query *ContractQuery) ([]models.Contract, int64, error)
	GetStats(ctx context.Context) (*ContractStats, error)
}

// ContractQuery extends ListQuery with contract-specific filters
type ContractQuery struct {
	*ListQuery
	Status   string
	Project  string
	UnitType string
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	// Client, Unit and Creator ride a single query via Joins; Rows and their
	// children are one-to-many so they stay as Preloads.
	err := r.db.WithContext(ctx).
		Joins("Client").
		Joins("Unit").
		Joins("Creator").
		Preload("Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("sr_no ASC")
		}).
		Preload("Rows.Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindByClient returns the client's contract with full ledger detail. A
// client has at most one contract in this portal; the newest wins if data
// entry ever produced more.
func (r *contractRepository) FindByClient(ctx context.Context, clientID uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).
		Joins("Client").
		Joins("Unit").
		Preload("Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("sr_no ASC")
		}).
		Preload("Rows.Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("contracts.client_id = ?", clientID).
		Order("contracts.created_at DESC").
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByStatus(ctx context.Context, status string) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&contracts).Error
	return contracts, err
}

func (r *contractRepository) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

// CreateWithDependents persists a new client account, its unit, the contract
// and the generated schedule rows in one transaction. Either all of it lands
// or none of it does.
func (r *contractRepository) CreateWithDependents(ctx context.Context, user *models.User, unit *models.Unit, contract *models.Contract, rows []models.InstallmentRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isDuplicateKeyError(err, "users_email_key") {
				return ErrDuplicateEmail
			}
			return err
		}
		if err := tx.Create(unit).Error; err != nil {
			return err
		}

		contract.ClientID = user.ID
		contract.UnitID = unit.ID
		if err := tx.Create(contract).Error; err != nil {
			return err
		}

		for i := range rows {
			rows[i].ContractID = contract.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *contractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

// DeleteCascade removes the contract's children, rows, the contract itself,
// its unit and, when the owning account is a client, the user. Mirrors the
// admin delete action: a client account exists only to hold its contract.
func (r *contractRepository) DeleteCascade(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rowIDs := tx.Model(&models.InstallmentRow{}).
			Select("id").
			Where("contract_id = ?", contract.ID)
		if err := tx.Where("row_id IN (?)", rowIDs).Delete(&models.ChildPayment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", contract.ID).Delete(&models.InstallmentRow{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Contract{}, contract.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Unit{}, contract.UnitID).Error; err != nil {
			return err
		}

		var client models.User
		if err := tx.First(&client, contract.ClientID).Error; err == nil && client.IsClient() {
			if err := tx.Where("user_id = ?", client.ID).Delete(&models.RefreshToken{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.User{}, client.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *contractRepository) List(ctx context.Context, query *ContractQuery) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contract{})

	if query.Status != "" {
		db = db.Where("contracts.status = ?", query.Status)
	}

	// Unit filters join only when needed
	if query.Project != "" || query.UnitType != "" {
		db = db.Joins("LEFT JOIN units ON units.id = contracts.unit_id")
		if query.Project != "" {
			db = db.Where("units.project = ?", query.Project)
		}
		if query.UnitType != "" {
			db = db.Where("units.unit_type = ?", query.UnitType)
		}
	}

	// Apply search (JOINs only for filtering; associations loaded via Preload below)
	if query.Search != "" {
		search := "%" + strings.TrimSpace(query.Search) + "%"
		db = db.Joins("LEFT JOIN users ON users.id = contracts.client_id").
			Joins("LEFT JOIN units AS search_units ON search_units.id = contracts.unit_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ? OR users.cnic ILIKE ? OR search_units.unit_number ILIKE ?",
				search, search, search, search)
	}

	// Count total using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply sorting
	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("contracts.created_at DESC")
	}

	// Apply pagination
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Client").
		Preload("Unit").
		Preload("Creator").
		Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}

// ContractStats holds the count of contracts by status
type ContractStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Closed   int64 `json:"closed"`
}

func (r *contractRepository) GetStats(ctx context.Context) (*ContractStats, error) {
	stats := &ContractStats{}

	rows, err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Select("status, count(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		total += count
		switch status {
		case models.ContractStatusActive:
			stats.Active = count
		case models.ContractStatusInactive:
			stats.Inactive = count
		case models.ContractStatusClosed:
			stats.Closed = count
		}
	}
	stats.Total = total

	return stats, nil
}

// UnitRepository defines the interface for unit data access
type UnitRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
	Update(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, id uint) error
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepository) Update(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *unitRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Unit{}, id).Error
}
