package models

import (
	"time"

	"github.com/makkaan/avenue-api/internal/ledger"
)

// Contract represents a client's purchase of a unit on installments
type Contract struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ClientID       uint       `gorm:"not null;index" json:"client_id"`
	UnitID         uint       `gorm:"not null;index" json:"unit_id"`
	CreatorID      *uint      `gorm:"index" json:"creator_id"`
	TotalAmount    float64    `gorm:"type:decimal;not null" json:"total_amount"`
	DownPayment    float64    `gorm:"type:decimal" json:"down_payment"`
	DownPaymentPct float64    `gorm:"type:decimal" json:"down_payment_pct"`
	PossessionPct  float64    `gorm:"type:decimal" json:"possession_pct"`
	Months         int        `gorm:"not null" json:"months"`
	Status         string     `gorm:"default:active;index" json:"status"`
	BookingDate    *time.Time `json:"booking_date"`
	StartDate      *time.Time `json:"start_date"`
	ClosedAt       *time.Time `json:"closed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// TotalPaid is filled by the list query's aggregate, not a column.
	TotalPaid float64 `gorm:"-" json:"total_paid"`

	// Associations
	Client  User             `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Unit    Unit             `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Creator *User            `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Rows    []InstallmentRow `gorm:"foreignKey:ContractID" json:"rows,omitempty"`
}

// TableName specifies the table name for Contract
func (Contract) TableName() string {
	return "contracts"
}

// Contract status constants
const (
	ContractStatusActive   = "active"
	ContractStatusInactive = "inactive"
	ContractStatusClosed   = "closed"
)

// MayActivate returns true if contract can transition to active
func (c *Contract) MayActivate() bool {
	return c.Status == ContractStatusInactive
}

// MayDeactivate returns true if contract can transition to inactive
func (c *Contract) MayDeactivate() bool {
	return c.Status == ContractStatusActive
}

// MayClose returns true if contract can be closed
func (c *Contract) MayClose() bool {
	return c.Status == ContractStatusActive
}

// MayReopen returns true if contract can be reopened
func (c *Contract) MayReopen() bool {
	return c.Status == ContractStatusClosed
}

// Terms maps the stored contract onto the resolver input
func (c *Contract) Terms() ledger.ContractTerms {
	return ledger.ContractTerms{
		TotalAmount:    c.TotalAmount,
		DownPayment:    c.DownPayment,
		DownPaymentPct: c.DownPaymentPct,
		PossessionPct:  c.PossessionPct,
		Months:         c.Months,
	}
}

// ContractResponse is the JSON response format for contracts
type ContractResponse struct {
	ID             uint                     `json:"id"`
	ClientID       uint                     `json:"client_id"`
	ClientName     string                   `json:"client_name"`
	ClientEmail    string                   `json:"client_email"`
	ClientPhone    string                   `json:"client_phone"`
	ClientCNIC     string                   `json:"client_cnic"`
	UnitID         uint                     `json:"unit_id"`
	Project        string                   `json:"project"`
	UnitNumber     string                   `json:"unit_number"`
	UnitType       string                   `json:"unit_type"`
	UnitSize       float64                  `json:"unit_size"`
	TotalAmount    float64                  `json:"total_amount"`
	DownPayment    float64                  `json:"down_payment"`
	DownPaymentPct float64                  `json:"down_payment_pct"`
	PossessionPct  float64                  `json:"possession_pct"`
	Months         int                      `json:"months"`
	Status         string                   `json:"status"`
	BookingDate    *time.Time               `json:"booking_date"`
	StartDate      *time.Time               `json:"start_date"`
	CreatedBy      string                   `json:"created_by"`
	Terms          ledger.Terms             `json:"terms"`
	TotalPaid      float64                  `json:"total_paid"`
	Progress       *ledger.ProgressSummary  `json:"progress,omitempty"`
	Rows           []InstallmentRowResponse `json:"rows,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// ToResponse converts Contract to ContractResponse. The canonical shape is
// produced here, once, at the persistence boundary; consumers never guess at
// field names.
func (c *Contract) ToResponse() ContractResponse {
	resp := ContractResponse{
		ID:             c.ID,
		ClientID:       c.ClientID,
		UnitID:         c.UnitID,
		TotalAmount:    c.TotalAmount,
		DownPayment:    c.DownPayment,
		DownPaymentPct: c.DownPaymentPct,
		PossessionPct:  c.PossessionPct,
		Months:         c.Months,
		Status:         c.Status,
		BookingDate:    c.BookingDate,
		StartDate:      c.StartDate,
		Terms:          ledger.ResolveTerms(c.Terms()),
		TotalPaid:      c.TotalPaid,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}

	// Add client info
	resp.ClientName = c.Client.FullName
	resp.ClientEmail = c.Client.Email
	resp.ClientPhone = c.Client.Phone
	resp.ClientCNIC = maskCNIC(c.Client.CNIC)

	// Add unit info
	resp.Project = c.Unit.Project
	resp.UnitNumber = c.Unit.UnitNumber
	resp.UnitType = c.Unit.UnitType
	resp.UnitSize = c.Unit.UnitSize

	if c.Creator != nil {
		resp.CreatedBy = c.Creator.FullName
	}

	for _, row := range c.Rows {
		resp.Rows = append(resp.Rows, row.ToResponse())
	}

	return resp
}
