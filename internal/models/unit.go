package models

import (
	"time"
)

// Unit represents a sellable property unit within a project
type Unit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Project    string    `gorm:"not null;index" json:"project"`
	UnitNumber string    `gorm:"not null;index" json:"unit_number"`
	UnitType   string    `json:"unit_type"`
	UnitSize   float64   `gorm:"type:decimal" json:"unit_size"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Contracts []Contract `gorm:"foreignKey:UnitID" json:"contracts,omitempty"`
}

// TableName specifies the table name for Unit
func (Unit) TableName() string {
	return "units"
}

// Unit type constants
const (
	UnitTypeApartment = "Apartment"
	UnitTypeShop      = "Shop"
	UnitTypeOffice    = "Office"
	UnitTypeFoodCourt = "Food Court"
)

// UnitResponse is the JSON response format for units
type UnitResponse struct {
	ID         uint    `json:"id"`
	Project    string  `json:"project"`
	UnitNumber string  `json:"unit_number"`
	UnitType   string  `json:"unit_type"`
	UnitSize   float64 `json:"unit_size"`
}

// ToResponse converts Unit to UnitResponse
func (u *Unit) ToResponse() UnitResponse {
	return UnitResponse{
		ID:         u.ID,
		Project:    u.Project,
		UnitNumber: u.UnitNumber,
		UnitType:   u.UnitType,
		UnitSize:   u.UnitSize,
	}
}
