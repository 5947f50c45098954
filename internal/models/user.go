package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a portal account: an acquisition administrator or a client.
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string     `gorm:"column:encrypted_password;not null" json:"-"`
	Role              string     `gorm:"default:client;index" json:"role"`
	FullName          string     `json:"full_name"`
	Phone             string     `json:"phone"`
	CNIC              string     `gorm:"column:cnic" json:"cnic"`
	Address           *string    `json:"address"`
	Status            string     `gorm:"default:active" json:"status"`
	CreatedBy         *uint      `json:"created_by"`
	DiscardedAt       *time.Time `gorm:"index" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Creator   *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Contracts []Contract `gorm:"foreignKey:ClientID" json:"contracts,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleClient
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// IsAcquisition returns true if the user is an acquisition administrator
func (u *User) IsAcquisition() bool {
	return u.Role == RoleAcquisition
}

// IsClient returns true if the user is a portal client
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// IsActive returns true if user status is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// Role constants
const (
	RoleAcquisition = "acquisition"
	RoleClient      = "client"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	CNIC      string    `json:"cnic"`
	Address   *string   `json:"address"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		CNIC:      maskCNIC(u.CNIC),
		Address:   u.Address,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// maskCNIC hides the middle digits of a national identity number
func maskCNIC(cnic string) string {
	if len(cnic) <= 4 {
		masked := ""
		for range cnic {
			masked += "*"
		}
		return masked
	}
	masked := cnic[:4]
	for i := 4; i < len(cnic)-3; i++ {
		masked += "*"
	}
	masked += cnic[len(cnic)-3:]
	return masked
}
