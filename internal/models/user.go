package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"erp-service/internal/rbac"
)

// User is an employee account. Role and service drive authorization.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName     string     `gorm:"type:varchar(100);not null" json:"lastName"`
	Role         rbac.Role  `gorm:"type:varchar(30);not null;index" json:"role"`
	ServiceID    *uuid.UUID `gorm:"type:uuid;index" json:"serviceId,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"isActive"`

	// CustomPermissions replaces the role default when non-NULL.
	CustomPermissions pq.StringArray `gorm:"type:text[]" json:"customPermissions,omitempty"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Principal derives the request identity from the stored account.
func (u *User) Principal() rbac.Principal {
	var override []string
	if u.CustomPermissions != nil {
		override = []string(u.CustomPermissions)
	}
	return rbac.Principal{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        u.Role,
		ServiceID:   u.ServiceID,
		Permissions: rbac.EffectivePermissions(u.Role, override),
	}
}
