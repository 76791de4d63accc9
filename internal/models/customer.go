package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a client company or person quotes and invoices are issued to.
type Customer struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number    string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"number"`
	Name      string     `gorm:"type:varchar(255);not null;index" json:"name"`
	Email     string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone     string     `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Address   string     `gorm:"type:text" json:"address,omitempty"`
	TaxID     string     `gorm:"type:varchar(50)" json:"taxId,omitempty"`
	ServiceID *uuid.UUID `gorm:"type:uuid;index" json:"serviceId,omitempty"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	IsActive  bool       `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Customer
func (Customer) TableName() string {
	return "customers"
}
