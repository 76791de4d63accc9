package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"erp-service/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict means a conditional update matched no row because the
	// record was no longer in the expected state.
	ErrStatusConflict = errors.New("status conflict - record was modified by another request")
	ErrDuplicate      = errors.New("duplicate key")
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Service{},
		&models.User{},
		&models.Customer{},
		&models.SequenceCounter{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.QuoteApproval{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.AuditLog{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
