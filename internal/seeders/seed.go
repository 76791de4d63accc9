package seeders

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-service/internal/auth"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
)

// DefaultServiceName is the organizational service created on first boot.
const DefaultServiceName = "General"

// AdminAccount describes the bootstrap administrator.
type AdminAccount struct {
	Email    string
	Password string
}

// SeedDefaultService creates the default organizational service if missing.
func SeedDefaultService(db *gorm.DB, logger *logrus.Logger) error {
	svc := models.Service{
		Name:        DefaultServiceName,
		Description: "Default organizational service",
		IsActive:    true,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&svc)
	if result.Error != nil {
		return fmt.Errorf("failed to seed service %s: %w", svc.Name, result.Error)
	}
	if result.RowsAffected > 0 {
		logger.WithField("service", svc.Name).Info("Seeded default service")
	}
	return nil
}

// SeedAdmin creates the bootstrap ADMIN account. Existing accounts with the
// same email are left untouched so a changed password is never overwritten.
func SeedAdmin(db *gorm.DB, account AdminAccount, logger *logrus.Logger) error {
	email := strings.ToLower(strings.TrimSpace(account.Email))
	if email == "" || account.Password == "" {
		logger.Info("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	if len(account.Password) < auth.MinPasswordLength {
		return fmt.Errorf("admin password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(account.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         rbac.RoleAdmin,
		IsActive:     true,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&admin)
	if result.Error != nil {
		return fmt.Errorf("failed to seed admin %s: %w", email, result.Error)
	}
	if result.RowsAffected > 0 {
		logger.WithField("email", email).Info("Seeded admin account")
	}
	return nil
}

// Run applies every seeder in order.
func Run(db *gorm.DB, admin AdminAccount, logger *logrus.Logger) error {
	if err := SeedDefaultService(db, logger); err != nil {
		return err
	}
	return SeedAdmin(db, admin, logger)
}
