package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"erp-service/internal/apperrors"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

const dateLayout = "2006-01-02"

// ListResult is a page of items with the total before paging.
type ListResult[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func newListResult[T any](items []T, total int64, page repository.Page) *ListResult[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return &ListResult[T]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}
}

// notFoundOr maps repository.ErrNotFound to a NotFound error with message and
// wraps anything else as internal.
func notFoundOr(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(message)
	}
	return apperrors.Internal(err)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.Validation("Validation failed", fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return t, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// listScope returns the list filter matching RequireServiceScope: the
// principal's service plus unassigned rows, or only unassigned rows when the
// principal has no service.
func listScope(p rbac.Principal) (serviceID *uuid.UUID, sharedOnly bool) {
	if p.ServiceID == nil {
		return nil, true
	}
	return p.ServiceID, false
}

func formatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}
