package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

// NotificationList is a page of notifications plus the unread counter.
type NotificationList struct {
	*ListResult[models.Notification]
	Unread int64 `json:"unread"`
}

// NotificationService reads and acknowledges the caller's own notifications.
type NotificationService struct {
	repo repository.NotificationRepositoryInterface
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo repository.NotificationRepositoryInterface) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, p rbac.Principal, unreadOnly bool, page repository.Page) (*NotificationList, error) {
	page = page.Normalize()
	items, total, err := s.repo.ListForUser(ctx, p.UserID, unreadOnly, page)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	unread, err := s.repo.CountUnread(ctx, p.UserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &NotificationList{ListResult: newListResult(items, total, page), Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, p rbac.Principal, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, p.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Notification not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, p rbac.Principal) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, p.UserID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
