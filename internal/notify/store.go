package notify

import (
	"context"

	"erp-service/internal/models"
	"erp-service/internal/repository"
)

// Store persists notifications as in-app rows.
type Store struct {
	repo repository.NotificationRepositoryInterface
}

// NewStore creates a new Store
func NewStore(repo repository.NotificationRepositoryInterface) *Store {
	return &Store{repo: repo}
}

func (s *Store) Notify(ctx context.Context, n Notification) error {
	return s.repo.Create(ctx, &models.Notification{
		UserID:       n.RecipientID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		ResourceType: n.ResourceType,
		ResourceID:   n.ResourceID,
	})
}
