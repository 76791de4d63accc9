package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"erp-service/internal/models"
	"erp-service/internal/repository"
)

const writeTimeout = 10 * time.Second

// Entry is one audited mutation.
type Entry struct {
	UserID     uuid.UUID
	Action     string
	Resource   string
	ResourceID *uuid.UUID
	Details    map[string]interface{}
	IPAddress  string
	UserAgent  string
}

// Recorder writes audit entries off the request path. A failed write is
// logged and dropped; it never fails the originating operation.
type Recorder struct {
	repo   repository.AuditRepositoryInterface
	logger *logrus.Entry
	wg     sync.WaitGroup
}

// NewRecorder creates a new Recorder
func NewRecorder(repo repository.AuditRepositoryInterface, logger *logrus.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger.WithField("component", "audit"),
	}
}

// Record schedules the write and returns immediately. Safe on a nil Recorder.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil {
		return
	}

	log := &models.AuditLog{
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
	}
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			r.logger.WithError(err).WithField("action", e.Action).Warn("Failed to encode audit details")
		} else {
			log.Details = datatypes.JSON(raw)
		}
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()

		if err := r.repo.Create(writeCtx, log); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"action":   log.Action,
				"resource": log.Resource,
				"user_id":  log.UserID,
			}).Error("Failed to write audit log")
		}
	}()
}

// Wait blocks until all scheduled writes finished.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
