package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"erp-service/internal/audit"
	"erp-service/internal/models"
)

// QuoteExpirer moves overdue quotes to EXPIRED.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) ([]models.Quote, error)
}

// QuoteExpiryJob periodically expires quotes past their validity date
type QuoteExpiryJob struct {
	quotes   QuoteExpirer
	recorder *audit.Recorder
	logger   *logrus.Entry
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewQuoteExpiryJob creates a new quote expiry job
func NewQuoteExpiryJob(quotes QuoteExpirer, recorder *audit.Recorder, interval time.Duration, logger *logrus.Logger) *QuoteExpiryJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &QuoteExpiryJob{
		quotes:   quotes,
		recorder: recorder,
		logger:   logger.WithField("component", "quote_expiry_job"),
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the job until Stop is called or ctx is cancelled. It does
// nothing when Stop came first.
func (j *QuoteExpiryJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.stopped || j.started {
		j.mu.Unlock()
		return
	}
	j.started = true
	j.mu.Unlock()
	defer close(j.doneCh)

	j.logger.WithField("interval", j.interval.String()).Info("Quote expiry job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stopCh:
			j.logger.Info("Quote expiry job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Quote expiry job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop and waits for an in-flight pass to finish,
// so no audit write is scheduled after Stop returns.
func (j *QuoteExpiryJob) Stop() {
	j.mu.Lock()
	if !j.stopped {
		j.stopped = true
		close(j.stopCh)
	}
	started := j.started
	j.mu.Unlock()

	if started {
		<-j.doneCh
	}
}

// RunOnce performs a single expiry pass and returns how many quotes expired.
func (j *QuoteExpiryJob) RunOnce(ctx context.Context) int {
	j.logger.Debug("Running quote expiry check...")

	expired, err := j.quotes.ExpireOverdue(ctx)
	if err != nil {
		j.logger.WithError(err).Error("Quote expiry check failed")
	}

	for i := range expired {
		q := &expired[i]
		j.recorder.Record(ctx, audit.Entry{
			UserID:     uuid.Nil,
			Action:     models.AuditActionExpire,
			Resource:   models.ResourceQuote,
			ResourceID: &q.ID,
			Details: map[string]interface{}{
				"number": q.Number,
				"status": q.Status,
			},
		})
	}

	if len(expired) > 0 {
		j.logger.WithField("count", len(expired)).Info("Expired overdue quotes")
	} else {
		j.logger.Debug("No quotes to expire")
	}
	return len(expired)
}
