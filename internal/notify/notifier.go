// Package notify delivers workflow notifications to users. The in-app store
// is the source of truth; the NATS publisher is an optional fan-out.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const deliveryTimeout = 10 * time.Second

// Notification is one message addressed to one user.
type Notification struct {
	RecipientID  uuid.UUID  `json:"recipientId"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ResourceType string     `json:"resourceType,omitempty"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Notifier delivers a notification over one channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher fans a notification out to every configured notifier on a
// background goroutine. Delivery errors are logged.
type Dispatcher struct {
	notifiers []Notifier
	logger    *logrus.Entry
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher; nil notifiers are skipped.
func NewDispatcher(logger *logrus.Logger, notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{logger: logger.WithField("component", "notify")}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

// Dispatch schedules delivery and returns immediately. Safe on a nil Dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	if d == nil || len(d.notifiers) == 0 {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()

		for _, notifier := range d.notifiers {
			if err := notifier.Notify(sendCtx, n); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					"type":         n.Type,
					"recipient_id": n.RecipientID,
				}).Warn("Failed to deliver notification")
			}
		}
	}()
}

// Wait blocks until scheduled deliveries finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
