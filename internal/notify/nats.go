package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectPrefix is prepended to the notification type.
const SubjectPrefix = "erp.notifications."

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(url string, logger *logrus.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("erp-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.WithField("url", c.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes notifications as JSON on erp.notifications.<type>.
type NATSPublisher struct {
	conn publisher
}

// NewNATSPublisher wraps an open connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Notify(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := p.conn.Publish(SubjectPrefix+n.Type, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
