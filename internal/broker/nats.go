// internal/broker/nats.go
package broker

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSMirror republishes hub traffic on NATS so other services can follow
// rooms without holding a websocket.
type NATSMirror struct {
	nc     *nats.Conn
	prefix string
	log    *logrus.Entry
}

// ConnectNATS dials url and returns a mirror publishing under prefix.
func ConnectNATS(url, prefix string, logger *logrus.Logger) (*NATSMirror, error) {
	entry := logger.WithField("component", "nats")
	opts := []nats.Option{
		nats.Name("spotdiff-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			entry.WithError(err).Error("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSMirror{nc: nc, prefix: prefix, log: entry}, nil
}

// Subject joins the prefix and tokens with dots.
func Subject(prefix string, tokens ...string) string {
	parts := append([]string{prefix}, tokens...)
	return strings.Join(parts, ".")
}

// Mirror publishes data on prefix.subject. Failures are logged, never returned.
func (m *NATSMirror) Mirror(subject string, data []byte) {
	if err := m.nc.Publish(Subject(m.prefix, subject), data); err != nil {
		m.log.WithError(err).Warnf("mirror %s", subject)
	}
}

// Close drains pending messages and closes the connection.
func (m *NATSMirror) Close() {
	if err := m.nc.Drain(); err != nil {
		m.log.WithError(err).Warn("NATS drain")
	}
}
