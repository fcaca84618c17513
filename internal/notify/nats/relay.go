// Package nats relays domain events onto a NATS subject for
// out-of-process consumers, grounded on the notification-forwarding
// half of adolfosan-electromobility-centralsystem's
// natsCentralSystemNotifier: a goroutine draining a channel and
// publishing each item's JSON encoding onto a connection. The
// request/reply command half of that teacher's notifier is not
// adapted here — ocpp/dispatch is this module's outbound command path,
// so a second, redundant NATS-driven command intake would duplicate it
// rather than serve a distinct concern.
package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"csms/internal/eventbus"
	"csms/ocpp/core"
)

// Relay forwards every event it receives from a subscription onto a
// single NATS subject as JSON.
type Relay struct {
	conn    *nats.Conn
	subject string
	logger  core.Logger
}

func Connect(url, subject string, logger core.Logger) (*Relay, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", url, err)
	}
	return &Relay{conn: conn, subject: subject, logger: logger}, nil
}

// Run blocks, publishing each event from sub until it is closed.
func (r *Relay) Run(sub *eventbus.Subscription) {
	for event := range sub.Events() {
		data, err := json.Marshal(event)
		if err != nil {
			r.logger.Error("nats: encoding event", err)
			continue
		}
		if err := r.conn.Publish(r.subject, data); err != nil {
			r.logger.Error("nats: publishing event", err)
		}
	}
}

func (r *Relay) Close() {
	r.conn.Close()
}
