// Package liveness implements the periodic sweep (component G) that
// evicts charge point sessions which have gone quiet for too long,
// grounded on the teacher's server.Trigger ticker-loop shape (a
// select-on-ticker goroutine driving periodic per-connector work)
// repurposed from "ask every connector for a MeterValues sample" to
// "close every session that hasn't sent one".
package liveness

import (
	"context"
	"fmt"
	"time"

	"csms/internal/session"
	"csms/ocpp/core"
	"csms/ports"
)

const featureName = "Liveness"

// DefaultSweepInterval matches the original heartbeat monitor's default
// polling cadence.
const DefaultSweepInterval = 30 * time.Second

// DefaultStaleTimeout is how long a session may go without an inbound
// frame before it is considered dead.
const DefaultStaleTimeout = 90 * time.Second

// Monitor periodically scans the session registry for connections that
// have not sent anything in a while, closes them, and marks their
// connectors Unavailable in the domain core.
type Monitor struct {
	registry      *session.Registry
	service       *core.Service
	logger        core.Logger
	sweepInterval time.Duration
	staleTimeout  time.Duration

	stop chan struct{}
}

func NewMonitor(registry *session.Registry, service *core.Service, logger core.Logger) *Monitor {
	return &Monitor{
		registry:      registry,
		service:       service,
		logger:        logger,
		sweepInterval: DefaultSweepInterval,
		staleTimeout:  DefaultStaleTimeout,
		stop:          make(chan struct{}),
	}
}

func (m *Monitor) WithSweepInterval(d time.Duration) *Monitor {
	m.sweepInterval = d
	return m
}

func (m *Monitor) WithStaleTimeout(d time.Duration) *Monitor {
	m.staleTimeout = d
	return m
}

// Start launches the sweep loop in its own goroutine. Stop ends it.
func (m *Monitor) Start() {
	go m.sweep()
}

func (m *Monitor) Stop() {
	close(m.stop)
}

func (m *Monitor) sweep() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictStale()
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) evictStale() {
	for _, conn := range m.registry.All() {
		if !conn.IsStale(m.staleTimeout) {
			continue
		}
		m.logger.FeatureEvent(featureName, conn.ChargePointId, fmt.Sprintf("no activity for over %s, closing session", m.staleTimeout))
		conn.Close()
		m.registry.Unregister(conn.ChargePointId, conn)
		m.service.SetConnectivity(context.Background(), conn.ChargePointId, ports.ConnectivityOffline)
	}
}
