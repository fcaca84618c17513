package session

import (
	"hash/fnv"
	"sync"
	"time"

	"csms/internal/metrics"
)

const shardCount = 16

// DefaultDebounceWindow rejects a connection attempt from a charge point
// whose live session is younger than this, or that disconnected less than
// this long ago, grounded on
// RECONNECT_DEBOUNCE_SECS in the original session registry.
const DefaultDebounceWindow = 5 * time.Second

// RegisterOutcome reports what Registry.Register did with a connection
// attempt.
type RegisterOutcome int

const (
	// Accepted means the connection is now the active session for its
	// charge point id; no prior session existed.
	Accepted RegisterOutcome = iota
	// Replaced means a prior session existed and was evicted in favor
	// of this one; the caller should close the returned old connection.
	Replaced
	// Debounced means the charge point's live session was established, or
	// its last session ended, less than the debounce window ago, and the
	// new connection was rejected; the caller should close it.
	Debounced
)

type shard struct {
	mu             sync.Mutex
	sessions       map[string]*Connection
	lastDisconnect map[string]time.Time
}

// Registry tracks the single active Connection per charge point id,
// sharded to reduce lock contention across many concurrently connecting
// stations. A register attempt is debounced either against a still-live
// session younger than the debounce window, or against how recently the
// last session for that charge point id disconnected.
type Registry struct {
	shards         [shardCount]*shard
	debounceWindow time.Duration
}

func NewRegistry() *Registry {
	r := &Registry{debounceWindow: DefaultDebounceWindow}
	for i := range r.shards {
		r.shards[i] = &shard{
			sessions:       make(map[string]*Connection),
			lastDisconnect: make(map[string]time.Time),
		}
	}
	return r
}

func (r *Registry) WithDebounceWindow(d time.Duration) *Registry {
	r.debounceWindow = d
	return r
}

func (r *Registry) shardFor(chargePointId string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chargePointId))
	return r.shards[h.Sum32()%shardCount]
}

// Register attempts to install conn as the active session for
// chargePointId. If Debounced, old is nil and the caller must reject
// the new connection, leaving any existing session untouched. If
// Replaced, old is the evicted prior session.
func (r *Registry) Register(chargePointId string, conn *Connection) (outcome RegisterOutcome, old *Connection) {
	s := r.shardFor(chargePointId)
	s.mu.Lock()

	if existing, ok := s.sessions[chargePointId]; ok {
		if time.Since(existing.ConnectedAt) < r.debounceWindow {
			s.mu.Unlock()
			return Debounced, nil
		}
		s.sessions[chargePointId] = conn
		delete(s.lastDisconnect, chargePointId)
		s.mu.Unlock()
		metrics.ObserveConnectedStations(r.Count())
		return Replaced, existing
	}

	if last, ok := s.lastDisconnect[chargePointId]; ok {
		if elapsed := time.Since(last); elapsed < r.debounceWindow {
			s.mu.Unlock()
			return Debounced, nil
		}
	}

	s.sessions[chargePointId] = conn
	delete(s.lastDisconnect, chargePointId)
	s.mu.Unlock()
	metrics.ObserveConnectedStations(r.Count())
	return Accepted, nil
}

// Unregister removes chargePointId's session if conn is still the
// current one for it (a stale eviction from an already-replaced
// connection must not clobber the newer session or its debounce state)
// and records the disconnect time for the debounce window.
func (r *Registry) Unregister(chargePointId string, conn *Connection) {
	s := r.shardFor(chargePointId)
	s.mu.Lock()

	current, ok := s.sessions[chargePointId]
	if !ok || current != conn {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, chargePointId)
	s.lastDisconnect[chargePointId] = time.Now().UTC()
	s.mu.Unlock()
	metrics.ObserveConnectedStations(r.Count())
}

// Get returns the active connection for chargePointId, if any.
func (r *Registry) Get(chargePointId string) (*Connection, bool) {
	s := r.shardFor(chargePointId)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[chargePointId]
	return c, ok
}

// Count returns the number of active sessions across all shards, used
// to drive the ocpp_connected_stations gauge.
func (r *Registry) Count() int {
	total := 0
	for _, s := range r.shards {
		s.mu.Lock()
		total += len(s.sessions)
		s.mu.Unlock()
	}
	return total
}

// All returns a snapshot slice of active connections, used by
// internal/liveness for its periodic sweep.
func (r *Registry) All() []*Connection {
	var all []*Connection
	for _, s := range r.shards {
		s.mu.Lock()
		for _, c := range s.sessions {
			all = append(all, c)
		}
		s.mu.Unlock()
	}
	return all
}
