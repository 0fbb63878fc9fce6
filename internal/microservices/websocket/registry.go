package websocket

import (
	"errors"
	"sync"

	"lendinghub/internal/metrics"

	"go.uber.org/zap"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
	ErrRegistryClosed = errors.New("registry closed")
)

// Conn is one live duplex connection. Send must not block: it either queues
// the frame or reports failure.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry maps a user to every live real-time connection that user has open
// (one per device/tab). All operations take the same lock, so register,
// unregister and deliver are atomic with respect to each other. Conn.Send is
// non-blocking, which keeps the critical section short.
type Registry struct {
	mu     sync.Mutex
	conns  map[int64]map[string]Conn // user id -> connection id -> connection
	closed bool
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		conns:  make(map[int64]map[string]Conn),
		logger: logger.With(zap.String("component", "ws_registry")),
	}
}

// Register adds conn to the user's set, creating the set if absent.
func (r *Registry) Register(userID int64, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]Conn)
		r.conns[userID] = set
	}
	if _, exists := set[conn.ID()]; !exists {
		set[conn.ID()] = conn
		metrics.LiveConnections.Inc()
	}
	r.logger.Debug("connection registered",
		zap.Int64("user_id", userID),
		zap.String("conn_id", conn.ID()),
		zap.Int("user_connections", len(set)),
	)
	return nil
}

// Unregister removes conn; the user's entry disappears with its last connection.
func (r *Registry) Unregister(userID int64, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(userID, conn.ID())
}

func (r *Registry) removeLocked(userID int64, connID string) bool {
	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, exists := set[connID]; !exists {
		return false
	}
	delete(set, connID)
	metrics.LiveConnections.Dec()
	if len(set) == 0 {
		delete(r.conns, userID)
	}
	r.logger.Debug("connection unregistered",
		zap.Int64("user_id", userID),
		zap.String("conn_id", connID),
	)
	return true
}

// Deliver pushes payload to every connection of userID and returns how many
// accepted it. A connection whose send fails is dropped and closed; the rest
// are still attempted. No entry for the user is a no-op.
func (r *Registry) Deliver(userID int64, payload []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return 0
	}

	delivered := 0
	var dead []Conn
	for _, conn := range set {
		if err := conn.Send(payload); err != nil {
			r.logger.Info("dropping dead connection",
				zap.Int64("user_id", userID),
				zap.String("conn_id", conn.ID()),
				zap.Error(err),
			)
			dead = append(dead, conn)
			continue
		}
		delivered++
	}

	for _, conn := range dead {
		r.removeLocked(userID, conn.ID())
		_ = conn.Close()
	}
	return delivered
}

// Connections returns the number of live connections held for userID.
func (r *Registry) Connections(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}

func (r *Registry) HasUser(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[userID]
	return ok
}

// Close closes every connection and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, set := range r.conns {
		for id, conn := range set {
			_ = conn.Close()
			metrics.LiveConnections.Dec()
			r.logger.Debug("connection closed on shutdown",
				zap.Int64("user_id", userID),
				zap.String("conn_id", id),
			)
		}
	}
	r.conns = make(map[int64]map[string]Conn)
	r.closed = true
}
