package websocket

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrSendBufferFull = errors.New("websocket: send buffer full")
	ErrConnClosed     = errors.New("websocket: connection closed")
)

// Conn is one live sync connection as the hub sees it.
type Conn interface {
	ID() string
	AccountID() string
	// Send enqueues msg without blocking.
	Send(msg []byte) error
	Close() error
}

// Hub is the registry of open connections, indexed by connection id and by
// owning account.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]Conn
	byAccount map[string]map[string]Conn
	logger    *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:     make(map[string]Conn),
		byAccount: make(map[string]map[string]Conn),
		logger:    logger,
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	acct := h.byAccount[c.AccountID()]
	if acct == nil {
		acct = make(map[string]Conn)
		h.byAccount[c.AccountID()] = acct
	}
	acct[c.ID()] = c
	h.mu.Unlock()

	h.logger.Debug("connection registered", "conn_id", c.ID(), "account_id", c.AccountID())
}

// Unregister removes a connection and closes it. Unknown or already removed
// connections are ignored.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	cur, ok := h.conns[c.ID()]
	if ok && cur == c {
		delete(h.conns, c.ID())
		if acct := h.byAccount[c.AccountID()]; acct != nil {
			delete(acct, c.ID())
			if len(acct) == 0 {
				delete(h.byAccount, c.AccountID())
			}
		}
	}
	h.mu.Unlock()

	if !ok || cur != c {
		return
	}
	if err := c.Close(); err != nil {
		h.logger.Debug("close connection", "conn_id", c.ID(), "error", err)
	}
	h.logger.Debug("connection unregistered", "conn_id", c.ID(), "account_id", c.AccountID())
}

// ForEachOpen calls fn for every registered connection. A connection for
// which fn fails is unregistered; the error goes no further.
func (h *Hub) ForEachOpen(fn func(Conn) error) {
	h.mu.RLock()
	snapshot := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	h.each(snapshot, fn)
}

// ForEachOpenFor is ForEachOpen restricted to one account's connections.
func (h *Hub) ForEachOpenFor(accountID string, fn func(Conn) error) {
	h.mu.RLock()
	acct := h.byAccount[accountID]
	snapshot := make([]Conn, 0, len(acct))
	for _, c := range acct {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	h.each(snapshot, fn)
}

func (h *Hub) each(conns []Conn, fn func(Conn) error) {
	for _, c := range conns {
		if err := fn(c); err != nil {
			h.logger.Warn("dropping connection", "conn_id", c.ID(), "account_id", c.AccountID(), "error", err)
			h.Unregister(c)
		}
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CountFor returns the number of open connections owned by an account.
func (h *Hub) CountFor(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byAccount[accountID])
}
