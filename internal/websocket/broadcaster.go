package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Broadcaster fans committed mutations out to live connections.
type Broadcaster struct {
	hub    *Hub
	scoped bool
	logger *slog.Logger
}

// NewBroadcaster creates a Broadcaster. With scoped set, an event only goes
// to connections of the account that owns the record.
func NewBroadcaster(hub *Hub, scoped bool, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, scoped: scoped, logger: logger}
}

// Publish serialises ev once and enqueues it on every eligible connection.
// It never fails the caller; it returns how many connections accepted it.
func (b *Broadcaster) Publish(ctx context.Context, ev Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.ErrorContext(ctx, "marshal event", "error", err)
		return 0
	}

	delivered := 0
	send := func(c Conn) error {
		if ev.Origin != "" && c.ID() == ev.Origin {
			return nil
		}
		if err := c.Send(data); err != nil {
			return err
		}
		delivered++
		return nil
	}

	if b.scoped {
		b.hub.ForEachOpenFor(ev.OwnerID, send)
	} else {
		b.hub.ForEachOpen(send)
	}

	b.logger.DebugContext(ctx, "event published",
		"action", ev.Action,
		"kind", ev.Kind,
		"owner_id", ev.OwnerID,
		"delivered", delivered,
	)
	return delivered
}
