package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
)

// sendBufferSize is the per-client outbound queue depth. A client that falls
// this far behind is disconnected rather than allowed to stall a broadcast.
const sendBufferSize = 64

// StatusPolicyViolation mirrors the websocket close code used when dropping
// misbehaving or lagging clients.
const StatusPolicyViolation = 1008

// Client is one authenticated socket subscriber.
type Client struct {
	// ID uniquely identifies the connection (not the account; one account
	// may hold several tabs open).
	ID string
	// Identity is the verified token identity behind the connection.
	Identity auth.Identity

	hub       *Hub
	transport Transport
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Read blocks until the client's next inbound frame.
func (c *Client) Read(ctx context.Context) ([]byte, error) {
	return c.transport.Read(ctx)
}

// Run pumps queued outbound frames onto the socket until ctx is done or the
// client is closed. Callers run it on the connection's goroutine.
//
// Postcondition: The client is unregistered from the hub on return.
func (c *Client) Run(ctx context.Context) error {
	defer c.hub.Unregister(c)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case frame := <-c.send:
			if err := c.transport.Write(ctx, frame); err != nil {
				return err
			}
		}
	}
}

// close marks the client finished. Safe to call more than once.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.transport.Close(code, reason)
	})
}

// Hub tracks connected clients and their room subscriptions and fans
// envelopes out to rooms. All methods are safe for concurrent use.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
//
// Precondition: logger must be non-nil.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register attaches a new client to the hub.
//
// Postcondition: The returned client receives broadcasts for rooms it joins
// once its Run loop is started.
func (h *Hub) Register(id string, identity auth.Identity, transport Transport) *Client {
	c := &Client{
		ID:        id,
		Identity:  identity,
		hub:       h,
		transport: transport,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("client connected",
		zap.String("client_id", id),
		zap.Int64("account_id", identity.AccountID),
	)
	return c
}

// Unregister detaches a client from the hub and all its rooms.
//
// Postcondition: The client receives no further broadcasts. Unregistering an
// unknown client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c]
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	if known {
		c.close(StatusPolicyViolation, "unregistered")
		h.logger.Debug("client disconnected", zap.String("client_id", c.ID))
	}
}

// Join subscribes a client to a room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Leave unsubscribes a client from a room. Leaving a room the client never
// joined is a no-op.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize returns the number of clients subscribed to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast marshals one event and queues it to every client in the room.
// Clients whose outbound queue is full are dropped; a lagging tab must not
// hold up the rest of the table.
//
// Postcondition: Returns the marshaling error, if any; delivery itself is
// best-effort per client.
func (h *Hub) Broadcast(room, eventType string, payload any) error {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	frame, err := env.Encode()
	if err != nil {
		return err
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	var lagging []*Client
	for _, c := range members {
		select {
		case c.send <- frame:
		default:
			lagging = append(lagging, c)
		}
	}
	for _, c := range lagging {
		h.logger.Warn("dropping lagging client",
			zap.String("client_id", c.ID),
			zap.String("room", room),
		)
		h.Unregister(c)
	}
	return nil
}

// Send queues one event to a single client, bypassing rooms. Used for
// direct replies such as the state snapshot on join.
func (h *Hub) Send(c *Client, eventType string, payload any) error {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	frame, err := env.Encode()
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
	default:
		h.logger.Warn("dropping lagging client", zap.String("client_id", c.ID))
		h.Unregister(c)
	}
	return nil
}
