// Package broadcast implements the spectator fan-out hub: a registry of
// WebSocket connections with per-connection subscription filters and
// outbound queues. Delivery is advisory: a slow spectator only loses
// its own events, never delays the publisher or other spectators.
package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/dog-face/snake-game-be/internal/domain"
	"github.com/dog-face/snake-game-be/internal/metrics"
)

const commandTimeout = 5 * time.Second

// Filter is a spectator's interest: every active session, or a single
// target matched against both session and owner IDs.
type Filter struct {
	all    bool
	target uuid.UUID
}

// FilterAll subscribes to every session's events.
func FilterAll() Filter {
	return Filter{all: true}
}

// FilterTarget narrows the subscription to one player/session ID.
func FilterTarget(id uuid.UUID) Filter {
	return Filter{target: id}
}

// Matches reports whether an event passes the filter.
func (f Filter) Matches(ev domain.Event) bool {
	return f.all || f.target == ev.SessionID || f.target == ev.OwnerID
}

type client struct {
	writer *clientWriter
	filter Filter
}

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	replyChannel chan registerReply
}

type registerReply struct {
	connectionID uuid.UUID
	err          error
}

type unregisterCmd struct {
	baseHubCmd
	connectionID uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	event domain.Event
}

type setFilterCmd struct {
	baseHubCmd
	connectionID uuid.UUID
	filter       Filter
	ackType      string
	ackPayload   map[string]any
}

type sendCmd struct {
	baseHubCmd
	connectionID uuid.UUID
	data         []byte
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the broadcast actor. A single goroutine owns the connection
// registry; all access goes through the command channel, so concurrent
// registration, filter changes, and publishes never race.
type Hub struct {
	cmdCh      chan hubCmd
	clock      clockwork.Clock
	clients    map[uuid.UUID]*client
	maxClients int
	done       chan struct{}
}

// NewHub creates and starts a hub. maxClients bounds the number of
// simultaneously connected spectators.
func NewHub(clock clockwork.Clock, maxClients int) *Hub {
	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clock:      clock,
		clients:    make(map[uuid.UUID]*client),
		maxClients: maxClients,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a spectator connection with the "all sessions" filter
// and sends the connected acknowledgment carrying the connection ID.
// Past events are never replayed.
func (h *Hub) Register(conn *websocket.Conn) (uuid.UUID, error) {
	replyCh := make(chan registerReply, 1)
	select {
	case h.cmdCh <- registerCmd{connection: conn, replyChannel: replyCh}:
	case <-h.done:
		return uuid.Nil, fmt.Errorf("hub is stopped")
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.connectionID, reply.err
	case <-h.done:
		return uuid.Nil, fmt.Errorf("hub is stopped")
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection. Unknown IDs are a no-op: races with
// connection teardown are expected.
func (h *Hub) Unregister(connectionID uuid.UUID) {
	h.send(unregisterCmd{connectionID: connectionID})
}

// send enqueues a command, discarding it once the hub has stopped so
// callers never block on a channel nothing drains.
func (h *Hub) send(cmd hubCmd) {
	select {
	case h.cmdCh <- cmd:
	case <-h.done:
	}
}

// Publish fans an event out to every registered connection whose filter
// matches. It never blocks on spectator I/O; events for connections with
// full queues are dropped.
func (h *Hub) Publish(event domain.Event) {
	h.send(publishCmd{event: event})
}

// Subscribe narrows a connection's filter to a single target. Requests
// for connections already torn down are silently dropped.
func (h *Hub) Subscribe(connectionID, target uuid.UUID) {
	h.send(setFilterCmd{
		connectionID: connectionID,
		filter:       FilterTarget(target),
		ackType:      "subscribed",
		ackPayload:   map[string]any{"playerId": target.String()},
	})
}

// Unsubscribe widens a connection's filter back to all sessions.
func (h *Hub) Unsubscribe(connectionID uuid.UUID) {
	h.send(setFilterCmd{
		connectionID: connectionID,
		filter:       FilterAll(),
		ackType:      "unsubscribed",
	})
}

// Send queues a control message (pong, error) for one connection,
// serialized through the same outbound queue as events.
func (h *Hub) Send(connectionID uuid.UUID, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal control message", "error", err)
		return
	}
	h.send(sendCmd{connectionID: connectionID, data: data})
}

// ClientCount returns the number of connected spectators: 0 after the
// hub has stopped, -1 if the command times out.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	select {
	case h.cmdCh <- clientCountCmd{replyChannel: replyCh}:
	case <-h.done:
		return 0
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-h.done:
		return 0
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, sending close frames to all spectators.
// Blocks until the hub goroutine has exited; safe to call again once
// stopped.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- stopCmd{}:
	case <-h.done:
	}
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		metrics.HubCommandChannelDepth.Set(float64(len(h.cmdCh)))

		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.connectionID)
		case publishCmd:
			h.handlePublish(c.event)
		case setFilterCmd:
			h.handleSetFilter(c)
		case sendCmd:
			h.handleSend(c)
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting spectator: max clients reached", "max_clients", h.maxClients)
		c.connection.Close()
		c.replyChannel <- registerReply{err: fmt.Errorf("max spectator clients (%d) reached", h.maxClients)}
		return
	}

	connectionID := uuid.New()
	cw := newClientWriter(c.connection, h.clock)
	h.clients[connectionID] = &client{writer: cw, filter: FilterAll()}
	metrics.HubConnectedSpectators.Set(float64(len(h.clients)))

	ack, err := json.Marshal(map[string]any{
		"type":         "connected",
		"connectionId": connectionID.String(),
		"message":      "Connected to Snake Game WebSocket",
	})
	if err == nil {
		cw.enqueue(ack)
	}

	slog.Debug("Spectator registered", "connection_id", connectionID.String(), "total_clients", len(h.clients))
	c.replyChannel <- registerReply{connectionID: connectionID}
}

func (h *Hub) handleUnregister(connectionID uuid.UUID) {
	cl, ok := h.clients[connectionID]
	if !ok {
		return
	}

	cl.writer.stop()
	delete(h.clients, connectionID)
	metrics.HubConnectedSpectators.Set(float64(len(h.clients)))
	slog.Debug("Spectator unregistered", "connection_id", connectionID.String(), "remaining_clients", len(h.clients))
}

func (h *Hub) handlePublish(event domain.Event) {
	metrics.HubEventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()

	data, err := json.Marshal(envelope{
		Type:      string(event.Type),
		SessionID: event.SessionID.String(),
		PlayerID:  event.OwnerID.String(),
		Username:  event.Username,
		Data:      event.Payload,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	for connectionID, cl := range h.clients {
		if !cl.filter.Matches(event) {
			continue
		}
		if !cl.writer.enqueue(data) {
			// Queue full: drop for this spectator only.
			metrics.HubEventsDroppedTotal.Inc()
			slog.Warn("Dropping event for slow spectator",
				"connection_id", connectionID.String(),
				"event_type", event.Type,
				"session_id", event.SessionID.String(),
			)
		}
	}
}

func (h *Hub) handleSetFilter(c setFilterCmd) {
	cl, ok := h.clients[c.connectionID]
	if !ok {
		// Connection already torn down; drop silently.
		return
	}

	cl.filter = c.filter

	ack := map[string]any{"type": c.ackType}
	for k, v := range c.ackPayload {
		ack[k] = v
	}
	if data, err := json.Marshal(ack); err == nil {
		cl.writer.enqueue(data)
	}
}

func (h *Hub) handleSend(c sendCmd) {
	cl, ok := h.clients[c.connectionID]
	if !ok {
		return
	}
	cl.writer.enqueue(c.data)
}

func (h *Hub) handleStop() {
	slog.Info("Broadcast hub shutting down", "clients", len(h.clients))

	for connectionID, cl := range h.clients {
		cl.writer.stopGraceful("Server shutting down")
		delete(h.clients, connectionID)
	}
	metrics.HubConnectedSpectators.Set(0)
}

// envelope is the wire format pushed to spectators.
type envelope struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	PlayerID  string    `json:"playerId"`
	Username  string    `json:"username,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
