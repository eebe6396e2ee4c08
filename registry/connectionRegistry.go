package registry

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"food-ordering-backend/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Close codes used on the dashboard channel.
const (
	CloseAuthFailure = 4001
	CloseForbidden   = 4003
)

const (
	// sendQueueSize bounds the per-channel outbound queue. Overflow drops
	// the oldest undelivered frame.
	sendQueueSize = 64
	writeWait     = 10 * time.Second
)

var ErrNotConnected = errors.New("restaurant has no live channel")

// Channel is one live dashboard connection.
type Channel struct {
	ID           string
	RestaurantID string
	OwnerUserID  string

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// isAlive is guarded by the registry mutex.
	isAlive bool
}

// Enqueue places a frame on the outbound queue without blocking. When the
// queue is full the oldest frame is dropped to make room.
func (ch *Channel) Enqueue(frame []byte) (dropped bool) {
	for {
		select {
		case ch.send <- frame:
			return dropped
		default:
		}
		select {
		case <-ch.send:
			dropped = true
		default:
		}
	}
}

func (ch *Channel) terminate() {
	ch.closeOnce.Do(func() {
		close(ch.done)
		ch.conn.Close()
	})
}

// closeWith sends a close frame before tearing the connection down.
func (ch *Channel) closeWith(code int, reason string) {
	deadline := time.Now().Add(writeWait)
	ch.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	ch.terminate()
}

// inboundMessage is the only client frame shape the registry understands.
type inboundMessage struct {
	Type string `json:"type"`
}

// MessageHandler receives inbound frames the registry does not consume
// itself.
type MessageHandler func(restaurantID string, raw []byte)

// Registry tracks live dashboard channels keyed by restaurant id. At most
// one channel exists per restaurant; a newer connection supersedes the
// older one.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*Channel

	onMessage MessageHandler
	dropped   atomic.Int64
	log       zerolog.Logger
}

func New() *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
		log:      logger.With("registry"),
	}
}

// SetMessageHandler installs the application handler for frames other than
// ping. Dashboards currently send nothing else, so the default is a no-op.
func (r *Registry) SetMessageHandler(h MessageHandler) {
	r.onMessage = h
}

// Attach registers an authenticated connection for a restaurant, closing any
// prior channel with code 1000 first, and starts its read/write pumps. The
// caller has already performed the upgrade and the auth checks.
func (r *Registry) Attach(conn *websocket.Conn, restaurantID, ownerUserID string) *Channel {
	ch := &Channel{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		OwnerUserID:  ownerUserID,
		conn:         conn,
		send:         make(chan []byte, sendQueueSize),
		done:         make(chan struct{}),
		isAlive:      true,
	}

	conn.SetPongHandler(func(string) error {
		r.mu.Lock()
		ch.isAlive = true
		r.mu.Unlock()
		return nil
	})

	// The prior channel is replaced in the same critical section that inserts
	// the new one, so concurrent attaches can never leave a displaced channel
	// in the map or drop one without closing it.
	r.mu.Lock()
	prior := r.channels[restaurantID]
	r.channels[restaurantID] = ch
	r.mu.Unlock()

	if prior != nil {
		prior.closeWith(websocket.CloseNormalClosure, "superseded")
		r.log.Info().Str("restaurant_id", restaurantID).Str("channel_id", prior.ID).Msg("channel superseded")
	}

	confirmed, _ := json.Marshal(map[string]string{
		"type":    "connectionConfirmed",
		"message": "Successfully connected to dashboard channel",
	})
	ch.Enqueue(confirmed)

	go r.writePump(ch)
	go r.readPump(ch)

	r.log.Info().Str("restaurant_id", restaurantID).Str("channel_id", ch.ID).Msg("dashboard connected")
	return ch
}

// Detach removes a channel if it is still the registered one for its
// restaurant, then tears it down.
func (r *Registry) Detach(restaurantID string, ch *Channel) {
	r.mu.Lock()
	if current, ok := r.channels[restaurantID]; ok && current == ch {
		delete(r.channels, restaurantID)
	}
	r.mu.Unlock()
	ch.terminate()
}

// Lookup returns the live channel for a restaurant, if any.
func (r *Registry) Lookup(restaurantID string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[restaurantID]
	return ch, ok
}

// Send marshals the payload and enqueues it on the restaurant's channel.
// Returns ErrNotConnected when no channel is registered; delivery past the
// queue is best-effort.
func (r *Registry) Send(restaurantID string, payload interface{}) error {
	ch, ok := r.Lookup(restaurantID)
	if !ok {
		return ErrNotConnected
	}
	frame, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if ch.Enqueue(frame) {
		r.dropped.Add(1)
		r.log.Warn().Str("restaurant_id", restaurantID).Msg("send queue overflow, dropped oldest frame")
	}
	return nil
}

// HeartbeatSweep terminates channels that did not pong since the previous
// sweep and pings the rest. Driven by the scheduler every 30 seconds.
// Dead channels are removed under the same lock that closes their socket,
// so Lookup never returns a zombie.
func (r *Registry) HeartbeatSweep() {
	var alive []*Channel

	r.mu.Lock()
	for restaurantID, ch := range r.channels {
		if !ch.isAlive {
			delete(r.channels, restaurantID)
			ch.terminate()
			r.log.Info().Str("restaurant_id", restaurantID).Str("channel_id", ch.ID).Msg("terminated unresponsive channel")
			continue
		}
		ch.isAlive = false
		alive = append(alive, ch)
	}
	r.mu.Unlock()

	for _, ch := range alive {
		deadline := time.Now().Add(writeWait)
		if err := ch.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			r.Detach(ch.RestaurantID, ch)
		}
	}
}

// Count returns the number of live channels.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// Dropped returns the total number of frames dropped to queue overflow.
func (r *Registry) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Registry) writePump(ch *Channel) {
	for {
		select {
		case frame := <-ch.send:
			ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ch.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				r.Detach(ch.RestaurantID, ch)
				return
			}
		case <-ch.done:
			return
		}
	}
}

func (r *Registry) readPump(ch *Channel) {
	defer r.Detach(ch.RestaurantID, ch)
	for {
		_, raw, err := ch.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			r.log.Warn().Str("channel_id", ch.ID).Err(err).Msg("unparseable frame, closing channel")
			return
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			ch.Enqueue(pong)
			continue
		}
		if r.onMessage != nil {
			r.onMessage(ch.RestaurantID, raw)
		}
	}
}
