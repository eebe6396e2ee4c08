package notify

import (
	"context"
	"sync"

	"food-ordering-backend/logger"
	"food-ordering-backend/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LiveChannel sends one frame to a restaurant's dashboard, best-effort.
type LiveChannel interface {
	Send(restaurantID string, payload interface{}) error
}

// OwnerResolver maps a restaurant to its owning user.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, restaurantID primitive.ObjectID) (primitive.ObjectID, error)
}

// channelFrame is the JSON frame written to the dashboard channel.
type channelFrame struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

// Dispatcher fans a notification event out across the live-channel and push
// transports. Events for the same order are processed strictly in emission
// order; different orders proceed independently.
type Dispatcher struct {
	live   LiveChannel
	push   *PushTransport
	owners OwnerResolver

	mu     sync.Mutex
	queues map[string]*orderQueue
	wg     sync.WaitGroup

	log zerolog.Logger
}

type orderQueue struct {
	events  []models.NotificationEvent
	running bool
}

func NewDispatcher(live LiveChannel, push *PushTransport, owners OwnerResolver) *Dispatcher {
	return &Dispatcher{
		live:   live,
		push:   push,
		owners: owners,
		queues: make(map[string]*orderQueue),
		log:    logger.With("dispatcher"),
	}
}

// Dispatch enqueues the event on its order's FIFO queue and returns
// immediately. A dispatch failure never affects the persisted order state.
func (d *Dispatcher) Dispatch(event models.NotificationEvent) {
	key := event.OrderID.Hex()

	d.mu.Lock()
	q, ok := d.queues[key]
	if !ok {
		q = &orderQueue{}
		d.queues[key] = q
	}
	q.events = append(q.events, event)
	start := !q.running
	if start {
		q.running = true
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if start {
		go d.drain(key, q)
	}
}

// Wait blocks until every queued event has been processed. Used on shutdown
// and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain(key string, q *orderQueue) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(q.events) == 0 {
			q.running = false
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		event := q.events[0]
		q.events = q.events[1:]
		d.mu.Unlock()

		d.process(event)
	}
}

func (d *Dispatcher) process(event models.NotificationEvent) {
	ctx := context.Background()

	d.sendLive(event)

	if d.push == nil {
		return
	}
	ownerID, err := d.owners.OwnerOf(ctx, event.RestaurantID)
	if err != nil {
		d.log.Warn().Err(err).
			Str("restaurant_id", event.RestaurantID.Hex()).
			Str("message_id", event.MessageID).
			Msg("owner resolution failed, skipping restaurant push")
	} else {
		d.push.Deliver(ctx, event, RecipientRestaurant, ownerID)
	}
	d.push.Deliver(ctx, event, RecipientCustomer, event.CustomerID)
}

// sendLive writes one frame to the restaurant dashboard. ORDER_PLACED maps
// to the legacy "newOrder" frame type the dashboards already understand.
func (d *Dispatcher) sendLive(event models.NotificationEvent) {
	frameType := event.Kind
	if event.Kind == models.EventOrderPlaced {
		frameType = "newOrder"
	}
	err := d.live.Send(event.RestaurantID.Hex(), channelFrame{Type: frameType, Order: event.Order})

	entry := d.log.Info()
	outcome := "sent"
	if err != nil {
		entry = d.log.Warn().Err(err)
		outcome = "transient-fail"
	}
	entry.
		Str("outcome", outcome).
		Str("message_id", event.MessageID).
		Str("kind", event.Kind).
		Str("order_id", event.OrderID.Hex()).
		Str("transport", "live-channel").
		Msg("live channel attempt")
}
