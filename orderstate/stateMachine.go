package orderstate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"food-ordering-backend/logger"
	"food-ordering-backend/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrOrderNotFound means no order exists with the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrConflict means the requested transition is not legal from the
	// order's current status (including any mutation of a terminal order).
	ErrConflict = errors.New("illegal order status transition")
	// ErrInvalidInput means the order fails placement validation.
	ErrInvalidInput = errors.New("invalid order input")
)

// Store persists orders. Transition must be atomic: the status moves to
// toStatus only if the current status is in fromStatuses.
type Store interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Transition(ctx context.Context, id primitive.ObjectID, fromStatuses []string, toStatus, reason string, now time.Time) (*models.Order, error)
	StalePlaced(ctx context.Context, olderThan time.Time) ([]primitive.ObjectID, error)
}

// EventSink receives a notification event after every successful transition.
type EventSink interface {
	Dispatch(event models.NotificationEvent)
}

// Machine drives orders through their lifecycle and arms the auto-cancel
// deadline for newly placed orders.
type Machine struct {
	store Store
	sink  EventSink
	now   func() time.Time

	// autoCancelAfter is models.AutoCancelAfter in production; tests shorten it.
	autoCancelAfter time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer

	log zerolog.Logger
}

func NewMachine(store Store, sink EventSink) *Machine {
	return &Machine{
		store:           store,
		sink:            sink,
		now:             time.Now,
		autoCancelAfter: models.AutoCancelAfter,
		timers:          make(map[string]*time.Timer),
		log:             logger.With("orderstate"),
	}
}

// ValidatePlacement checks the structural invariants of a new order.
func ValidatePlacement(order *models.Order) error {
	if order.RestaurantID.IsZero() {
		return errors.New("restaurant is required")
	}
	if len(order.Items) == 0 {
		return errors.New("order items are required")
	}
	for _, item := range order.Items {
		if item.MenuItemID.IsZero() || item.ItemName == "" || item.Quantity < 1 {
			return errors.New("each item must include menuItem, itemName, quantity and size")
		}
		if !models.ValidSize(item.Size) {
			return errors.New("size must be one of Small, Medium, Large or Regular")
		}
	}
	if order.TotalAmount <= 0 {
		return errors.New("valid total amount is required")
	}
	if strings.TrimSpace(order.Address) == "" {
		return errors.New("delivery address is required")
	}
	return nil
}

// Place persists a new order in state Placed, arms its auto-cancel timer and
// emits ORDER_PLACED. The caller has already resolved the restaurant and
// checked that the customer is not its owner.
func (m *Machine) Place(ctx context.Context, order *models.Order) error {
	if err := ValidatePlacement(order); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}

	now := m.now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.Status = models.StatusPlaced
	if order.Platform == "" {
		order.Platform = models.PlatformApp
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := m.store.Insert(ctx, order); err != nil {
		return err
	}

	m.armAutoCancel(order.ID)
	m.emit(order, models.EventOrderPlaced)
	m.log.Info().Str("order_id", order.ID.Hex()).Str("platform", order.Platform).Msg("order placed")
	return nil
}

// Confirm moves a Placed order to Accepted.
func (m *Machine) Confirm(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return m.transition(ctx, id, models.StatusAccepted, "")
}

// MarkReady moves an Accepted (or Preparing) order to Ready.
func (m *Machine) MarkReady(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return m.transition(ctx, id, models.StatusReady, "")
}

// Deliver moves a Ready order to Delivered.
func (m *Machine) Deliver(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return m.transition(ctx, id, models.StatusDelivered, "")
}

// Cancel moves a Placed or Accepted order to Cancelled with a reason.
func (m *Machine) Cancel(ctx context.Context, id primitive.ObjectID, reason string) (*models.Order, error) {
	return m.transition(ctx, id, models.StatusCancelled, reason)
}

func (m *Machine) transition(ctx context.Context, id primitive.ObjectID, toStatus, reason string) (*models.Order, error) {
	from := models.StatusesLeadingTo(toStatus)
	order, err := m.store.Transition(ctx, id, from, toStatus, reason, m.now())
	if err != nil {
		return nil, err
	}
	m.disarmAutoCancel(id)
	if kind := models.EventKindForStatus(toStatus); kind != "" {
		m.emit(order, kind)
	}
	m.log.Info().Str("order_id", id.Hex()).Str("status", toStatus).Msg("order transitioned")
	return order, nil
}

// AutoCancel cancels an order that is still Placed after the deadline. A
// no-op when the order progressed or vanished in the meantime, so the
// in-process timer and the scheduler watchdog can both fire safely.
func (m *Machine) AutoCancel(ctx context.Context, id primitive.ObjectID) {
	m.disarmAutoCancel(id)
	order, err := m.store.Transition(ctx, id,
		[]string{models.StatusPlaced}, models.StatusCancelled,
		models.AutoCancelReason, m.now())
	if err != nil {
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrOrderNotFound) {
			m.log.Error().Err(err).Str("order_id", id.Hex()).Msg("auto-cancel failed")
		}
		return
	}
	m.emit(order, models.EventOrderCancelled)
	m.log.Info().Str("order_id", id.Hex()).Msg("order auto-cancelled")
}

// RecoverStale applies the auto-cancel transition to every order that sat in
// Placed past the deadline. Run at startup (timers do not survive restarts)
// and periodically by the scheduler watchdog.
func (m *Machine) RecoverStale(ctx context.Context) error {
	ids, err := m.store.StalePlaced(ctx, m.now().Add(-m.autoCancelAfter))
	if err != nil {
		return err
	}
	for _, id := range ids {
		m.AutoCancel(ctx, id)
	}
	return nil
}

func (m *Machine) armAutoCancel(id primitive.ObjectID) {
	key := id.Hex()
	timer := time.AfterFunc(m.autoCancelAfter, func() {
		m.AutoCancel(context.Background(), id)
	})
	m.mu.Lock()
	if prior, ok := m.timers[key]; ok {
		prior.Stop()
	}
	m.timers[key] = timer
	m.mu.Unlock()
}

func (m *Machine) disarmAutoCancel(id primitive.ObjectID) {
	key := id.Hex()
	m.mu.Lock()
	if timer, ok := m.timers[key]; ok {
		timer.Stop()
		delete(m.timers, key)
	}
	m.mu.Unlock()
}

func (m *Machine) emit(order *models.Order, kind string) {
	snapshot := *order
	m.sink.Dispatch(models.NewNotificationEvent(&snapshot, kind, m.now()))
}
