package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"food-ordering-backend/models"
	"food-ordering-backend/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// recordingChannel captures every frame sent per restaurant, in order.
type recordingChannel struct {
	mu     sync.Mutex
	frames []channelFrame
	err    error
}

func (c *recordingChannel) Send(restaurantID string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, payload.(channelFrame))
	return nil
}

func (c *recordingChannel) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	for i, f := range c.frames {
		out[i] = f.Type
	}
	return out
}

type staticOwner struct {
	owner primitive.ObjectID
}

func (s staticOwner) OwnerOf(ctx context.Context, restaurantID primitive.ObjectID) (primitive.ObjectID, error) {
	return s.owner, nil
}

func eventFor(order *models.Order, kind string) models.NotificationEvent {
	return models.NewNotificationEvent(order, kind, time.Now())
}

func TestDispatchPreservesPerOrderOrdering(t *testing.T) {
	live := &recordingChannel{}
	d := NewDispatcher(live, nil, staticOwner{})

	order := &models.Order{
		ID:           primitive.NewObjectID(),
		RestaurantID: primitive.NewObjectID(),
		CustomerID:   primitive.NewObjectID(),
	}

	d.Dispatch(eventFor(order, models.EventOrderPlaced))
	d.Dispatch(eventFor(order, models.EventOrderConfirmed))
	d.Dispatch(eventFor(order, models.EventOrderReady))
	d.Dispatch(eventFor(order, models.EventOrderDelivered))
	d.Wait()

	assert.Equal(t,
		[]string{"newOrder", models.EventOrderConfirmed, models.EventOrderReady, models.EventOrderDelivered},
		live.types())
}

func TestDispatchMapsPlacedToLegacyNewOrderFrame(t *testing.T) {
	live := &recordingChannel{}
	d := NewDispatcher(live, nil, staticOwner{})

	order := &models.Order{ID: primitive.NewObjectID(), RestaurantID: primitive.NewObjectID()}
	d.Dispatch(eventFor(order, models.EventOrderPlaced))
	d.Wait()

	require.Len(t, live.frames, 1)
	assert.Equal(t, "newOrder", live.frames[0].Type)
	assert.Equal(t, order.ID, live.frames[0].Order.ID)
}

func TestDispatchSurvivesDisconnectedDashboard(t *testing.T) {
	live := &recordingChannel{err: registry.ErrNotConnected}
	d := NewDispatcher(live, nil, staticOwner{})

	order := &models.Order{ID: primitive.NewObjectID(), RestaurantID: primitive.NewObjectID()}
	assert.NotPanics(t, func() {
		d.Dispatch(eventFor(order, models.EventOrderPlaced))
		d.Wait()
	})
}

func TestDispatchWithDisabledProviderStillProcesses(t *testing.T) {
	customerID := primitive.NewObjectID()
	push, sleeps := newTestTransport(nil, newFakeTokens(customerID, "tok-customer"))

	live := &recordingChannel{}
	d := NewDispatcher(live, push, staticOwner{owner: primitive.NewObjectID()})

	order := &models.Order{
		ID:           primitive.NewObjectID(),
		RestaurantID: primitive.NewObjectID(),
		CustomerID:   customerID,
	}
	d.Dispatch(eventFor(order, models.EventOrderPlaced))
	d.Wait()

	assert.Equal(t, []string{"newOrder"}, live.types(), "live delivery is unaffected by a disabled push provider")
	assert.Empty(t, *sleeps)
}

func TestDispatchFansOutPushToBothRecipients(t *testing.T) {
	ownerID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	provider := &scriptedProvider{results: map[string][]error{}}
	tokens := &fakeTokens{tokens: map[string][]string{
		ownerID.Hex():    {"tok-owner"},
		customerID.Hex(): {"tok-customer"},
	}}
	push, _ := newTestTransport(provider, tokens)

	live := &recordingChannel{}
	d := NewDispatcher(live, push, staticOwner{owner: ownerID})

	order := &models.Order{
		ID:           primitive.NewObjectID(),
		RestaurantID: primitive.NewObjectID(),
		CustomerID:   customerID,
	}
	d.Dispatch(eventFor(order, models.EventOrderPlaced))
	d.Wait()

	assert.ElementsMatch(t, []string{"tok-owner", "tok-customer"}, provider.sends)
}
