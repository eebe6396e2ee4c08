package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"food-ordering-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errFlaky = errors.New("fcm unavailable")

// scriptedProvider replays a queue of results per token and records every
// send attempt.
type scriptedProvider struct {
	mu      sync.Mutex
	results map[string][]error
	sends   []string
}

func (p *scriptedProvider) Send(ctx context.Context, msg *Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends = append(p.sends, msg.Token)
	queue := p.results[msg.Token]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	p.results[msg.Token] = queue[1:]
	return err
}

func (p *scriptedProvider) sendCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends)
}

// scriptedBulkProvider adds a SendAll that applies the same scripted results
// and records batch sizes.
type scriptedBulkProvider struct {
	scriptedProvider
	batchSizes []int
}

func (p *scriptedBulkProvider) SendAll(ctx context.Context, msgs []*Message) []error {
	p.mu.Lock()
	p.batchSizes = append(p.batchSizes, len(msgs))
	p.mu.Unlock()

	results := make([]error, len(msgs))
	for i, msg := range msgs {
		p.mu.Lock()
		queue := p.results[msg.Token]
		if len(queue) > 0 {
			results[i] = queue[0]
			p.results[msg.Token] = queue[1:]
		}
		p.mu.Unlock()
	}
	return results
}

type fakeTokens struct {
	mu      sync.Mutex
	tokens  map[string][]string
	removed []string
}

func newFakeTokens(userID primitive.ObjectID, tokens ...string) *fakeTokens {
	return &fakeTokens{tokens: map[string][]string{userID.Hex(): tokens}}
}

func (f *fakeTokens) ActiveTokens(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[userID.Hex()], nil
}

func (f *fakeTokens) RemoveToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, token)
	return nil
}

func newTestTransport(provider Provider, tokens TokenStore) (*PushTransport, *[]time.Duration) {
	transport := NewPushTransport(provider, tokens)
	var sleeps []time.Duration
	transport.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return transport, &sleeps
}

func pushEvent() models.NotificationEvent {
	order := &models.Order{
		ID:             primitive.NewObjectID(),
		RestaurantID:   primitive.NewObjectID(),
		RestaurantName: "Tasty Corner",
		CustomerID:     primitive.NewObjectID(),
		TotalAmount:    100,
		Status:         models.StatusPlaced,
		Platform:       models.PlatformApp,
	}
	return models.NewNotificationEvent(order, models.EventOrderPlaced, time.Now())
}

func TestDeliverSendsToEveryActiveToken(t *testing.T) {
	userID := primitive.NewObjectID()
	provider := &scriptedProvider{results: map[string][]error{}}
	transport, sleeps := newTestTransport(provider, newFakeTokens(userID, "tok-a", "tok-b", "tok-c"))

	transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)

	assert.ElementsMatch(t, []string{"tok-a", "tok-b", "tok-c"}, provider.sends)
	assert.Empty(t, *sleeps, "successful fresh sends must not back off")
}

func TestRetryBackoffStopsAfterThreeAttempts(t *testing.T) {
	userID := primitive.NewObjectID()
	provider := &scriptedProvider{results: map[string][]error{
		"tok-a": {errFlaky, errFlaky, errFlaky, errFlaky},
	}}
	transport, sleeps := newTestTransport(provider, newFakeTokens(userID, "tok-a"))
	tokens := transport.tokens.(*fakeTokens)

	transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)

	assert.Equal(t, 3, provider.sendCount(), "a token gets at most three attempts")
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
	assert.Empty(t, tokens.removed, "transient failures never invalidate tokens")
}

func TestTransientFailureThenSuccess(t *testing.T) {
	userID := primitive.NewObjectID()
	provider := &scriptedProvider{results: map[string][]error{
		"tok-a": {errFlaky},
	}}
	transport, sleeps := newTestTransport(provider, newFakeTokens(userID, "tok-a"))

	transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)

	assert.Equal(t, 2, provider.sendCount())
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
}

func TestPermanentFailureRemovesTokenWithoutRetry(t *testing.T) {
	userID := primitive.NewObjectID()
	provider := &scriptedProvider{results: map[string][]error{
		"tok-dead": {fmt.Errorf("unregistered: %w", ErrPermanent)},
	}}
	store := newFakeTokens(userID, "tok-dead")
	transport, sleeps := newTestTransport(provider, store)

	transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)

	assert.Equal(t, 1, provider.sendCount())
	assert.Equal(t, []string{"tok-dead"}, store.removed)
	assert.Empty(t, *sleeps)
}

func TestBulkProviderBatchesAtFiveHundred(t *testing.T) {
	userID := primitive.NewObjectID()
	tokens := make([]string, 501)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%03d", i)
	}
	provider := &scriptedBulkProvider{scriptedProvider: scriptedProvider{results: map[string][]error{}}}
	transport, _ := newTestTransport(provider, newFakeTokens(userID, tokens...))

	transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)

	assert.Equal(t, []int{500, 1}, provider.batchSizes)
	assert.Zero(t, provider.sendCount(), "bulk success needs no individual sends")
}

func TestBulkFailuresRescheduleIndividually(t *testing.T) {
	userID := primitive.NewObjectID()
	provider := &scriptedBulkProvider{scriptedProvider: scriptedProvider{results: map[string][]error{
		"tok-b": {errFlaky},
	}}}
	transport, sleeps := newTestTransport(provider, newFakeTokens(userID, "tok-a", "tok-b"))

	transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)

	require.Equal(t, []int{2}, provider.batchSizes)
	assert.Equal(t, []string{"tok-b"}, provider.sends, "only the failed item is retried individually")
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps, "rescheduled items back off before the first individual attempt")
}

func TestNilProviderDropsQuietly(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeTokens(userID, "tok-a")
	transport, _ := newTestTransport(nil, store)

	assert.NotPanics(t, func() {
		transport.Deliver(context.Background(), pushEvent(), RecipientCustomer, userID)
	})
	assert.Empty(t, store.removed)
}
