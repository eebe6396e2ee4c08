package notify

import (
	"context"
	"errors"
	"time"

	"food-ordering-backend/logger"
	"food-ordering-backend/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrPermanent marks provider failures that must not be retried: the
// offending token is removed instead.
var ErrPermanent = errors.New("permanent push failure")

// Message is one push notification addressed to a single device token.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Provider delivers a single push message. Implementations wrap permanent
// failures (invalid argument, unregistered token) with ErrPermanent.
type Provider interface {
	Send(ctx context.Context, msg *Message) error
}

// BulkProvider is implemented by providers that support batched sends.
type BulkProvider interface {
	SendAll(ctx context.Context, msgs []*Message) []error
}

// TokenStore resolves and prunes a user's device tokens.
type TokenStore interface {
	ActiveTokens(ctx context.Context, userID primitive.ObjectID) ([]string, error)
	RemoveToken(ctx context.Context, userID primitive.ObjectID, token string) error
}

const (
	maxRetries     = 3
	baseRetryDelay = 2 * time.Second
	batchSize      = 500
	attemptTimeout = 10 * time.Second
)

// PushTransport fans one event out to every active device token of a
// recipient, with per-token retries and token invalidation.
type PushTransport struct {
	provider Provider
	tokens   TokenStore
	sleep    func(time.Duration)
	log      zerolog.Logger
}

// NewPushTransport builds the transport. A nil provider disables push
// delivery: sends are skipped and audited as dropped.
func NewPushTransport(provider Provider, tokens TokenStore) *PushTransport {
	return &PushTransport{
		provider: provider,
		tokens:   tokens,
		sleep:    time.Sleep,
		log:      logger.With("push"),
	}
}

// Deliver sends the event to every active token of the recipient user.
// Failures never propagate to the caller; the order lifecycle is the source
// of truth and push is best-effort.
func (t *PushTransport) Deliver(ctx context.Context, event models.NotificationEvent, recipient Recipient, userID primitive.ObjectID) {
	if t.provider == nil {
		t.audit(event, recipient, "", "dropped", errors.New("push provider disabled"))
		return
	}
	tokens, err := t.tokens.ActiveTokens(ctx, userID)
	if err != nil {
		t.log.Error().Err(err).Str("user_id", userID.Hex()).Msg("token resolution failed")
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := Title(event.Kind, recipient)
	body := Body(event, recipient)
	data := DataBag(event, recipient)

	msgs := make([]*Message, 0, len(tokens))
	for _, token := range tokens {
		msgs = append(msgs, &Message{Token: token, Title: title, Body: body, Data: data})
	}

	for start := 0; start < len(msgs); start += batchSize {
		end := start + batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		t.deliverBatch(ctx, event, recipient, userID, msgs[start:end])
	}
}

// deliverBatch prefers one bulk provider call per batch; failed items are
// rescheduled individually through the retry path.
func (t *PushTransport) deliverBatch(ctx context.Context, event models.NotificationEvent, recipient Recipient, userID primitive.ObjectID, batch []*Message) {
	bulk, ok := t.provider.(BulkProvider)
	if !ok {
		for _, msg := range batch {
			t.sendWithRetry(ctx, event, recipient, userID, msg, true)
		}
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	results := bulk.SendAll(attemptCtx, batch)
	cancel()

	for i, msg := range batch {
		err := results[i]
		if err == nil {
			t.audit(event, recipient, msg.Token, "sent", nil)
			continue
		}
		if errors.Is(err, ErrPermanent) {
			t.invalidate(ctx, event, recipient, userID, msg.Token, err)
			continue
		}
		t.audit(event, recipient, msg.Token, "retried", err)
		t.sendWithRetry(ctx, event, recipient, userID, msg, false)
	}
}

// sendWithRetry attempts one token with exponential backoff (2s, 4s, 8s).
// firstAttemptFresh indicates the message has not been attempted yet.
func (t *PushTransport) sendWithRetry(ctx context.Context, event models.NotificationEvent, recipient Recipient, userID primitive.ObjectID, msg *Message, firstAttemptFresh bool) {
	delay := baseRetryDelay
	for retry := 0; ; retry++ {
		if retry > 0 || !firstAttemptFresh {
			t.sleep(delay)
			delay *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := t.provider.Send(attemptCtx, msg)
		cancel()

		if err == nil {
			t.audit(event, recipient, msg.Token, "sent", nil)
			return
		}
		if errors.Is(err, ErrPermanent) {
			t.invalidate(ctx, event, recipient, userID, msg.Token, err)
			return
		}
		if retry >= maxRetries-1 {
			t.audit(event, recipient, msg.Token, "dropped", err)
			return
		}
		t.audit(event, recipient, msg.Token, "retried", err)
	}
}

func (t *PushTransport) invalidate(ctx context.Context, event models.NotificationEvent, recipient Recipient, userID primitive.ObjectID, token string, cause error) {
	t.audit(event, recipient, token, "permanent-fail", cause)
	if err := t.tokens.RemoveToken(ctx, userID, token); err != nil {
		t.log.Error().Err(err).Str("user_id", userID.Hex()).Msg("failed to remove invalid token")
	}
}

// audit emits exactly one record per transport attempt so duplicates can be
// suppressed downstream by message id.
func (t *PushTransport) audit(event models.NotificationEvent, recipient Recipient, token, outcome string, cause error) {
	entry := t.log.Info()
	if outcome != "sent" {
		entry = t.log.Warn()
	}
	if cause != nil {
		entry = entry.Err(cause)
	}
	entry.
		Str("outcome", outcome).
		Str("message_id", event.MessageID).
		Str("kind", event.Kind).
		Str("order_id", event.OrderID.Hex()).
		Str("recipient", string(recipient)).
		Str("token_prefix", tokenPrefix(token)).
		Msg("push attempt")
}

func tokenPrefix(token string) string {
	if len(token) > 10 {
		return token[:10]
	}
	return token
}
