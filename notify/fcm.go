package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"food-ordering-backend/logger"
)

// FCMProvider delivers push messages through Firebase Cloud Messaging.
type FCMProvider struct {
	client *messaging.Client
}

// NewFCMProviderFromEnv initializes Firebase from FIREBASE_PROJECT_ID,
// FIREBASE_PRIVATE_KEY and FIREBASE_CLIENT_EMAIL. Returns (nil, nil) when
// the credentials are absent so the caller can run with push disabled.
func NewFCMProviderFromEnv(ctx context.Context) (*FCMProvider, error) {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	privateKey := os.Getenv("FIREBASE_PRIVATE_KEY")
	clientEmail := os.Getenv("FIREBASE_CLIENT_EMAIL")
	if projectID == "" || privateKey == "" || clientEmail == "" {
		log := logger.With("push")
		log.Warn().Msg("Firebase credentials not set, push delivery disabled")
		return nil, nil
	}

	serviceAccount, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   projectID,
		"private_key":  strings.ReplaceAll(privateKey, `\n`, "\n"),
		"client_email": clientEmail,
	})
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID},
		option.WithCredentialsJSON(serviceAccount))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	log := logger.With("push")
	log.Info().Str("project_id", projectID).Msg("Firebase messaging initialized")
	return &FCMProvider{client: client}, nil
}

// Send delivers one message. Unregistered-token and invalid-argument errors
// come back wrapped with ErrPermanent.
func (p *FCMProvider) Send(ctx context.Context, msg *Message) error {
	_, err := p.client.Send(ctx, toFCMMessage(msg))
	return classify(err)
}

// SendAll delivers a batch (caller keeps it at 500 or fewer) with one
// provider call, returning a per-message error slice.
func (p *FCMProvider) SendAll(ctx context.Context, msgs []*Message) []error {
	fcmMsgs := make([]*messaging.Message, len(msgs))
	for i, msg := range msgs {
		fcmMsgs[i] = toFCMMessage(msg)
	}
	errs := make([]error, len(msgs))
	batch, err := p.client.SendEach(ctx, fcmMsgs)
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}
	for i, resp := range batch.Responses {
		if !resp.Success {
			errs[i] = classify(resp.Error)
		}
	}
	return errs
}

func toFCMMessage(msg *Message) *messaging.Message {
	return &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "orders",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: intPtr(1),
				},
			},
		},
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err) {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	return err
}

func intPtr(v int) *int { return &v }
