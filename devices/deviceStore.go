package devices

import (
	"context"
	"errors"
	"sort"
	"time"

	"food-ordering-backend/logger"
	"food-ordering-backend/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrUserNotFound = errors.New("user not found")

// casRetries bounds how often an upsert races another writer before failing.
const casRetries = 3

// Store maintains the per-user device records backing push delivery.
type Store struct {
	users *mongo.Collection
	now   func() time.Time
	log   zerolog.Logger
}

func NewStore(users *mongo.Collection) *Store {
	return &Store{
		users: users,
		now:   time.Now,
		log:   logger.With("devices"),
	}
}

// Reconcile merges an incoming device into an existing list: expired records
// are purged, a record with the same token is refreshed in place, and the
// list is capped at MaxDevices by recency.
func Reconcile(devices []models.Device, incoming models.Device, now time.Time) []models.Device {
	kept := make([]models.Device, 0, len(devices)+1)
	merged := false
	for _, d := range devices {
		if d.Expired(now) {
			continue
		}
		if d.Token == incoming.Token {
			if incoming.Kind != "" && incoming.Kind != models.DeviceUnknown {
				d.Kind = incoming.Kind
			}
			if len(incoming.Info) > 0 {
				if d.Info == nil {
					d.Info = make(map[string]string, len(incoming.Info))
				}
				for k, v := range incoming.Info {
					d.Info[k] = v
				}
			}
			d.LastActive = now
			d.ExpiresAt = now.Add(models.DeviceTTL)
			merged = true
		}
		kept = append(kept, d)
	}
	if !merged {
		if incoming.Kind == "" {
			incoming.Kind = models.DeviceUnknown
		}
		incoming.LastActive = now
		incoming.ExpiresAt = now.Add(models.DeviceTTL)
		kept = append(kept, incoming)
	}
	if len(kept) > models.MaxDevices {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].LastActive.After(kept[j].LastActive)
		})
		kept = kept[:models.MaxDevices]
	}
	return kept
}

// UpsertDevice registers or refreshes a push endpoint for a user. The device
// list is reconciled and written back with a compare-and-set on the user
// document's updated_at so concurrent upserts cannot clobber each other.
func (s *Store) UpsertDevice(ctx context.Context, userID primitive.ObjectID, device models.Device) error {
	now := s.now()
	for attempt := 0; attempt < casRetries; attempt++ {
		var user models.User
		err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		reconciled := Reconcile(user.Devices, device, now)

		result, err := s.users.UpdateOne(ctx,
			bson.M{"_id": userID, "updated_at": user.UpdatedAt},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "devices", Value: reconciled},
				{Key: "updated_at", Value: now},
			}}},
		)
		if err != nil {
			return err
		}
		if result.MatchedCount > 0 {
			return nil
		}
		// Lost the race, reload and try again.
	}
	return errors.New("device upsert contention, giving up")
}

// RemoveToken deletes one device record by token.
func (s *Store) RemoveToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "devices", Value: bson.D{{Key: "token", Value: token}}},
		}}},
	)
	if err == nil {
		s.log.Info().Str("user_id", userID.Hex()).Msg("removed device token")
	}
	return err
}

// ActiveTokens lists the push tokens of a user's unexpired devices.
func (s *Store) ActiveTokens(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	tokens := make([]string, 0, len(user.Devices))
	for _, d := range user.Devices {
		if !d.Expired(now) {
			tokens = append(tokens, d.Token)
		}
	}
	return tokens, nil
}

// SweepExpired bulk-purges expired device records across all users.
func (s *Store) SweepExpired(ctx context.Context) error {
	result, err := s.users.UpdateMany(ctx,
		bson.M{},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "devices", Value: bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: s.now()}}}}},
		}}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount > 0 {
		s.log.Info().Int64("users_touched", result.ModifiedCount).Msg("swept expired device tokens")
	}
	return nil
}
