package restaurants

import (
	"context"
	"errors"
	"time"

	"food-ordering-backend/logger"
	"food-ordering-backend/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("restaurant not found")
var ErrNoOwner = errors.New("restaurant has no owner")

// Store wraps the restaurant collection for the lookups shared by the
// dispatcher, the scheduler and the HTTP layer.
type Store struct {
	col *mongo.Collection
	now func() time.Time
	log zerolog.Logger
}

func NewStore(col *mongo.Collection) *Store {
	return &Store{col: col, now: time.Now, log: logger.With("restaurants")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// OwnerOf resolves the owning user of a restaurant. Used by the dispatcher
// to address restaurant-side push notifications.
func (s *Store) OwnerOf(ctx context.Context, restaurantID primitive.ObjectID) (primitive.ObjectID, error) {
	restaurant, err := s.Get(ctx, restaurantID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if restaurant.OwnerID == nil {
		return primitive.NilObjectID, ErrNoOwner
	}
	return *restaurant.OwnerID, nil
}

// IsOwner reports whether the user owns the restaurant.
func (s *Store) IsOwner(ctx context.Context, restaurantID, userID primitive.ObjectID) (bool, error) {
	owner, err := s.OwnerOf(ctx, restaurantID)
	if err == ErrNoOwner {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner == userID, nil
}

// OpenDue flips restaurants whose scheduled opening time has passed from
// inactive to active. Driven by the scheduler every minute.
func (s *Store) OpenDue(ctx context.Context) error {
	result, err := s.col.UpdateMany(ctx,
		bson.M{
			"opening_time": bson.M{"$lte": s.now()},
			"is_active":    false,
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_active", Value: true},
			{Key: "updated_at", Value: s.now()},
		}}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount > 0 {
		s.log.Info().Int64("opened", result.ModifiedCount).Msg("restaurants opened on schedule")
	}
	return nil
}
