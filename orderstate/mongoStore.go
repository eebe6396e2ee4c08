package orderstate

import (
	"context"
	"time"

	"food-ordering-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the durable Store backed by the order collection.
type MongoStore struct {
	orders *mongo.Collection
}

func NewMongoStore(orders *mongo.Collection) *MongoStore {
	return &MongoStore{orders: orders}
}

func (s *MongoStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := s.orders.InsertOne(ctx, order)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition performs the status move as one conditional update so two
// concurrent writers can never both succeed.
func (s *MongoStore) Transition(ctx context.Context, id primitive.ObjectID, fromStatuses []string, toStatus, reason string, now time.Time) (*models.Order, error) {
	set := bson.D{
		{Key: "status", Value: toStatus},
		{Key: "updated_at", Value: now},
	}
	if toStatus == models.StatusCancelled {
		set = append(set, bson.E{Key: "cancellation_reason", Value: reason})
	}

	var order models.Order
	err := s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": fromStatuses}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing order from an illegal transition.
		exists, countErr := s.orders.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, countErr
		}
		if exists == 0 {
			return nil, ErrOrderNotFound
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoStore) StalePlaced(ctx context.Context, olderThan time.Time) ([]primitive.ObjectID, error) {
	cursor, err := s.orders.Find(ctx,
		bson.M{"status": models.StatusPlaced, "created_at": bson.M{"$lt": olderThan}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
