package database

import (
	"context"
	"os"
	"time"

	"food-ordering-backend/logger"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	connectTimeout  = 15 * time.Second
	socketTimeout   = 45 * time.Second
	maxConnectTries = 5
)

// DBinstance connects to MongoDB with bounded exponential backoff.
// The process exits if the store is unreachable after the final attempt.
func DBinstance() *mongo.Client {
	log := logger.With("database")

	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Msg("no .env file found, relying on environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017/food-ordering"
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(socketTimeout)

	backoff := time.Second
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		client, err := mongo.Connect(ctx, opts)
		if err == nil {
			err = client.Ping(ctx, nil)
		}
		cancel()
		if err == nil {
			log.Info().Msg("connected to MongoDB")
			return client
		}
		if attempt >= maxConnectTries {
			log.Fatal().Err(err).Int("attempts", attempt).Msg("MongoDB unreachable, giving up")
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", backoff).Msg("MongoDB connect failed")
		time.Sleep(backoff)
		backoff *= 2
	}
}

var Client *mongo.Client = DBinstance()

func OpenCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	databaseName := os.Getenv("MONGODB_DATABASE")
	if databaseName == "" {
		databaseName = "food-ordering"
	}
	return client.Database(databaseName).Collection(collectionName)
}

// EnsureIndexes creates the indices the query paths depend on.
func EnsureIndexes(ctx context.Context, client *mongo.Client) error {
	users := OpenCollection(client, "user")
	orders := OpenCollection(client, "order")

	unique := true
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "mobile_number", Value: 1}}, Options: &options.IndexOptions{Unique: &unique}},
		{Keys: bson.D{{Key: "devices.token", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}
