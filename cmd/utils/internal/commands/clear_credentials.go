package commands

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClearCredentials drops persisted sessions. With session set only that
// session is removed.
func ClearCredentials(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	mongoURL := config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := config.GetStringOrDef("db.mongo.name", "burger")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", dbName)

	filter := bson.M{}
	if session, _ := config.GetString("auth.session"); session != "" {
		filter = bson.M{"_id": session}
	}

	result, err := client.Database(dbName).Collection("credentials").DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	logger.Info("Deleted stored credentials", "count", result.DeletedCount)

	return nil
}
