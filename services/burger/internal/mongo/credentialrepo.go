package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/burger/services/burger/internal/auth"
)

const credentialsCollection = "credentials"

// CredentialRepo stores session credentials in MongoDB, one document per
// session name.
type CredentialRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     aqm.Logger
	config     *aqm.Config
}

func NewCredentialRepo(config *aqm.Config, logger aqm.Logger) *CredentialRepo {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &CredentialRepo{
		logger: logger,
		config: config,
	}
}

func (r *CredentialRepo) Start(ctx context.Context) error {
	mongoURL, _ := r.config.GetString("db.mongo.url")
	connString := mongoURL
	if connString == "" {
		connString = "mongodb://localhost:27017"
	}

	dbName, _ := r.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "burger"
	}

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection(credentialsCollection)

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: %s", connString, dbName, credentialsCollection)
	return nil
}

func (r *CredentialRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *CredentialRepo) Load(ctx context.Context, session string) (auth.Credentials, error) {
	var creds auth.Credentials
	err := r.collection.FindOne(ctx, bson.M{"_id": session}).Decode(&creds)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.Credentials{}, auth.ErrCredentialsNotFound
		}
		return auth.Credentials{}, fmt.Errorf("cannot load credentials: %w", err)
	}
	return creds, nil
}

func (r *CredentialRepo) Save(ctx context.Context, creds auth.Credentials) error {
	if creds.Session == "" {
		return fmt.Errorf("credentials session is empty")
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": creds.Session}, creds, opts); err != nil {
		return fmt.Errorf("cannot save credentials: %w", err)
	}
	return nil
}

func (r *CredentialRepo) Clear(ctx context.Context, session string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": session}); err != nil {
		return fmt.Errorf("cannot clear credentials: %w", err)
	}
	return nil
}

// ClearAll removes every stored session and returns how many were dropped.
func (r *CredentialRepo) ClearAll(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("cannot clear credentials: %w", err)
	}
	return res.DeletedCount, nil
}
