package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	// Ping the database
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	// Ensure indexes exist and start maintenance routine
	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}
	startIndexMaintenance()

	logging.Logger.Info("Connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	if !strings.Contains(uri, "@") {
		return uri
	}
	return "mongodb://****:****@" + uri[strings.LastIndex(uri, "@")+1:]
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := zap.L().Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Quotes: list endpoint filters by created_by and type, newest first
	if err := ensureIndex(ctx, logger, AppConfig.QuotesCollection, mongo.IndexModel{
		Keys: bson.D{
			{Key: "created_by", Value: 1},
			{Key: "type", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("created_by_1_type_1_created_at_-1"),
	}); err != nil {
		return err
	}

	// Quotes: account-scoped reads
	if err := ensureIndex(ctx, logger, AppConfig.QuotesCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("account_id_1_created_at_-1"),
	}); err != nil {
		return err
	}

	// Account members: membership resolution picks the earliest joined_at
	if err := ensureIndex(ctx, logger, AppConfig.AccountMembersCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "joined_at", Value: 1}},
		Options: options.Index().SetName("user_id_1_joined_at_1"),
	}); err != nil {
		return err
	}

	// Subscriptions: simulator upserts by stable external id
	if err := ensureIndex(ctx, logger, AppConfig.SubscriptionsCollection, mongo.IndexModel{
		Keys: bson.D{{Key: "external_subscription_id", Value: 1}},
		Options: options.Index().
			SetName("external_subscription_id_1").
			SetUnique(true),
	}); err != nil {
		return err
	}

	logger.Info("all required indexes verified")
	return nil
}

// ensureIndex creates a single index if an index with the same name does not exist
func ensureIndex(ctx context.Context, logger *zap.Logger, collectionName string, model mongo.IndexModel) error {
	collection := MongoDB.Collection(collectionName)
	indexName := *model.Options.Name

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		logger.Error("failed to list indexes", zap.Error(err))
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if name, ok := index["name"].(string); ok && name == indexName {
			logger.Debug("index already exists",
				zap.String("collection", collectionName),
				zap.String("index", indexName))
			return nil
		}
	}

	_, err = collection.Indexes().CreateOne(ctx, model)
	if err != nil {
		// Another instance may have created it between the list and the create
		if mongo.IsDuplicateKeyError(err) {
			logger.Info("index already exists (created by another instance)",
				zap.String("collection", collectionName),
				zap.String("index", indexName))
			return nil
		}
		logger.Error("failed to create index",
			zap.String("collection", collectionName),
			zap.String("index", indexName),
			zap.Error(err))
		return err
	}

	logger.Info("created index",
		zap.String("collection", collectionName),
		zap.String("index", indexName))
	return nil
}

// startIndexMaintenance starts a goroutine that periodically ensures indexes exist
func startIndexMaintenance() {
	logger := zap.L().Named("database")

	go func() {
		ticker := time.NewTicker(AppConfig.IndexMaintenanceInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := ensureIndexes(); err != nil {
				logger.Error("periodic index check failed", zap.Error(err))
			}
		}
	}()

	logger.Info("started index maintenance routine",
		zap.Duration("interval", AppConfig.IndexMaintenanceInterval))
}
