package tests

import (
	"context"
	"testing"
	"time"

	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/redisclient"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestContainers holds references to test containers
type TestContainers struct {
	MongoContainer *mongodb.MongoDBContainer
	RedisContainer *tcredis.RedisContainer
	MongoDB        *mongo.Database
	Cleanup        func()
}

// SetupTestContainers starts MongoDB and Redis containers and points the
// global configuration at them
func SetupTestContainers(t *testing.T) *TestContainers {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx,
		"mongo:7.0",
		mongodb.WithUsername("root"),
		mongodb.WithPassword("password"),
	)
	require.NoError(t, err, "Failed to start MongoDB container")

	redisContainer, err := tcredis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err, "Failed to start Redis container")

	mongoURI, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MongoDB connection string")

	redisEndpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err, "Failed to get Redis endpoint")

	clientOptions := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(ctx, clientOptions)
	require.NoError(t, err, "Failed to connect to MongoDB")

	err = mongoClient.Ping(ctx, nil)
	require.NoError(t, err, "Failed to ping MongoDB")

	database := mongoClient.Database("hmon_test")

	if config.AppConfig == nil {
		config.AppConfig = &config.Config{}
	}

	config.AppConfig.MongoURI = mongoURI
	config.AppConfig.MongoDatabase = "hmon_test"
	config.AppConfig.RedisURI = redisEndpoint
	config.AppConfig.RedisDB = 0
	config.AppConfig.RedisPassword = ""
	config.AppConfig.QuotesCollection = "quotes"
	config.AppConfig.AccountsCollection = "accounts"
	config.AppConfig.AccountMembersCollection = "account_members"
	config.AppConfig.SubscriptionsCollection = "subscriptions"
	config.AppConfig.SignedURLTTL = 600 * time.Second
	config.AppConfig.CEPCacheTTL = 6 * time.Hour
	config.AppConfig.FIPECacheTTL = 24 * time.Hour
	config.AppConfig.WizardSessionTTL = 2 * time.Hour
	config.AppConfig.IndexMaintenanceInterval = time.Hour

	config.MongoDB = database
	config.Redis = redisclient.NewClient(goredis.NewClient(&goredis.Options{
		Addr: redisEndpoint,
	}))

	cleanup := func() {
		if mongoClient != nil {
			mongoClient.Disconnect(context.Background())
		}
		if mongoContainer != nil {
			mongoContainer.Terminate(ctx)
		}
		if redisContainer != nil {
			redisContainer.Terminate(ctx)
		}
	}

	return &TestContainers{
		MongoContainer: mongoContainer,
		RedisContainer: redisContainer,
		MongoDB:        database,
		Cleanup:        cleanup,
	}
}
