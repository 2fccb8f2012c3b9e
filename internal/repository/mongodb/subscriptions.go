package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriptionRepository is the MongoDB-backed subscription store
type SubscriptionRepository struct {
	database *mongo.Database
}

// NewSubscriptionRepository creates a subscription repository
func NewSubscriptionRepository(database *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{database: database}
}

func (r *SubscriptionRepository) collection() *mongo.Collection {
	return r.database.Collection(config.AppConfig.SubscriptionsCollection)
}

// Upsert creates or replaces the subscription keyed by its stable external id
func (r *SubscriptionRepository) Upsert(ctx context.Context, subscription *models.Subscription) error {
	filter := bson.M{"external_subscription_id": subscription.ExternalSubscriptionID}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "upsert_subscription", config.AppConfig.SubscriptionsCollection, filter)
	defer done()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection().ReplaceOne(ctx, filter, subscription, opts); err != nil {
		observability.DatabaseOperations.WithLabelValues("upsert_subscription", "error").Inc()
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("upsert_subscription", "ok").Inc()
	return nil
}

// CancelByUser marks the user's subscription canceled, ending the current
// period immediately
func (r *SubscriptionRepository) CancelByUser(ctx context.Context, userID string, now time.Time) error {
	filter := bson.M{"user_id": userID}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "cancel_subscription", config.AppConfig.SubscriptionsCollection, filter)
	defer done()

	update := bson.M{"$set": bson.M{
		"status":               models.SubscriptionStatusCanceled,
		"canceled_at":          now,
		"cancel_at_period_end": false,
		"current_period_end":   now,
	}}
	if _, err := r.collection().UpdateMany(ctx, filter, update); err != nil {
		observability.DatabaseOperations.WithLabelValues("cancel_subscription", "error").Inc()
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("cancel_subscription", "ok").Inc()
	return nil
}

// GetByUser returns the user's subscription, or nil when none exists
func (r *SubscriptionRepository) GetByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	filter := bson.M{"user_id": userID}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "get_subscription", config.AppConfig.SubscriptionsCollection, filter)
	defer done()

	var subscription models.Subscription
	err := r.collection().FindOne(ctx, filter).Decode(&subscription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		observability.DatabaseOperations.WithLabelValues("get_subscription", "error").Inc()
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("get_subscription", "ok").Inc()
	return &subscription, nil
}
