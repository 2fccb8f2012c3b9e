package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository is the MongoDB-backed account store
type AccountRepository struct {
	database *mongo.Database
}

// NewAccountRepository creates an account repository
func NewAccountRepository(database *mongo.Database) *AccountRepository {
	return &AccountRepository{database: database}
}

// EarliestMembership returns the user's oldest membership, or nil when the
// user belongs to no account
func (r *AccountRepository) EarliestMembership(ctx context.Context, userID string) (*models.AccountMember, error) {
	filter := bson.M{"user_id": userID}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "earliest_membership", config.AppConfig.AccountMembersCollection, filter)
	defer done()

	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: 1}})

	var member models.AccountMember
	err := r.database.Collection(config.AppConfig.AccountMembersCollection).
		FindOne(ctx, filter, opts).
		Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		observability.DatabaseOperations.WithLabelValues("earliest_membership", "error").Inc()
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("earliest_membership", "ok").Inc()
	return &member, nil
}

// CreateAccount stores a new account
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "create_account", config.AppConfig.AccountsCollection, nil)
	defer done()

	if _, err := r.database.Collection(config.AppConfig.AccountsCollection).InsertOne(ctx, account); err != nil {
		observability.DatabaseOperations.WithLabelValues("create_account", "error").Inc()
		return fmt.Errorf("failed to create account: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("create_account", "ok").Inc()
	return nil
}

// AddMember stores an account membership
func (r *AccountRepository) AddMember(ctx context.Context, member *models.AccountMember) error {
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "add_member", config.AppConfig.AccountMembersCollection, nil)
	defer done()

	if _, err := r.database.Collection(config.AppConfig.AccountMembersCollection).InsertOne(ctx, member); err != nil {
		observability.DatabaseOperations.WithLabelValues("add_member", "error").Inc()
		return fmt.Errorf("failed to add account member: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("add_member", "ok").Inc()
	return nil
}
