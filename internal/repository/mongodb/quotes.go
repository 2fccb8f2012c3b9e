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

// QuoteRepository is the MongoDB-backed quote store
type QuoteRepository struct {
	database *mongo.Database
}

// NewQuoteRepository creates a quote repository
func NewQuoteRepository(database *mongo.Database) *QuoteRepository {
	return &QuoteRepository{database: database}
}

func (r *QuoteRepository) collection() *mongo.Collection {
	return r.database.Collection(config.AppConfig.QuotesCollection)
}

// InsertQuote stores a new quote record
func (r *QuoteRepository) InsertQuote(ctx context.Context, quote *models.QuoteRecord) error {
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "insert_quote", config.AppConfig.QuotesCollection, nil)
	defer done()

	if _, err := r.collection().InsertOne(ctx, quote); err != nil {
		observability.DatabaseOperations.WithLabelValues("insert_quote", "error").Inc()
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("insert_quote", "ok").Inc()
	return nil
}

// ListQuotes returns the user's quotes of a type, newest first
func (r *QuoteRepository) ListQuotes(ctx context.Context, userID, quoteType string, limit int) ([]models.QuoteRecord, error) {
	filter := bson.M{"created_by": userID, "type": quoteType}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "list_quotes", config.AppConfig.QuotesCollection, filter)
	defer done()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("list_quotes", "error").Inc()
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer cursor.Close(ctx)

	var quotes []models.QuoteRecord
	if err := cursor.All(ctx, &quotes); err != nil {
		observability.DatabaseOperations.WithLabelValues("list_quotes", "error").Inc()
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("list_quotes", "ok").Inc()
	return quotes, nil
}

// GetQuote returns a quote by id, or nil when it does not exist
func (r *QuoteRepository) GetQuote(ctx context.Context, id string) (*models.QuoteRecord, error) {
	filter := bson.M{"_id": id}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "get_quote", config.AppConfig.QuotesCollection, filter)
	defer done()

	var quote models.QuoteRecord
	err := r.collection().FindOne(ctx, filter).Decode(&quote)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		observability.DatabaseOperations.WithLabelValues("get_quote", "error").Inc()
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	observability.DatabaseOperations.WithLabelValues("get_quote", "ok").Inc()
	return &quote, nil
}

// SetUploads merges the uploads map into the quote's payload
func (r *QuoteRepository) SetUploads(ctx context.Context, id string, uploads map[string]string) error {
	filter := bson.M{"_id": id}
	ctx, _, done := utils.TraceDatabaseOperation(ctx, "set_uploads", config.AppConfig.QuotesCollection, filter)
	defer done()

	update := bson.M{"$set": bson.M{"data.uploads": uploads}}
	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		observability.DatabaseOperations.WithLabelValues("set_uploads", "error").Inc()
		return fmt.Errorf("failed to update uploads: %w", err)
	}
	if result.MatchedCount == 0 {
		observability.DatabaseOperations.WithLabelValues("set_uploads", "error").Inc()
		return models.ErrQuoteNotFound
	}
	observability.DatabaseOperations.WithLabelValues("set_uploads", "ok").Inc()
	return nil
}
