package services

import (
	"context"
	"time"

	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// QuoteStore persists quote records
type QuoteStore interface {
	InsertQuote(ctx context.Context, quote *models.QuoteRecord) error
	ListQuotes(ctx context.Context, userID, quoteType string, limit int) ([]models.QuoteRecord, error)
	GetQuote(ctx context.Context, id string) (*models.QuoteRecord, error)
	SetUploads(ctx context.Context, id string, uploads map[string]string) error
}

// AccountStore persists accounts and memberships
type AccountStore interface {
	// EarliestMembership returns the caller's oldest membership, or nil when
	// the user belongs to no account
	EarliestMembership(ctx context.Context, userID string) (*models.AccountMember, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	AddMember(ctx context.Context, member *models.AccountMember) error
}

// SubscriptionStore persists simulated subscriptions
type SubscriptionStore interface {
	Upsert(ctx context.Context, subscription *models.Subscription) error
	CancelByUser(ctx context.Context, userID string, now time.Time) error
	GetByUser(ctx context.Context, userID string) (*models.Subscription, error)
}

// AttachmentStorage stores quote attachments and signs download URLs
type AttachmentStorage interface {
	// Put stores an object; it must fail with models.ErrAttachmentExists
	// when the destination path is already occupied
	Put(ctx context.Context, path, contentType string, data []byte) error
	// SignedURLs returns a path→URL map for the given paths; paths that
	// cannot be signed are simply absent from the result
	SignedURLs(ctx context.Context, paths []string, ttl time.Duration) (map[string]string, error)
}

// Cache is the subset of the Redis client the lookup services need
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}
