package models

import "time"

// Account is a tenant: every quote belongs to exactly one account
type Account struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// AccountMember links a user to an account. Membership resolution picks the
// earliest joined_at row when a submission carries no explicit account.
type AccountMember struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	AccountID string    `bson:"account_id" json:"account_id"`
	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
}
