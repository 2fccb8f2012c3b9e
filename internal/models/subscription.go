package models

import "time"

// Subscription statuses produced by the billing simulator
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Plan describes a simulated billing plan
type Plan struct {
	PlanCode   string `bson:"plan_code" json:"plan_code"`
	PlanName   string `bson:"plan_name" json:"plan_name"`
	PriceCents int    `bson:"price_cents" json:"price_cents"`
	Currency   string `bson:"currency" json:"currency"`
}

// Plans available to the simulator, keyed by the short plan name
var Plans = map[string]Plan{
	"basic": {PlanCode: "hmon_basic", PlanName: "HMON Basic", PriceCents: 4900, Currency: "BRL"},
	"pro":   {PlanCode: "hmon_pro", PlanName: "HMON Pro", PriceCents: 9900, Currency: "BRL"},
}

// Subscription is a simulated subscription row, one per user, keyed by a
// stable external id so repeated simulations upsert instead of accumulating
type Subscription struct {
	UserID                 string     `bson:"user_id" json:"user_id"`
	Provider               string     `bson:"provider" json:"provider"`
	ExternalCustomerID     *string    `bson:"external_customer_id" json:"external_customer_id"`
	ExternalSubscriptionID string     `bson:"external_subscription_id" json:"external_subscription_id"`
	PlanCode               string     `bson:"plan_code" json:"plan_code"`
	PlanName               string     `bson:"plan_name" json:"plan_name"`
	PriceCents             int        `bson:"price_cents" json:"price_cents"`
	Currency               string     `bson:"currency" json:"currency"`
	Status                 string     `bson:"status" json:"status"`
	CurrentPeriodStart     time.Time  `bson:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd       time.Time  `bson:"current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd      bool       `bson:"cancel_at_period_end" json:"cancel_at_period_end"`
	CanceledAt             *time.Time `bson:"canceled_at" json:"canceled_at"`
}

// BillingSimulateRequest is the body of the billing simulation endpoint
type BillingSimulateRequest struct {
	Action string `json:"action"`
	Plan   string `json:"plan"`
}

// BillingSimulateResponse reports the resulting subscription status
type BillingSimulateResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}
