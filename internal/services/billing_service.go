package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/repository/mongodb"
	"go.uber.org/zap"
)

// BillingService flips simulated subscription states. No payment provider is
// involved; the provider column is fixed to "manual".
type BillingService struct {
	subscriptions SubscriptionStore
	logger        *logging.SafeLogger
}

// NewBillingService creates a new billing simulation service
func NewBillingService(subscriptions SubscriptionStore, logger *logging.SafeLogger) *BillingService {
	return &BillingService{subscriptions: subscriptions, logger: logger}
}

// Global billing service instance
var BillingServiceInstance *BillingService

// InitBillingService initializes the global billing service instance
func InitBillingService() {
	logger := zap.L().Named("billing_service")

	BillingServiceInstance = NewBillingService(
		mongodb.NewSubscriptionRepository(config.MongoDB),
		logging.Logger,
	)

	logger.Info("billing service initialized successfully")
}

// Simulate applies one of the simulator actions to the caller's
// subscription. Unknown plans fall back to basic, matching the simulator's
// permissive contract.
func (s *BillingService) Simulate(ctx context.Context, userID string, req *models.BillingSimulateRequest) (*models.BillingSimulateResponse, error) {
	now := time.Now().UTC()

	if req.Action == "cancel" {
		if err := s.subscriptions.CancelByUser(ctx, userID, now); err != nil {
			return nil, err
		}
		s.logger.Info("subscription canceled", zap.String("user_id", userID))
		return &models.BillingSimulateResponse{OK: true, Status: models.SubscriptionStatusCanceled}, nil
	}

	var status string
	switch req.Action {
	case "past_due":
		status = models.SubscriptionStatusPastDue
	case "trialing":
		status = models.SubscriptionStatusTrialing
	case "activate":
		status = models.SubscriptionStatusActive
	default:
		return nil, fmt.Errorf("ação desconhecida: %q", req.Action)
	}

	plan, ok := models.Plans[req.Plan]
	if !ok {
		plan = models.Plans["basic"]
	}

	subscription := &models.Subscription{
		UserID:   userID,
		Provider: "manual",
		// Stable external id keeps repeated simulations on one row
		ExternalSubscriptionID: fmt.Sprintf("sim_%s", userID),
		PlanCode:               plan.PlanCode,
		PlanName:               plan.PlanName,
		PriceCents:             plan.PriceCents,
		Currency:               plan.Currency,
		Status:                 status,
		CurrentPeriodStart:     now,
		CurrentPeriodEnd:       now.AddDate(0, 0, 30),
		CancelAtPeriodEnd:      false,
		CanceledAt:             nil,
	}

	if err := s.subscriptions.Upsert(ctx, subscription); err != nil {
		return nil, err
	}

	s.logger.Info("subscription simulated",
		zap.String("user_id", userID),
		zap.String("status", status),
		zap.String("plan", plan.PlanCode))
	return &models.BillingSimulateResponse{OK: true, Status: status}, nil
}

// GetSubscription returns the caller's simulated subscription
func (s *BillingService) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	subscription, err := s.subscriptions.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, models.ErrSubscriptionAbsent
	}
	return subscription, nil
}
