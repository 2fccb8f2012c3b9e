package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/middleware"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSubscriptionStore is an in-memory services.SubscriptionStore
type memSubscriptionStore struct {
	byUser map[string]*models.Subscription
}

func (m *memSubscriptionStore) Upsert(ctx context.Context, subscription *models.Subscription) error {
	copied := *subscription
	m.byUser[subscription.UserID] = &copied
	return nil
}

func (m *memSubscriptionStore) CancelByUser(ctx context.Context, userID string, now time.Time) error {
	if sub, ok := m.byUser[userID]; ok {
		sub.Status = models.SubscriptionStatusCanceled
		sub.CanceledAt = &now
		sub.CurrentPeriodEnd = now
	}
	return nil
}

func (m *memSubscriptionStore) GetByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	return m.byUser[userID], nil
}

func newBillingTestEnv(t *testing.T) (*gin.Engine, *memSubscriptionStore, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memSubscriptionStore{byUser: make(map[string]*models.Subscription)}
	services.BillingServiceInstance = services.NewBillingService(store, &logging.SafeLogger{})

	router := gin.New()
	v1 := router.Group("/v1", middleware.AuthMiddleware())
	v1.POST("/billing/simulate", SimulateBilling)
	v1.GET("/billing/subscription", GetSubscription)

	token := buildToken(t, map[string]interface{}{"sub": "user-1", "email": "maria@example.com"})
	return router, store, token
}

func TestSimulateBilling_Activate(t *testing.T) {
	router, store, token := newBillingTestEnv(t)

	body, err := json.Marshal(models.BillingSimulateRequest{Action: "activate", Plan: "pro"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/billing/simulate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.BillingSimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, models.SubscriptionStatusActive, resp.Status)
	assert.Equal(t, "hmon_pro", store.byUser["user-1"].PlanCode)
}

func TestSimulateBilling_UnknownAction(t *testing.T) {
	router, _, token := newBillingTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/billing/simulate",
		bytes.NewBufferString(`{"action":"pause"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "ação desconhecida")
}

func TestGetSubscription_NotFound(t *testing.T) {
	router, _, token := newBillingTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/billing/subscription", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSubscription_AfterSimulation(t *testing.T) {
	router, store, token := newBillingTestEnv(t)
	store.byUser["user-1"] = &models.Subscription{
		UserID:   "user-1",
		Status:   models.SubscriptionStatusActive,
		PlanCode: "hmon_basic",
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/billing/subscription", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var sub models.Subscription
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, "hmon_basic", sub.PlanCode)
}
