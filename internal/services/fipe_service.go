package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"github.com/hmon-seguros/quote-api/internal/utils/httpclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FIPEService resolves the vehicle catalog cascade: brands, models of a
// brand, years of a model and the final valuation
type FIPEService struct {
	baseURL string
	cache   Cache
	ttl     time.Duration
	pool    *httpclient.HTTPClientPool
	logger  *logging.SafeLogger
}

// NewFIPEService creates a new vehicle catalog service
func NewFIPEService(baseURL string, cache Cache, ttl time.Duration, pool *httpclient.HTTPClientPool, logger *logging.SafeLogger) *FIPEService {
	return &FIPEService{
		baseURL: baseURL,
		cache:   cache,
		ttl:     ttl,
		pool:    pool,
		logger:  logger,
	}
}

// Global FIPE service instance
var FIPEServiceInstance *FIPEService

// InitFIPEService initializes the global FIPE service instance
func InitFIPEService() {
	FIPEServiceInstance = NewFIPEService(
		config.AppConfig.FIPEBaseURL,
		config.Redis,
		config.AppConfig.FIPECacheTTL,
		httpclient.GetGlobalPool(),
		logging.Logger,
	)
}

// Brands lists the car brand catalog. The list changes rarely, so it is
// cached aggressively.
func (s *FIPEService) Brands(ctx context.Context) ([]models.FIPEBrand, error) {
	const cacheKey = "fipe:brands"

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var brands []models.FIPEBrand
			if err := json.Unmarshal(data, &brands); err == nil {
				observability.CacheHits.WithLabelValues("fipe_brands").Inc()
				return brands, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("fipe cache read failed", zap.Error(err))
		}
	}

	var brands []models.FIPEBrand
	if err := s.fetch(ctx, s.baseURL+"/carros/marcas", "fipe_brands", &brands); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(brands); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("fipe cache write failed", zap.Error(err))
			}
		}
	}
	return brands, nil
}

// Models lists the models of a brand
func (s *FIPEService) Models(ctx context.Context, brandCode string) ([]models.FIPEModel, error) {
	url := fmt.Sprintf("%s/carros/marcas/%s/modelos", s.baseURL, brandCode)
	var response models.FIPEModelsResponse
	if err := s.fetch(ctx, url, "fipe_models", &response); err != nil {
		return nil, err
	}
	return response.Modelos, nil
}

// Years lists the model-year options of a model
func (s *FIPEService) Years(ctx context.Context, brandCode, modelCode string) ([]models.FIPEYear, error) {
	url := fmt.Sprintf("%s/carros/marcas/%s/modelos/%s/anos", s.baseURL, brandCode, modelCode)
	var years []models.FIPEYear
	if err := s.fetch(ctx, url, "fipe_years", &years); err != nil {
		return nil, err
	}
	return years, nil
}

// Valuation fetches the reference valuation for a brand/model/year
func (s *FIPEService) Valuation(ctx context.Context, brandCode, modelCode, yearCode string) (*models.FIPEValuation, error) {
	url := fmt.Sprintf("%s/carros/marcas/%s/modelos/%s/anos/%s", s.baseURL, brandCode, modelCode, yearCode)
	var valuation models.FIPEValuation
	if err := s.fetch(ctx, url, "fipe_valuation", &valuation); err != nil {
		return nil, err
	}
	return &valuation, nil
}

func (s *FIPEService) fetch(ctx context.Context, url, route string, out interface{}) error {
	ctx, _, done := utils.TraceHTTPOperation(ctx, http.MethodGet, url, route)
	defer done()

	client := s.pool.Get()
	defer s.pool.Put(client)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		observability.LookupRequests.WithLabelValues("fipe", "error").Inc()
		return fmt.Errorf("falha na consulta da tabela FIPE: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.LookupRequests.WithLabelValues("fipe", "error").Inc()
		return fmt.Errorf("falha na consulta da tabela FIPE: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.LookupRequests.WithLabelValues("fipe", "error").Inc()
		return fmt.Errorf("falha na consulta da tabela FIPE: %w", err)
	}

	observability.LookupRequests.WithLabelValues("fipe", "ok").Inc()
	return nil
}
