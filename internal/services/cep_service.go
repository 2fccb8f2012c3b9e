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

var (
	// ErrInvalidCEP is returned for input with fewer than 8 digits
	ErrInvalidCEP = errors.New("CEP inválido")
	// ErrCEPNotFound is returned when the provider knows no such CEP
	ErrCEPNotFound = errors.New("CEP não encontrado")
)

// CEPService resolves postal codes into addresses, caching results
type CEPService struct {
	baseURL string
	cache   Cache
	ttl     time.Duration
	pool    *httpclient.HTTPClientPool
	logger  *logging.SafeLogger
}

// NewCEPService creates a new CEP lookup service
func NewCEPService(baseURL string, cache Cache, ttl time.Duration, pool *httpclient.HTTPClientPool, logger *logging.SafeLogger) *CEPService {
	return &CEPService{
		baseURL: baseURL,
		cache:   cache,
		ttl:     ttl,
		pool:    pool,
		logger:  logger,
	}
}

// Global CEP service instance
var CEPServiceInstance *CEPService

// InitCEPService initializes the global CEP service instance
func InitCEPService() {
	CEPServiceInstance = NewCEPService(
		config.AppConfig.CEPLookupBaseURL,
		config.Redis,
		config.AppConfig.CEPCacheTTL,
		httpclient.GetGlobalPool(),
		logging.Logger,
	)
}

// Lookup resolves a postal code. The input is sanitized to digits; fewer
// than 8 digits is invalid without a network call.
func (s *CEPService) Lookup(ctx context.Context, cep string) (*models.CEPResult, error) {
	digits := onlyDigits(cep)
	if len(digits) < 8 {
		return nil, ErrInvalidCEP
	}

	cacheKey := "cep:" + digits
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var result models.CEPResult
			if err := json.Unmarshal(data, &result); err == nil {
				observability.CacheHits.WithLabelValues("cep_lookup").Inc()
				return &result, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cep cache read failed", zap.Error(err))
		}
	}

	url := fmt.Sprintf("%s/%s/json", s.baseURL, digits)
	ctx, _, done := utils.TraceHTTPOperation(ctx, http.MethodGet, url, "cep_lookup")
	defer done()

	result, err := s.fetch(ctx, url)
	if err != nil {
		observability.LookupRequests.WithLabelValues("cep", "error").Inc()
		return nil, err
	}
	if result.Erro {
		observability.LookupRequests.WithLabelValues("cep", "not_found").Inc()
		return nil, ErrCEPNotFound
	}
	observability.LookupRequests.WithLabelValues("cep", "ok").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("cep cache write failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

func (s *CEPService) fetch(ctx context.Context, url string) (*models.CEPResult, error) {
	client := s.pool.Get()
	defer s.pool.Put(client)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEP request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha na consulta de CEP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("falha na consulta de CEP: status %d", resp.StatusCode)
	}

	var result models.CEPResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("falha na consulta de CEP: %w", err)
	}
	return &result, nil
}

func onlyDigits(value string) string {
	digits := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			digits = append(digits, value[i])
		}
	}
	return string(digits)
}
