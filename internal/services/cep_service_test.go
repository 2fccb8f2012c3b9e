package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/utils/httpclient"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is an in-memory stand-in for the Redis lookup cache
type memoryCache struct {
	values map[string][]byte
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.sets++
	switch v := value.(type) {
	case []byte:
		m.values[key] = v
	case string:
		m.values[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func newTestCEPService(baseURL string, cache Cache) *CEPService {
	return NewCEPService(baseURL, cache, time.Hour, httpclient.NewHTTPClientPool(2), &logging.SafeLogger{})
}

func TestCEPLookup_Found(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"20040-030","logradouro":"Rua da Assembleia","bairro":"Centro","localidade":"Rio de Janeiro","uf":"RJ"}`))
	}))
	defer server.Close()

	svc := newTestCEPService(server.URL, nil)

	result, err := svc.Lookup(context.Background(), "20040-030")
	require.NoError(t, err)
	assert.Equal(t, "/20040030/json", requested, "input is sanitized to digits")
	assert.Equal(t, "Rua da Assembleia", result.Logradouro)
	assert.Equal(t, "Centro", result.Bairro)
	assert.Equal(t, "Rio de Janeiro", result.Localidade)
	assert.Equal(t, "RJ", result.UF)
}

func TestCEPLookup_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"erro":true}`))
	}))
	defer server.Close()

	svc := newTestCEPService(server.URL, nil)

	_, err := svc.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrCEPNotFound)
}

func TestCEPLookup_TooShortSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for invalid input")
	}))
	defer server.Close()

	svc := newTestCEPService(server.URL, nil)

	for _, input := range []string{"", "2004", "20040-03", "abc"} {
		_, err := svc.Lookup(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidCEP, "input %q", input)
	}
}

func TestCEPLookup_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := newTestCEPService(server.URL, nil)

	_, err := svc.Lookup(context.Background(), "20040030")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "falha na consulta de CEP")
}

func TestCEPLookup_CachesResults(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"20040-030","logradouro":"Rua da Assembleia","bairro":"Centro","localidade":"Rio de Janeiro","uf":"RJ"}`))
	}))
	defer server.Close()

	cache := newMemoryCache()
	svc := newTestCEPService(server.URL, cache)

	first, err := svc.Lookup(context.Background(), "20040030")
	require.NoError(t, err)
	second, err := svc.Lookup(context.Background(), "20040-030")
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second lookup is served from the cache")
	assert.Equal(t, first.Logradouro, second.Logradouro)
	assert.Contains(t, cache.values, "cep:20040030")
}

func TestCEPLookup_NotFoundIsNotCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"erro":true}`))
	}))
	defer server.Close()

	cache := newMemoryCache()
	svc := newTestCEPService(server.URL, cache)

	_, err := svc.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrCEPNotFound)
	assert.Zero(t, cache.sets)
}
