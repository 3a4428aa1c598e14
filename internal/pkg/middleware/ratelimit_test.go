package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gopos/internal/domain"
	"gopos/internal/pkg/middleware"
)

// MockCacheClient é uma implementação mock da interface cache.Client
type MockCacheClient struct {
	mock.Mock
}

func (m *MockCacheClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheClient) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	args := m.Called(ctx, key, expiration)
	return args.Error(0)
}

func (m *MockCacheClient) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func rateLimitedHandler(client *MockCacheClient, limit int, called *bool) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
	return middleware.RateLimiter(client, limit, time.Minute)(next)
}

// TestRateLimiter_FirstRequest_StartsWindow testa a primeira requisição da
// janela: o contador nasce em 1 e ganha o tempo de vida da janela.
func TestRateLimiter_FirstRequest_StartsWindow(t *testing.T) {
	mockCache := new(MockCacheClient)
	called := false

	mockCache.On("Incr", mock.Anything, "rate-limit:1.2.3.4").Return(int64(1), nil)
	mockCache.On("Expire", mock.Anything, "rate-limit:1.2.3.4", time.Minute).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()

	rateLimitedHandler(mockCache, 5, &called).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	mockCache.AssertExpectations(t)
}

// TestRateLimiter_DecidesByIncrResult testa que a decisão usa o valor
// retornado pelo incremento atômico: na fronteira do limite a requisição
// passa, e uma acima dela é barrada, sem janela entre leitura e escrita.
func TestRateLimiter_DecidesByIncrResult(t *testing.T) {
	mockCache := new(MockCacheClient)
	called := false

	// Contador já em 5 (== limite) após o incremento: ainda passa.
	mockCache.On("Incr", mock.Anything, "rate-limit:1.2.3.4").Return(int64(5), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()
	rateLimitedHandler(mockCache, 5, &called).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// Contador em 6 (> limite): barrada.
	called = false
	mockCache.On("Incr", mock.Anything, "rate-limit:1.2.3.4").Return(int64(6), nil).Once()

	rec = httptest.NewRecorder()
	rateLimitedHandler(mockCache, 5, &called).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A rejeição usa o mesmo envelope JSON dos handlers.
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var errResp domain.ErrorResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, http.StatusTooManyRequests, errResp.Code)
	assert.Equal(t, "RATE_LIMITED", errResp.Category)
	mockCache.AssertExpectations(t)
}

// TestRateLimiter_PortlessRemoteAddr testa que um RemoteAddr sem porta
// ainda produz uma chave por IP, e não um balde vazio compartilhado.
func TestRateLimiter_PortlessRemoteAddr(t *testing.T) {
	mockCache := new(MockCacheClient)
	called := false

	mockCache.On("Incr", mock.Anything, "rate-limit:10.0.0.9").Return(int64(2), nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.9"
	rec := httptest.NewRecorder()

	rateLimitedHandler(mockCache, 5, &called).ServeHTTP(rec, req)

	assert.True(t, called)
	mockCache.AssertExpectations(t)
}
