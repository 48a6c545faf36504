package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"coin-heist/internal/db"
	"coin-heist/internal/metrics"
	"coin-heist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router *gin.Engine
	econ   *service.Economy
	auth   service.AuthService
}

func newTestServer(t *testing.T, draw float64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	store := db.NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	econ, err := service.NewEconomy(context.Background(), store, log,
		service.WithRandom(func() float64 { return draw }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = econ.Close() })

	auth := service.NewAuthService(log, "secret")
	router := NewRouter(&Handlers{Economy: econ, Logger: log}, RouterConfig{
		Auth:       auth,
		AdminRoles: []string{"admin"},
		Metrics:    metrics.New(),
	})
	return &testServer{router: router, econ: econ, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path, userID string, roles []string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.auth.IssueToken(userID, roles, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandlers_RequireToken(t *testing.T) {
	s := newTestServer(t, 0.99)
	w := s.do(t, http.MethodGet, "/api/balance", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlers_GiveAndBalance(t *testing.T) {
	s := newTestServer(t, 0.99)
	admin := []string{"admin"}

	w := s.do(t, http.MethodPost, "/api/admin/gencoins", "root", admin, AdminRequest{User: "alice", Amount: 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/give", "alice", nil, GiveRequest{ToUser: "bob", Amount: 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	give := decode[GiveResponse](t, w)
	assert.Equal(t, int64(60), give.FromBalance)
	assert.Equal(t, int64(40), give.ToBalance)

	w = s.do(t, http.MethodGet, "/api/balance", "alice", nil, nil)
	assert.Equal(t, int64(60), decode[BalanceResponse](t, w).Balance)

	w = s.do(t, http.MethodGet, "/api/balance?user=bob", "alice", nil, nil)
	assert.Equal(t, BalanceResponse{User: "bob", Balance: 40}, decode[BalanceResponse](t, w))
}

func TestHandlers_DomainErrorsAreEphemeral(t *testing.T) {
	s := newTestServer(t, 0.99)

	w := s.do(t, http.MethodPost, "/api/give", "alice", nil, GiveRequest{ToUser: "bob", Amount: 5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "insufficient_funds", resp.Error)
	assert.True(t, resp.Ephemeral)

	w = s.do(t, http.MethodPost, "/api/buy", "alice", nil, map[string]any{"item": "rocket"})
	assert.Equal(t, "unknown_item", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/api/give", "alice", nil, map[string]any{"amount": 5})
	assert.Equal(t, "bad_request", decode[ErrorResponse](t, w).Error)
}

func TestHandlers_BuyDefaultsToOne(t *testing.T) {
	s := newTestServer(t, 0.99)
	s.do(t, http.MethodPost, "/api/admin/gencoins", "root", []string{"admin"}, AdminRequest{User: "alice", Amount: 10})

	w := s.do(t, http.MethodPost, "/api/buy", "alice", nil, map[string]any{"item": "bullet"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	buy := decode[BuyResponse](t, w)
	assert.Equal(t, int64(1), buy.Quantity)
	assert.Equal(t, int64(8), buy.Balance)
	assert.Equal(t, int64(1), buy.Inventory.Bullet)
}

func TestHandlers_StealAndCooldown(t *testing.T) {
	s := newTestServer(t, 0.99)
	s.do(t, http.MethodPost, "/api/admin/gencoins", "root", []string{"admin"}, AdminRequest{User: "bob", Amount: 3})

	w := s.do(t, http.MethodPost, "/api/steal", "alice", nil, StealRequest{Victim: "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	steal := decode[StealResponse](t, w)
	assert.Equal(t, "success", steal.Outcome)
	assert.Equal(t, int64(1), steal.Balance)

	w = s.do(t, http.MethodPost, "/api/steal", "alice", nil, StealRequest{Victim: "bob"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "cooldown", resp.Error)
	require.NotNil(t, resp.RemainingSeconds)
	assert.Greater(t, *resp.RemainingSeconds, int64(86000))

	w = s.do(t, http.MethodPost, "/api/steal", "carol", nil, StealRequest{Victim: "nobody"})
	assert.Equal(t, "nothing_to_steal", decode[StealResponse](t, w).Outcome)

	w = s.do(t, http.MethodGet, "/api/info", "alice", nil, nil)
	info := decode[InfoResponse](t, w)
	assert.Greater(t, info.CooldownSeconds, int64(0))
	assert.Len(t, info.RecentTransaction, 1)
}

func TestHandlers_AdminRequiresRole(t *testing.T) {
	s := newTestServer(t, 0.99)

	w := s.do(t, http.MethodPost, "/api/admin/setcoins", "alice", []string{"member"}, AdminRequest{User: "alice", Amount: 1000})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/admin/setcoins", "root", []string{"admin"}, AdminRequest{User: "alice", Amount: -1})
	assert.Equal(t, "negative_balance", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/api/admin/takecoins", "root", []string{"admin"}, AdminRequest{User: "alice", Amount: 20})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, AdminResponse{User: "alice", Amount: 0, Requested: 20, Balance: 0}, decode[AdminResponse](t, w))

	w = s.do(t, http.MethodGet, "/api/admin/history?limit=10", "root", []string{"admin"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"takecoins"`)

	w = s.do(t, http.MethodGet, "/api/admin/history?limit=x", "root", []string{"admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_ClosedEconomy(t *testing.T) {
	s := newTestServer(t, 0.99)
	require.NoError(t, s.econ.Close())

	w := s.do(t, http.MethodGet, "/api/balance", "alice", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "shutting_down", decode[ErrorResponse](t, w).Error)
}
