package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"bankcards/internal/adapters/http/middleware"
	"bankcards/internal/adapters/messaging/rabbitmq"
	"bankcards/internal/config"
	"bankcards/internal/core/domain"
	"bankcards/internal/core/services"
	"bankcards/internal/pkg/cardcrypto"
	"bankcards/internal/pkg/password"
	"bankcards/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testKey = "MDEyMzQ1Njc4OWFiY2RlZg=="
	panA    = "4111111111111111"
	panB    = "5500000000000004"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testServer struct {
	app       *fiber.App
	container *Container
}

func newTestServer(t *testing.T, authMax int) *testServer {
	t.Helper()

	cfg := &config.Config{
		AppMode: "dev",
		App:     config.AppConfig{MaxSessionsPerUser: 5},
		Database: config.DatabaseConfig{
			Driver:    "sqlite",
			TxTimeout: 10 * time.Second,
		},
		JWT: config.JWTConfig{
			AccessSecret:    "test-secret",
			AccessTTL:       15 * time.Minute,
			RefreshTTL:      7 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
		Card:      config.CardConfig{EncryptionKey: testKey, IV: cardcrypto.DefaultIV},
		RateLimit: config.RateLimitConfig{Max: 0, AuthMax: authMax},
	}

	container, err := NewContainer(testutil.OpenDB(t), cfg, &rabbitmq.FallbackPublisher{})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	middleware.Setup(app, cfg, nil)
	Setup(app, container, cfg, nil)

	return &testServer{app: app, container: container}
}

// call performs a request and decodes the JSON body into a map
func (s *testServer) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) createUser(t *testing.T, username string, roles ...string) {
	t.Helper()
	_, err := s.container.Users.CreateUser(context.Background(), &services.CreateUserInput{
		Username: username,
		Password: "password123",
		Roles:    roles,
	})
	require.NoError(t, err)
}

func (s *testServer) login(t *testing.T, username string) (string, string) {
	t.Helper()
	status, body := s.call(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status, body)
	return body["accessToken"].(string), body["refreshToken"].(string)
}

func (s *testServer) issueCard(t *testing.T, adminToken, username, number string, balance float64) uint {
	t.Helper()
	status, body := s.call(t, http.MethodPost, "/admin/cards", adminToken, fiber.Map{
		"username":        username,
		"cardNumber":      number,
		"cardHolderName":  "ALICE SMITH",
		"expirationMonth": 12,
		"expirationYear":  time.Now().Year() + 2,
		"initialBalance":  balance,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return uint(body["id"].(float64))
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	status, body := s.call(t, http.MethodPost, "/auth/register", "", fiber.Map{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, []interface{}{domain.RoleUser}, body["roles"])

	status, body = s.call(t, http.MethodPost, "/auth/register", "", fiber.Map{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User Already Exists", body["error"])

	status, body = s.call(t, http.MethodPost, "/auth/register", "", fiber.Map{"username": "al", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation Failed", body["error"])

	status, body = s.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
	assert.NotEmpty(t, body["timestamp"])

	status, body = s.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	access := body["accessToken"].(string)
	refresh := body["refreshToken"].(string)

	status, body = s.call(t, http.MethodGet, "/auth/sessions", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["activeSessionsCount"])
	assert.Equal(t, "alice", body["username"])

	status, body = s.call(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, refresh, body["refreshToken"])

	status, body = s.call(t, http.MethodPost, "/auth/logout", "", fiber.Map{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])

	status, body = s.call(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": refresh})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Refresh Token Not Found", body["error"])

	status, body = s.call(t, http.MethodPost, "/auth/logout-all", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t, 0)
	s.createUser(t, "alice")
	userToken, _ := s.login(t, "alice")

	status, body := s.call(t, http.MethodGet, "/user/cards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"])

	status, _ = s.call(t, http.MethodGet, "/user/cards", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.call(t, http.MethodGet, "/admin/cards", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access Denied", body["error"])

	status, _ = s.call(t, http.MethodGet, "/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.call(t, http.MethodGet, "/user/cards", userToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAccessControl_FollowsAccountChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, 0)
	s.createUser(t, "admin", domain.RoleAdmin)
	s.createUser(t, "alice")
	adminToken, _ := s.login(t, "admin")
	userToken, _ := s.login(t, "alice")

	status, _ := s.call(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	_, err := s.container.Users.UpdateRoles(ctx, "admin", []string{domain.RoleUser})
	require.NoError(t, err)
	status, body := s.call(t, http.MethodGet, "/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access Denied", body["error"])

	_, err = s.container.Users.ToggleStatus(ctx, "alice")
	require.NoError(t, err)
	status, body = s.call(t, http.MethodGet, "/user/cards", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User account is disabled", body["message"])
}

func TestCardEndpoints(t *testing.T) {
	s := newTestServer(t, 0)
	s.createUser(t, "admin", domain.RoleAdmin)
	s.createUser(t, "alice")
	adminToken, _ := s.login(t, "admin")
	userToken, _ := s.login(t, "alice")

	fromID := s.issueCard(t, adminToken, "alice", panA, 100)
	toID := s.issueCard(t, adminToken, "alice", panB, 0)

	status, body := s.call(t, http.MethodPost, "/admin/cards", adminToken, fiber.Map{
		"username": "alice", "cardNumber": panA, "cardHolderName": "ALICE SMITH",
		"expirationMonth": 1, "expirationYear": time.Now().Year() + 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Card Operation Failed", body["error"])

	status, body = s.call(t, http.MethodGet, fmt.Sprintf("/user/cards/%d", fromID), userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "**** **** **** 1111", body["maskedCardNumber"])
	assert.Equal(t, float64(100), body["balance"])

	t.Run("transfer", func(t *testing.T) {
		status, body := s.call(t, http.MethodPost, "/user/cards/transfer", userToken, fiber.Map{
			"fromCardNumber": panA, "toCardNumber": panB, "amount": 30.5, "description": "rent",
		})
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, float64(69.5), body["fromCardBalance"])
		assert.Equal(t, float64(30.5), body["toCardBalance"])
		assert.Equal(t, "**** **** **** 0004", body["toMaskedCardNumber"])
		assert.NotEmpty(t, body["transactionId"])

		status, body = s.call(t, http.MethodPost, "/user/cards/transfer", userToken, fiber.Map{
			"fromCardNumber": panA, "toCardNumber": panB, "amount": 1000,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Transfer Failed", body["error"])
		assert.Equal(t, "insufficient funds", body["message"])

		status, body = s.call(t, http.MethodPost, "/user/cards/transfer", userToken, fiber.Map{
			"fromCardNumber": panA, "toCardNumber": panB, "amount": 0.001,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Validation Failed", body["error"])

		status, body = s.call(t, http.MethodGet, "/user/cards/balance", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(100), body["totalBalance"])
		assert.Equal(t, float64(2), body["cardsCount"])
	})

	t.Run("listing", func(t *testing.T) {
		status, body := s.call(t, http.MethodGet, "/user/cards?sortBy=balance&sortDirection=asc", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), body["totalElements"])
		assert.Equal(t, float64(20), body["size"])
		content := body["content"].([]interface{})
		require.Len(t, content, 2)
		assert.Equal(t, float64(toID), content[0].(map[string]interface{})["id"])

		status, body = s.call(t, http.MethodGet, "/user/cards?cardNumber="+panB, userToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["totalElements"])

		status, body = s.call(t, http.MethodGet, "/user/cards?sortBy=pin", userToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid Parameter", body["error"])

		status, _ = s.call(t, http.MethodGet, "/user/cards?size=101", userToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = s.call(t, http.MethodGet, "/user/cards?page=9223372036854775807", userToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = s.call(t, http.MethodGet, "/user/cards?minBalance=abc", userToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, body = s.call(t, http.MethodGet, "/admin/cards/user/alice?status=active", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), body["totalElements"])
	})

	t.Run("admin operations", func(t *testing.T) {
		status, body := s.call(t, http.MethodPost, fmt.Sprintf("/admin/cards/%d/block", toID), adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, string(domain.CardStatusBlocked), body["status"])

		status, body = s.call(t, http.MethodGet, "/admin/cards/statistics", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), body["totalCards"])
		assert.Equal(t, float64(1), body["blockedCards"])

		status, body = s.call(t, http.MethodDelete, fmt.Sprintf("/admin/cards/%d", toID), adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "cannot delete card with positive balance", body["message"])

		status, body = s.call(t, http.MethodPut, fmt.Sprintf("/admin/cards/%d/balance", toID), adminToken, fiber.Map{"newBalance": 0})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(0), body["balance"])

		status, _ = s.call(t, http.MethodPut, fmt.Sprintf("/admin/cards/%d/balance", toID), adminToken, fiber.Map{"newBalance": -1})
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = s.call(t, http.MethodDelete, fmt.Sprintf("/admin/cards/%d", toID), adminToken, nil)
		assert.Equal(t, http.StatusOK, status)

		status, body = s.call(t, http.MethodGet, fmt.Sprintf("/admin/cards/%d", toID), adminToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Card Not Found", body["error"])
	})
}

func TestBlockRequestEndpoints(t *testing.T) {
	s := newTestServer(t, 0)
	s.createUser(t, "admin", domain.RoleAdmin)
	s.createUser(t, "alice")
	adminToken, _ := s.login(t, "admin")
	userToken, _ := s.login(t, "alice")
	cardID := s.issueCard(t, adminToken, "alice", panA, 10)

	status, body := s.call(t, http.MethodPost, fmt.Sprintf("/user/cards/%d/block-request", cardID), userToken, fiber.Map{"reason": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation Failed", body["error"])

	status, body = s.call(t, http.MethodPost, fmt.Sprintf("/user/cards/%d/block-request", cardID), userToken, fiber.Map{"reason": "card was stolen yesterday"})
	require.Equal(t, http.StatusCreated, status, body)
	requestID := uint(body["id"].(float64))
	assert.Equal(t, string(domain.BlockRequestPending), body["status"])
	assert.Nil(t, body["processedByAdmin"])

	status, body = s.call(t, http.MethodGet, "/user/cards/block-requests", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["totalElements"])
	assert.Equal(t, float64(10), body["size"])

	status, body = s.call(t, http.MethodGet, "/admin/cards/block-requests?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["totalElements"])
	assert.Equal(t, float64(20), body["size"])

	status, body = s.call(t, http.MethodGet, "/admin/cards/block-requests?status=lost", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid Parameter", body["error"])

	path := fmt.Sprintf("/admin/cards/block-requests/%d/process", requestID)
	status, body = s.call(t, http.MethodPost, path, adminToken, fiber.Map{"decision": "later"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid Decision", body["error"])

	status, body = s.call(t, http.MethodPost, path, adminToken, fiber.Map{"decision": "approve", "adminComment": "confirmed"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, string(domain.BlockRequestApproved), body["status"])
	assert.Equal(t, "admin", body["processedByAdmin"])

	status, body = s.call(t, http.MethodPost, path, adminToken, fiber.Map{"decision": "approve"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Block Request Error", body["error"])

	status, body = s.call(t, http.MethodGet, fmt.Sprintf("/user/cards/%d", cardID), userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(domain.CardStatusBlocked), body["status"])

	status, body = s.call(t, http.MethodGet, "/admin/cards/block-requests/statistics", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["approvedRequests"])
}

func TestAdminUserEndpoints(t *testing.T) {
	s := newTestServer(t, 0)
	s.createUser(t, "admin", domain.RoleAdmin)
	adminToken, _ := s.login(t, "admin")

	status, body := s.call(t, http.MethodPost, "/admin/users", adminToken, fiber.Map{
		"username": "carol", "password": "secret1", "roles": []string{"user"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	carolID := uint(body["id"].(float64))

	status, body = s.call(t, http.MethodGet, fmt.Sprintf("/admin/users/id/%d", carolID), adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "carol", body["username"])

	status, body = s.call(t, http.MethodGet, "/admin/users?sortBy=username&sortDirection=desc", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["totalElements"])
	first := body["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "carol", first["username"])

	status, body = s.call(t, http.MethodPut, "/admin/users/carol/roles", adminToken, fiber.Map{"roles": []string{}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.call(t, http.MethodPut, "/admin/users/carol/roles", adminToken, fiber.Map{"roles": []string{"ADMIN"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{domain.RoleAdmin}, body["roles"])

	status, body = s.call(t, http.MethodPatch, "/admin/users/carol/toggle-status", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["enabled"])

	status, body = s.call(t, http.MethodDelete, "/admin/users/carol", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User deleted successfully", body["message"])
	assert.Equal(t, "carol", body["username"])

	status, body = s.call(t, http.MethodGet, "/admin/users/carol", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User Not Found", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 0)

	status, body := s.call(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body = s.call(t, http.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["error"])
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		status, _ := s.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"username": "nobody", "password": "secret1"})
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	status, body := s.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"username": "nobody", "password": "secret1"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too Many Requests", body["error"])
}
