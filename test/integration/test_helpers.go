//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clientvault/internal/config"
	"clientvault/internal/handler"
	"clientvault/internal/middleware"
	"clientvault/internal/model"
	"clientvault/internal/router"
	"clientvault/internal/service"
	"clientvault/internal/taxyear"
)

type testServer struct {
	*httptest.Server
	auth *service.AuthService
}

func newServer(t *testing.T) *testServer {
	return newServerWithConfig(t, nil)
}

func newServerWithConfig(t *testing.T, tweak func(*config.Config)) *testServer {
	t.Helper()

	usersFile := filepath.Join(t.TempDir(), "users.json")
	authService, err := service.NewAuthService(usersFile, "test-secret", 15*time.Minute, 24*time.Hour, "admin@example.com", "admin123")
	require.NoError(t, err)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	years, err := taxyear.NewStore(filepath.Join(t.TempDir(), "taxyears.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = years.Close() })

	registryService, err := service.NewRegistryService(t.TempDir(), service.NewStructureService(), years)
	require.NoError(t, err)

	auditService, err := service.NewAuditService(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	itemService := service.NewItemService(1024 * 1024)
	trashService := service.NewTrashService()

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		MaxUploadSize:    1024 * 1024,
		JWTSecret:        "test-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    24 * time.Hour,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}
	if tweak != nil {
		tweak(cfg)
	}

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, auditService),
		Client: handler.NewClientHandler(registryService, auditService),
		Files:  handler.NewFilesHandler(registryService, itemService, authService, auditService, cfg.MaxUploadSize),
		Trash:  handler.NewTrashHandler(registryService, trashService, authService, auditService),
		Audit:  handler.NewAuditHandler(auditService),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return &testServer{Server: server, auth: authService}
}

func (s *testServer) login(t *testing.T, email string, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	resp, err := http.Post(s.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.True(t, parsed.Success)
	require.NotEmpty(t, parsed.Data.AccessToken)

	return parsed.Data.AccessToken
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	return s.login(t, "admin@example.com", "admin123")
}

// registerClientUser creates a client-role user bound to a workspace,
// bypassing the HTTP surface for brevity, and returns its access token.
func (s *testServer) registerClientUser(t *testing.T, email string, client string, capability *model.Capability) string {
	t.Helper()

	_, err := s.auth.Register(model.RegisterRequest{
		Email:      email,
		Password:   "pw123456",
		Role:       model.RoleClient,
		Client:     client,
		Capability: capability,
	})
	require.NoError(t, err)

	return s.login(t, email, "pw123456")
}

func (s *testServer) createClient(t *testing.T, token string, name string, clientType string, flags model.ServiceFlags) {
	t.Helper()

	payload, err := json.Marshal(model.CreateClientRequest{Name: name, Type: clientType, Flags: flags})
	require.NoError(t, err)

	resp := doRequest(t, newAuthRequest(t, http.MethodPost, s.URL+"/api/v1/clients/", payload, token))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func newAuthRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, target any) {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.True(t, envelope.Success, "expected success envelope, got: %s", string(raw))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func decodeErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()

	var envelope struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)

	return envelope.Error.Code
}
