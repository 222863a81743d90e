package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa911/contactform/internal/api/dto/common"
	"github.com/osa911/contactform/internal/config"
	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/repository"
	"github.com/osa911/contactform/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:    "test",
		Port:           "0",
		AllowedOrigins: []string{"https://studio.example"},
		LogLevel:       logging.LevelDebug,
		GlobalRPS:      1000,
		GlobalBurst:    1000,
		MaxBodyBytes:   64 * 1024,
		RateLimit: config.RateLimitConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Window:      time.Hour,
			Store:       config.StoreMemory,
		},
		Spam: config.SpamConfig{
			HoneypotField: "website",
			TimeThreshold: 3 * time.Second,
			Keywords:      []string{"casino"},
		},
		Mail: config.MailConfig{
			Transport:     config.TransportLog,
			SubjectPrefix: "[Contact] ",
		},
		AuditLogFile: filepath.Join(t.TempDir(), "contact_submissions.log"),
	}
}

type testServer struct {
	handler    http.Handler
	components *Components
	cfg        *config.Config
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	logger := logging.New(io.Discard, logging.LevelDebug)

	components, err := Bootstrap(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { components.Close() })

	srv := NewServer(cfg, logger)
	srv.Init(components.Contact)
	return &testServer{handler: srv.Handler(), components: components, cfg: cfg}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

const validJSON = `{"name":"Ada","email":"ada@example.com","message":"Hello","privacy":"yes","subject":"Web"}`

func envelope(t *testing.T, w *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestContactEndpoint_Accepts(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.do(postJSON("/api/v1/contact", validJSON))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Message sent successfully!"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	require.NoError(t, s.components.Close())
	data, err := os.ReadFile(s.cfg.AuditLogFile)
	require.NoError(t, err)
	var record service.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "Ada", record.Name)
	assert.Equal(t, "Web", record.ProjectType)
	assert.Equal(t, "192.0.2.1", record.IPAddress)
}

func TestContactEndpoint_LegacyFormPath(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	form := url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello"},
		"privacy": {"on"},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact.php", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := s.do(req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestContactEndpoint_MultipartForm(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, field := range [][2]string{
		{"name", "Ada"},
		{"email", "ada@example.com"},
		{"message", "Hello"},
		{"privacy", "on"},
	} {
		require.NoError(t, mw.WriteField(field[0], field[1]))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Message sent successfully!"}`, w.Body.String())
}

func TestContactEndpoint_RateLimit(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	for i := 0; i < 5; i++ {
		w := s.do(postJSON("/api/v1/contact", validJSON))
		require.Equal(t, http.StatusOK, w.Code, "submission %d", i+1)
	}

	w := s.do(postJSON("/api/v1/contact", validJSON))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, common.APIResponse{Message: service.MsgRateLimited}, envelope(t, w))

	status, err := s.components.Limiter.Status(t.Context(), "192.0.2.1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, status.Used)
	assert.Equal(t, 0, status.Remaining)
}

func TestContactEndpoint_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       common.APIResponse
	}{
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
			want:       common.APIResponse{Message: service.MsgNoData},
		},
		{
			name:       "honeypot",
			body:       `{"name":"","email":"bad","website":"x"}`,
			wantStatus: http.StatusBadRequest,
			want:       common.APIResponse{Message: service.MsgSpamRejected},
		},
		{
			name:       "only name missing",
			body:       `{"name":"","email":"x@y.com","message":"hi","privacy":"yes"}`,
			wantStatus: http.StatusBadRequest,
			want: common.APIResponse{
				Message: service.MsgValidationFailed,
				Errors:  map[string]string{"name": "Name is required"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(t))
			w := s.do(postJSON("/api/v1/contact", tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.want, envelope(t, w))
		})
	}
}

func TestContactEndpoint_MethodsAndCORS(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/contact", nil)
	req.Header.Set("Origin", "https://studio.example")
	w := s.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://studio.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = postJSON("/api/v1/contact", validJSON)
	req.Header.Set("Origin", "https://other.example")
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	for _, path := range []string{"/api/v1/contact", "/contact.php"} {
		w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.JSONEq(t, `{"success":false,"message":"Method not allowed"}`, w.Body.String())
	}
}

func TestContactEndpoint_BodyTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxBodyBytes = 32
	s := newTestServer(t, cfg)

	w := s.do(postJSON("/api/v1/contact", validJSON))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestContactEndpoint_FloodGuard(t *testing.T) {
	cfg := testConfig(t)
	cfg.GlobalRPS = 0.001
	cfg.GlobalBurst = 1
	s := newTestServer(t, cfg)

	require.Equal(t, http.StatusOK, s.do(postJSON("/api/v1/contact", validJSON)).Code)

	req := postJSON("/api/v1/contact", validJSON)
	req.RemoteAddr = "198.51.100.7:4000"
	w := s.do(req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	s.do(postJSON("/api/v1/contact", validJSON))

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contact_submissions_total")
}

func TestBootstrap_RateLimitDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Enabled = false
	s := newTestServer(t, cfg)
	assert.Nil(t, s.components.Limiter)

	for i := 0; i < 7; i++ {
		require.Equal(t, http.StatusOK, s.do(postJSON("/api/v1/contact", validJSON)).Code)
	}
}

func TestBootstrap_SpamKeywordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - hello\n"), 0644))

	cfg := testConfig(t)
	cfg.Spam.KeywordsFile = path
	s := newTestServer(t, cfg)

	w := s.do(postJSON("/api/v1/contact", validJSON))
	assert.Equal(t, service.MsgSpamRejected, envelope(t, w).Message)

	cfg = testConfig(t)
	cfg.Spam.KeywordsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Bootstrap(cfg, logging.New(io.Discard, logging.LevelInfo))
	assert.Error(t, err)
}

func TestNewAttemptRepository(t *testing.T) {
	for _, store := range []string{config.StoreFile, config.StoreMemory, config.StoreRedis} {
		repo, closeRepo, err := NewAttemptRepository(config.RateLimitConfig{
			Store:     store,
			File:      filepath.Join(t.TempDir(), "attempts.json"),
			RedisAddr: "127.0.0.1:1",
			Window:    time.Hour,
		})
		require.NoError(t, err, store)
		assert.NotNil(t, repo)
		assert.NoError(t, closeRepo())
	}

	_, closeRepo, err := NewAttemptRepository(config.RateLimitConfig{Store: "etcd"})
	assert.Error(t, err)
	assert.NoError(t, closeRepo())
}

func TestNewAttemptRepository_FileStoreIsShared(t *testing.T) {
	cfg := config.RateLimitConfig{Store: config.StoreFile, File: filepath.Join(t.TempDir(), "attempts.json")}

	first, _, err := NewAttemptRepository(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Save(t.Context(), []repository.Attempt{repository.NewAttempt("a", time.Now())}))

	second, _, err := NewAttemptRepository(cfg)
	require.NoError(t, err)
	attempts, err := second.Load(t.Context())
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.New(io.Discard, logging.LevelInfo)

	n, err := NewNotifier(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "log", n.Name())

	cfg.Mail.Transport = config.TransportSMTP
	n, err = NewNotifier(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "smtp", n.Name())

	cfg.Mail.Transport = config.TransportTelegram
	n, err = NewNotifier(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "telegram", n.Name())

	cfg.Mail.Transport = "pigeon"
	_, err = NewNotifier(cfg, logger)
	assert.Error(t, err)
}
