package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/userstore/memory"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, serverConfig{})
}

func newTestServerWith(t *testing.T, server serverConfig) *testServer {
	t.Helper()

	cfg := authcore.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(memory.New()).
		WithLogger(logger).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	reg := prometheus.NewRegistry()
	reg.MustRegister(promexport.NewCollector(engine))
	return &testServer{handler: newRouter(engine, reg, server, logger)}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	return s.doWith(method, path, token, body, nil)
}

func (s *testServer) doWith(method, path, token string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHTTPFlow(t *testing.T) {
	s := newTestServer(t)
	creds := credentialsBody{Email: "alice@example.com", Password: "Str0ng!Pass"}

	rec := s.do(http.MethodPost, "/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = s.do(http.MethodPost, "/register", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair authcore.TokenPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pair))
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(1800), pair.ExpiresIn)

	rec = s.do(http.MethodGet, "/protected", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var who map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&who))
	assert.Equal(t, "alice@example.com", who["email"])
	assert.NotNil(t, who["last_login"])

	rec = s.do(http.MethodGet, "/protected", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/refresh-token", pair.RefreshToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed authcore.TokenPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	rec = s.do(http.MethodPost, "/refresh-token", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodPost, "/refresh-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/logout", pair.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPLoginRateLimitedByClientIP(t *testing.T) {
	s := newTestServer(t)
	wrong := credentialsBody{Email: "nobody@example.com", Password: "Wr0ng!Pass"}

	for i := 0; i < 5; i++ {
		rec := s.do(http.MethodPost, "/login", "", wrong)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(http.MethodPost, "/login", "", wrong)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), authcore.CodeRateLimited)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
}

func TestHTTPLoginIgnoresForwardedHeadersByDefault(t *testing.T) {
	s := newTestServer(t)
	wrong := credentialsBody{Email: "nobody@example.com", Password: "Wr0ng!Pass"}

	var codes []int
	for i := 0; i < 6; i++ {
		rec := s.doWith(http.MethodPost, "/login", "", wrong, http.Header{
			"X-Forwarded-For": {fmt.Sprintf("10.0.0.%d", i)},
			"X-Real-Ip":       {fmt.Sprintf("10.0.1.%d", i)},
		})
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, codes)
}

func TestHTTPLoginHonoursForwardedHeadersWhenTrusted(t *testing.T) {
	s := newTestServerWith(t, serverConfig{TrustProxy: true})
	wrong := credentialsBody{Email: "nobody@example.com", Password: "Wr0ng!Pass"}

	for i := 0; i < 5; i++ {
		rec := s.doWith(http.MethodPost, "/login", "", wrong, http.Header{"X-Forwarded-For": {"10.0.0.1"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.doWith(http.MethodPost, "/login", "", wrong, http.Header{"X-Forwarded-For": {"10.0.0.1"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	rec = s.doWith(http.MethodPost, "/login", "", wrong, http.Header{"X-Forwarded-For": {"10.0.0.2"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "another client behind the proxy has its own budget")
}

func TestHTTPRegisterOverLongPasswordIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/register", "", credentialsBody{
		Email:    "long@example.com",
		Password: "Aa1!" + strings.Repeat("x", 2000),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), authcore.CodePolicyViolation)
}

func TestHTTPRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_BAD_REQUEST")
}

func TestHTTPMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	_ = s.do(http.MethodPost, "/login", "", credentialsBody{Email: "x@example.com", Password: "Wr0ng!Pass"})

	rec := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "authcore_login_failure_total 1")
	assert.Contains(t, body, "authcore_http_request_duration_seconds")
}

func TestRemoteHost(t *testing.T) {
	assert.Equal(t, "192.0.2.1", remoteHost("192.0.2.1:1234"))
	assert.Equal(t, "2001:db8::1", remoteHost("[2001:db8::1]:443"))
	assert.Equal(t, "192.0.2.1", remoteHost("192.0.2.1"))
}
