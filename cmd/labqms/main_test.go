package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labqms/internal/audit"
	"labqms/internal/blob"
	"labqms/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Audit.Driver = audit.DriverMemory
	cfg.Blob.Driver = blob.DriverMemory
	return cfg
}

func TestBuildWiresSeededService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := build(context.Background(), testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer func() { _ = a.Close() }()

	users, err := a.svc.Users(context.Background())
	if err != nil || len(users) != 10 {
		t.Fatalf("expected seeded users, got %d %v", len(users), err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"login":"admin","password":"1111"}`))
	req.Header.Set("Content-Type", "application/json")
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "token") {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestBuildWithoutSeedAndWithAssistant(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed = false
	cfg.Report.Endpoint = "http://127.0.0.1:1/generate"
	a, err := build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer func() { _ = a.Close() }()
	users, _ := a.svc.Users(context.Background())
	if len(users) != 0 {
		t.Fatalf("expected empty store, got %d users", len(users))
	}
}

func TestBuildRejectsUnknownDrivers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob.Driver = "tape"
	if _, err := build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected blob driver error")
	}
	cfg = testConfig(t)
	cfg.Audit.Driver = "tape"
	if _, err := build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected audit driver error")
	}
}
