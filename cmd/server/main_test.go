package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	appctx "github.com/bassista/chefs_best_friend/internal/app"
	"github.com/bassista/chefs_best_friend/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T, origins string) *appctx.App {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout:     time.Second,
			CORSAllowedOrigins: origins,
			ShutDownTimeout:    time.Second,
		},
		Store: config.StoreConfig{
			Backend:         config.BackendMemory,
			Collection:      "recipes",
			RequestTimeout:  time.Second,
			ListMaxAttempts: 1,
		},
	}
	app, err := appctx.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app
}

func TestNewRouter_Health(t *testing.T) {
	r := newRouter(newTestApp(t, "*"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"UP"`) {
		t.Errorf("expected UP in body, got %s", w.Body.String())
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	r := newRouter(newTestApp(t, "http://kitchen.local"))

	req := httptest.NewRequest(http.MethodOptions, "/recipe", nil)
	req.Header.Set("Origin", "http://kitchen.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://kitchen.local" {
		t.Errorf("expected origin to be echoed, got '%s'", got)
	}
}

func TestNewRouter_CreateRecipe(t *testing.T) {
	app := newTestApp(t, "*")
	r := newRouter(app)

	req := httptest.NewRequest(http.MethodPost, "/recipe", strings.NewReader(`{"name":"Risotto","servingSize":3}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if n := len(app.Cache.Snapshot()); n != 1 {
		t.Errorf("expected 1 cached recipe, got %d", n)
	}
}

func TestCreateGraceHttpServer(t *testing.T) {
	app := newTestApp(t, "*")
	srv := createGraceHttpServer(app.BaseCtx, "test", app.Config.Server, newRouter(app), app.Cancel)
	if srv == nil {
		t.Fatal("expected server")
	}
}
