package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turnosbot/turnos/internal/chat"
	appconfig "github.com/turnosbot/turnos/internal/config"
	"github.com/turnosbot/turnos/pkg/logging"
)

func memoryConfig() *appconfig.Config {
	return &appconfig.Config{
		StoreBackend:        appconfig.StoreMemory,
		AdminAPIKey:         "secret",
		RateLimitRPS:        100,
		RateLimitBurst:      100,
		ChatEnabled:         true,
		ChatWorkerCount:     1,
		ChatQueueBuffer:     8,
		BookingsPreviewSize: 5,
		SlotGridOpen:        "09:00",
		SlotGridClose:       "18:00",
		SlotGridStep:        time.Hour,
		MaxSuggestions:      3,
		DedupeTTL:           time.Hour,
	}
}

func startApplication(t *testing.T, cfg *appconfig.Config) *application {
	t.Helper()
	reg := prometheus.NewRegistry()
	app, err := buildApplication(context.Background(), cfg, logging.New("error"), reg, reg)
	if err != nil {
		t.Fatalf("buildApplication: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := app.close(ctx); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return app
}

func serve(app *application, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)
	return rr
}

func TestBuildApplicationMemoryBackendServesHealth(t *testing.T) {
	app := startApplication(t, memoryConfig())

	rr := serve(app, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestBuildApplicationChatWebhookRepliesWithHelp(t *testing.T) {
	app := startApplication(t, memoryConfig())

	rr := serve(app, http.MethodPost, "/chat/webhook", `{"id":"m-1","from":"5491100000000","body":"hola"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != chat.HelpMessage {
		t.Fatalf("expected help message, got %q", resp.Reply)
	}
}

func TestBuildApplicationAdminRequiresKey(t *testing.T) {
	app := startApplication(t, memoryConfig())

	if rr := serve(app, http.MethodGet, "/api/services", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}
	rr := serve(app, http.MethodGet, "/api/services", "", map[string]string{"x-api-key": "secret"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rr.Code)
	}
}

func TestBuildApplicationExposesMetrics(t *testing.T) {
	app := startApplication(t, memoryConfig())
	serve(app, http.MethodPost, "/chat/webhook", `{"id":"m-2","from":"5491100000000","body":"asdkjh"}`, nil)

	rr := serve(app, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "turnos_chat_inbound_total") {
		t.Fatalf("expected chat inbound counter to be exported")
	}
}

func TestBuildApplicationChatDisabledLeavesRoutesUnregistered(t *testing.T) {
	cfg := memoryConfig()
	cfg.ChatEnabled = false
	app := startApplication(t, cfg)

	if app.session != nil {
		t.Fatalf("expected no chat session")
	}
	rr := serve(app, http.MethodPost, "/chat/webhook", `{"body":"hola"}`, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestBuildApplicationRejectsBadGrid(t *testing.T) {
	cfg := memoryConfig()
	cfg.SlotGridOpen = "nueve"

	reg := prometheus.NewRegistry()
	if _, err := buildApplication(context.Background(), cfg, logging.New("error"), reg, reg); err == nil {
		t.Fatalf("expected grid error")
	}
}
