package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/services"
)

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, prompt string) (services.Generation, error) {
	if strings.Contains(prompt, "Instructions:\n- Analyze") {
		return services.Generation{Text: "NO_API", Model: "m"}, nil
	}
	return services.Generation{Text: "Hi there!", Model: "m"}, nil
}

type noFetcher struct{}

func (noFetcher) Fetch(ctx context.Context, path string) ([]byte, bool) { return nil, false }

func newTestRouter() http.Handler {
	orchestrator := services.NewChatOrchestrator(echoGenerator{}, noFetcher{},
		services.Credentials{GeminiAPIKey: "g", FootballDataAPIKey: "f"}, 10)
	return New(handlers.NewChatHandler(orchestrator, time.Minute), "http://localhost:3000")
}

func TestRouter_ChatRoute(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"response":"Hi there!"`) {
		t.Errorf("Unexpected body: %s", rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected CORS origin echo, got %q", got)
	}
	if id := rr.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("Expected generated request id, got %q", id)
	}
}

func TestRouter_Preflight(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Expected POST in allowed methods, got %q", got)
	}
}

func TestRouter_HealthAndUnknownRoutes(t *testing.T) {
	r := newTestRouter()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /health, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405 for GET /api/chat, got %d", rr.Code)
	}
}

func TestRouter_HungModelsStillAnswer500BeforeWriteTimeout(t *testing.T) {
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer hung.Close()

	models := []string{"m1", "m2", "m3", "m4", "m5"}
	primary := services.NewRESTSurface(hung.URL+"/v1beta", "k", 30*time.Second)
	secondary := services.NewRESTSurface(hung.URL+"/v1", "k", 30*time.Second)
	orchestrator := services.NewChatOrchestrator(services.NewGeminiService(models, primary, secondary), noFetcher{},
		services.Credentials{GeminiAPIKey: "g", FootballDataAPIKey: "f"}, 10)

	srv := httptest.NewUnstartedServer(New(handlers.NewChatHandler(orchestrator, 200*time.Millisecond), "*"))
	srv.Config.WriteTimeout = time.Second
	srv.Start()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("Expected an HTTP reply, got transport error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Response != handlers.MsgUnavailable {
		t.Errorf("Expected %q, got %q", handlers.MsgUnavailable, body.Response)
	}
}
