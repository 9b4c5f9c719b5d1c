package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/config"
	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/service"
)

type stubCaller struct {
	body string
	err  error
}

func (c *stubCaller) Call(context.Context, service.RequestSpec) (any, error) {
	if c.err != nil {
		return nil, c.err
	}
	var v any
	if err := json.Unmarshal([]byte(c.body), &v); err != nil {
		return nil, err
	}
	return v, nil
}

type stubCalls struct {
	limit   int
	records []*model.CallRecord
}

func (s *stubCalls) Record(context.Context, *model.CallRecord) error { return nil }

func (s *stubCalls) Recent(_ context.Context, limit int) ([]*model.CallRecord, error) {
	s.limit = limit
	return s.records, nil
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

const bidBody = `{"response":{"body":{"items":[
	{"bidNtceNo":"1","bidNtceNm":"a","ntceInsttNm":"x","presmptPrce":"100"}
],"totalCount":1}}}`

func newProcurement(caller service.Caller, opts ...service.ProcurementOption) service.IProcurementService {
	cfg := config.Default().Upstream
	cfg.ServiceKey = "k"
	return service.NewProcurementService(caller, cfg, zerolog.Nop(), opts...)
}

func newRouter(caller service.Caller) http.Handler {
	return SetupRouter(RouterDeps{Procurement: newProcurement(caller), Logger: zerolog.Nop()})
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: response is not a JSON object: %q", method, path, rec.Body.String())
	}
	return rec, out
}

func TestRouter_InfoRoutes(t *testing.T) {
	h := newRouter(&stubCaller{})

	tests := []struct {
		path string
		code int
		key  string
	}{
		{"/api/v1/", http.StatusOK, "name"},
		{"/api/v1/server/info", http.StatusOK, "services"},
		{"/api/v1/services", http.StatusOK, "services"},
		{"/api/v1/services/contract_info", http.StatusOK, "operations"},
		{"/api/v1/services/weather", http.StatusNotFound, "error"},
		{"/api/v1/fields/bid_announcement", http.StatusOK, "field_details"},
		{"/api/v1/fields/weather", http.StatusNotFound, "available_types"},
		{"/api/v1/formats", http.StatusOK, "response_formats"},
		{"/api/v1/regions", http.StatusOK, "11"},
		{"/health", http.StatusOK, "status"},
		{"/api/v1/nothing-here", http.StatusNotFound, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, out := do(t, h, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %v", tt.code, rec.Code, out)
			}
			if _, ok := out[tt.key]; !ok {
				t.Errorf("expected key %q in %v", tt.key, out)
			}
		})
	}
}

func TestRouter_Tool(t *testing.T) {
	tests := []struct {
		name   string
		caller *stubCaller
		path   string
		body   string
		code   int
	}{
		{"ok", &stubCaller{body: bidBody}, "/api/v1/tools/bid_announcement", `{"operation":"goods","response_format":"minimal"}`, http.StatusOK},
		{"bad json", &stubCaller{}, "/api/v1/tools/bid_announcement", `{"operation":`, http.StatusBadRequest},
		{"unknown field", &stubCaller{}, "/api/v1/tools/bid_announcement", `{"operation":"goods","colour":"red"}`, http.StatusBadRequest},
		{"missing operation", &stubCaller{}, "/api/v1/tools/bid_announcement", `{}`, http.StatusBadRequest},
		{"unknown service", &stubCaller{}, "/api/v1/tools/weather", `{"operation":"goods"}`, http.StatusNotFound},
		{"unknown operation", &stubCaller{}, "/api/v1/tools/bid_announcement", `{"operation":"ships"}`, http.StatusNotFound},
		{"upstream status", &stubCaller{err: &service.UpstreamStatusError{StatusCode: 500}}, "/api/v1/tools/bid_announcement", `{"operation":"goods"}`, http.StatusBadGateway},
		{"timeout", &stubCaller{err: fmt.Errorf("%w: after 30s", service.ErrRequestTimeout)}, "/api/v1/tools/bid_announcement", `{"operation":"goods"}`, http.StatusGatewayTimeout},
		{"internal", &stubCaller{err: errors.New("boom")}, "/api/v1/tools/bid_announcement", `{"operation":"goods"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, newRouter(tt.caller), http.MethodPost, tt.path, tt.body, nil)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %v", tt.code, rec.Code, out)
			}
			if tt.code != http.StatusOK && out["success"] != false {
				t.Errorf("expected error envelope, got %v", out)
			}
		})
	}
}

func TestRouter_ToolPaginate(t *testing.T) {
	rec, out := do(t, newRouter(&stubCaller{body: bidBody}), http.MethodPost,
		"/api/v1/tools/bid_announcement?paginate=true", `{"operation":"goods","num_of_rows":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, out)
	}
	p, ok := out["pagination"].(map[string]any)
	if !ok || p["total_count"] != float64(1) || p["has_next"] != false {
		t.Errorf("unexpected pagination %v", out["pagination"])
	}
}

func TestRouter_SizeCheck(t *testing.T) {
	h := newRouter(&stubCaller{})
	body := fmt.Sprintf(`{"response":{"blob":%q},"max_size":10}`, strings.Repeat("x", 50))

	rec, out := do(t, h, http.MethodPost, "/api/v1/size-check", body, nil)
	if rec.Code != http.StatusOK || out["compression_needed"] != true {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/v1/size-check", `{"max_size":10}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without response, got %d", rec.Code)
	}
}

func TestRouter_CrawlList(t *testing.T) {
	body := `{"response":{"body":{"items":[{"prdctIdntNo":"1"}],"totalCount":1}}}`
	rec, out := do(t, newRouter(&stubCaller{body: body}), http.MethodPost, "/api/v1/crawl-list", `{"category":"노트북컴퓨터"}`, nil)
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}

	rec, _ = do(t, newRouter(&stubCaller{err: errors.New("boom")}), http.MethodPost, "/api/v1/crawl-list", `{"category":"노트북컴퓨터"}`, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestRouter_Auth(t *testing.T) {
	h := SetupRouter(RouterDeps{
		Procurement: newProcurement(&stubCaller{body: bidBody}),
		Auth:        service.NewAuthService("secret"),
		Logger:      zerolog.Nop(),
	})
	body := `{"operation":"goods"}`

	rec, _ := do(t, h, http.MethodPost, "/api/v1/tools/bid_announcement", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/v1/tools/bid_announcement", body, http.Header{"Authorization": {"Token abc"}})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed header, got %d", rec.Code)
	}

	expired := bearerToken(t, "secret", -time.Minute)
	_, out := do(t, h, http.MethodPost, "/api/v1/tools/bid_announcement", body, http.Header{"Authorization": {"Bearer " + expired}})
	if out["error"] != "Token has expired" {
		t.Errorf("expected expired token error, got %v", out)
	}

	token := bearerToken(t, "secret", time.Hour)
	rec, out = do(t, h, http.MethodPost, "/api/v1/tools/bid_announcement", body, http.Header{"Authorization": {"Bearer " + token}})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d: %v", rec.Code, out)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/v1/formats", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("info routes must stay public, got %d", rec.Code)
	}
}

func bearerToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.Claims{
		Scope: "tools",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			Issuer:    service.AppName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRouter_Calls(t *testing.T) {
	calls := &stubCalls{records: []*model.CallRecord{{ID: uuid.New(), Endpoint: "e", Attempts: 1}}}
	h := SetupRouter(RouterDeps{Procurement: newProcurement(&stubCaller{}), Calls: calls, Logger: zerolog.Nop()})

	rec, out := do(t, h, http.MethodGet, "/api/v1/calls?limit=5", "", nil)
	if rec.Code != http.StatusOK || calls.limit != 5 {
		t.Fatalf("unexpected response %d %v (limit %d)", rec.Code, out, calls.limit)
	}
	if list, _ := out["calls"].([]any); len(list) != 1 {
		t.Errorf("expected one call, got %v", out["calls"])
	}

	rec, _ = do(t, h, http.MethodGet, "/api/v1/calls?limit=abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec, _ = do(t, newRouter(&stubCaller{}), http.MethodGet, "/api/v1/calls", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without call log, got %d", rec.Code)
	}
}

func TestRouter_HealthDegraded(t *testing.T) {
	h := SetupRouter(RouterDeps{
		Procurement: newProcurement(&stubCaller{}, service.WithPinger("redis", downPinger{})),
		Logger:      zerolog.Nop(),
	})
	rec, out := do(t, h, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable || out["status"] != "degraded" {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}
}

func TestRouter_MountsMCP(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithJson(w, http.StatusTeapot, map[string]string{"path": r.URL.Path})
	})
	h := SetupRouter(RouterDeps{Procurement: newProcurement(&stubCaller{}), MCP: mcp, Logger: zerolog.Nop()})

	rec, out := do(t, h, http.MethodPost, "/mcp", "{}", nil)
	if rec.Code != http.StatusTeapot || out["path"] != "/mcp" {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}
}

func TestRouter_CORSExposesMCPHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	newRouter(&stubCaller{}).ServeHTTP(rec, req)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	if !strings.Contains(exposed, "Mcp-Session-Id") {
		t.Errorf("expected Mcp-Session-Id to be exposed, got %q", exposed)
	}
}
