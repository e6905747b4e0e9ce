package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/formulary/backend/config"
	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"},
		},
		Cache: config.CacheConfig{
			Type: "memory",
		},
	}
}

// setupTestRouter creates a test router without a formula service
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, nil)
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler, nil)
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}

	return router
}

// --- Snapshot provider for testing with FormulaService ---

type testSnapshotProvider struct {
	mu         sync.Mutex
	snapshot   *domain.Snapshot
	err        error
	refreshErr error
}

func (p *testSnapshotProvider) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.snapshot, nil
}

func (p *testSnapshotProvider) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	next := *p.snapshot
	next.Version++
	next.LoadedAt = time.Now()
	p.snapshot = &next
	return p.snapshot, nil
}

func testRecords() *domain.Snapshot {
	return &domain.Snapshot{
		Version: 1,
		Herbs: []domain.HerbRecord{
			{ID: "ren-shen", PinyinName: domain.Names{"Ren Shen"}, EnglishNames: domain.Names{"Ginseng"}},
			{ID: "bai-zhu", PinyinName: domain.Names{"Bai Zhu"}},
			{ID: "fu-ling", PinyinName: domain.Names{"Fu Ling"}, LatinName: domain.Names{"Poria cocos"}},
			{ID: "zhi-gan-cao", PinyinName: domain.Names{"Zhi Gan Cao"}},
			{ID: "chen-pi", PinyinName: domain.Names{"Chen Pi"}},
		},
		Formulas: []domain.FormulaRecord{
			{
				ID:          "sjzt",
				PinyinName:  domain.Names{"Si Jun Zi Tang"},
				EnglishName: domain.Names{"Four Gentlemen Decoction"},
				IngredientsAndDosages: domain.Names{
					"Ren Shen 9g",
					"Bai Zhu 9g",
					"Fu Ling 9g",
					"Zhi Gan Cao 6g",
				},
			},
			{
				ID:         "lj",
				PinyinName: domain.Names{"Liu Jun Zi Tang"},
				IngredientsAndDosages: domain.Names{
					"Ren Shen 9g",
					"Bai Zhu 9g",
					"Fu Ling 9g",
					"Zhi Gan Cao 6g",
					"Chen Pi 3g",
					"Ban Xia 4.5g",
					"Da Zao 2 pieces",
				},
			},
		},
		LoadedAt: time.Now(),
	}
}

func setupTestRouterWithService(provider *testSnapshotProvider) *gin.Engine {
	service := usecase.NewFormulaService(provider, nil, nil, usecase.FormulaServiceConfig{})
	handler := NewHandler(service, nil)
	return SetupRouter(testConfig(), handler, nil)
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body %s)", err, w.Body.String())
	}
	return response
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		w := doJSON(router, "GET", "/health", "")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		response := decodeBody(t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "formulary-backend" {
			t.Errorf("service = %v, want formulary-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			w := doJSON(router, method, "/health", "")

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("sets request id header", func(t *testing.T) {
		router := setupTestRouter()

		w := doJSON(router, "GET", "/health", "")

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header not set")
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter()

	// Generate at least one observed request first
	doJSON(router, "GET", "/health", "")
	w := doJSON(router, "GET", "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "formulary_http_requests_total") {
		t.Error("metrics output missing formulary_http_requests_total")
	}
}

// TestServiceNotConfigured tests that API endpoints answer 501 without a service
func TestServiceNotConfigured(t *testing.T) {
	router := setupTestRouter()

	w := doJSON(router, "POST", "/api/v1/dosages/format", `{"dosage":"9g"}`)

	if w.Code != http.StatusNotImplemented {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
	}

	response := decodeBody(t, w)
	errorMsg, ok := response["error"].(string)
	if !ok {
		t.Errorf("error field is not a string: %v", response["error"])
	} else if !strings.Contains(errorMsg, "not configured") {
		t.Errorf("error = %q, want to contain 'not configured'", errorMsg)
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for Chrome extension", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "chrome-extension://abcdefghijklmnop" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "chrome-extension://abcdefghijklmnop")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("api endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/dosages/format", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		w := doJSON(router, "GET", "/panic", "")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		response := decodeBody(t, w)
		if response["request_id"] == "" || response["request_id"] == nil {
			t.Error("expected request_id in panic response")
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("v1 routes are accessible", func(t *testing.T) {
		router := setupTestRouter()

		w := doJSON(router, "POST", "/api/v1/ingredients/parse", "")

		// Should return 501 Not Implemented, not 404 Not Found
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})

	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter()

		w := doJSON(router, "POST", "/api/ingredients/parse", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/ingredients/parse"},
		{"GET", "/api/v1/herbs/resolve?name=ren+shen"},
		{"GET", "/api/v1/formulas/sjzt/resolution"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			w := doJSON(router, endpoint.method, endpoint.path, "")

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}

func TestParseIngredientsEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	t.Run("parses each line", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/ingredients/parse", `{"lines":["Ren Shen (Ginseng) 6-9g","Da Zao 3 pieces"]}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}

		var response struct {
			Ingredients []domain.ParsedIngredient `json:"ingredients"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Ingredients) != 2 {
			t.Fatalf("len(ingredients) = %d, want 2", len(response.Ingredients))
		}

		first := response.Ingredients[0]
		if first.BareName != "Ren Shen" {
			t.Errorf("BareName = %q, want Ren Shen", first.BareName)
		}
		if len(first.Quantities) != 1 || first.Quantities[0].Kind != domain.QuantityGrams ||
			first.Quantities[0].Min != 6 || first.Quantities[0].Max != 9 {
			t.Errorf("Quantities = %+v, want one 6-9g range", first.Quantities)
		}

		second := response.Ingredients[1]
		if len(second.Quantities) != 1 || second.Quantities[0].Kind != domain.QuantityPieces {
			t.Errorf("Quantities = %+v, want pieces", second.Quantities)
		}
	})

	t.Run("returns 400 for empty lines", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/ingredients/parse", `{"lines":[]}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestFormatDosageEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDosage string
	}{
		{"grams", `{"dosage":"9 grams"}`, http.StatusOK, "9g"},
		{"range", `{"dosage":"6 - 9g"}`, http.StatusOK, "6-9g"},
		{"misspelled pieces", `{"dosage":"2 peices"}`, http.StatusOK, "2 pieces"},
		{"garbage", `{"dosage":"a pinch"}`, http.StatusUnprocessableEntity, ""},
		{"empty", `{"dosage":""}`, http.StatusUnprocessableEntity, ""},
		{"malformed body", `{"dosage":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/v1/dosages/format", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			response := decodeBody(t, w)
			if tt.wantStatus == http.StatusOK && response["dosage"] != tt.wantDosage {
				t.Errorf("dosage = %v, want %q", response["dosage"], tt.wantDosage)
			}
			if tt.wantStatus != http.StatusOK && response["error"] == nil {
				t.Error("expected error field in response")
			}
		})
	}
}

func TestSummarizeDosagesEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	t.Run("aggregates grams and pieces", func(t *testing.T) {
		body := `{"dosages":[
			{"herbDisplayName":"Ren Shen","rawDosage":"9g"},
			{"herbDisplayName":"Bai Zhu","rawDosage":"6-9g"},
			{"herbDisplayName":"Da Zao","rawDosage":"3 pieces"}
		]}`
		w := doJSON(router, "POST", "/api/v1/dosages/summary", body)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response SummaryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if !response.HasSummary {
			t.Fatal("HasSummary = false, want true")
		}
		if response.Summary != "Total: 15-18g + 3 pieces (Da Zao)" {
			t.Errorf("Summary = %q", response.Summary)
		}
	})

	t.Run("no parsable quantities", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/dosages/summary", `{"dosages":[{"herbDisplayName":"Ren Shen","rawDosage":"to taste"}]}`)

		var response SummaryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.HasSummary || response.Summary != "" {
			t.Errorf("response = %+v, want no summary", response)
		}
	})
}

func TestResolveHerbEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	t.Run("resolves english alias", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/herbs/resolve?name=ginseng", "")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decodeBody(t, w)
		if response["displayName"] != "Ren Shen" {
			t.Errorf("displayName = %v, want Ren Shen", response["displayName"])
		}
	})

	t.Run("latin name is not matchable", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/herbs/resolve?name=Poria+cocos", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("not found carries suggestions", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/herbs/resolve?name=Bai+Zu", "")

		if w.Code != http.StatusNotFound {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
		response := decodeBody(t, w)
		suggestions, ok := response["suggestions"].([]interface{})
		if !ok || len(suggestions) != 1 {
			t.Fatalf("suggestions = %v, want one entry", response["suggestions"])
		}
		first := suggestions[0].(map[string]interface{})
		if first["id"] != "bai-zhu" {
			t.Errorf("suggestion id = %v, want bai-zhu", first["id"])
		}
	})

	t.Run("missing name", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/herbs/resolve", "")

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestSuggestHerbsEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  float64
	}{
		{"close name", "?name=Bai+Zu", http.StatusOK, 1},
		{"nothing close", "?name=Xyz", http.StatusOK, 0},
		{"missing name", "", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "GET", "/api/v1/herbs/suggest"+tt.query, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			response := decodeBody(t, w)
			if response["count"] != tt.wantCount {
				t.Errorf("count = %v, want %v", response["count"], tt.wantCount)
			}
		})
	}
}

func TestResolveFormulaEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	t.Run("resolves by pinyin name", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/formulas/si-jun-zi-tang/resolution", "")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}

		var resolution domain.FormulaResolution
		if err := json.Unmarshal(w.Body.Bytes(), &resolution); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resolution.Formula.ID != "sjzt" {
			t.Errorf("Formula.ID = %q, want sjzt", resolution.Formula.ID)
		}
		if len(resolution.Ingredients) != 4 || resolution.UnresolvedCount != 0 {
			t.Errorf("ingredients = %d, unresolved = %d, want 4 and 0", len(resolution.Ingredients), resolution.UnresolvedCount)
		}
		if resolution.Summary != "Total: 33g" {
			t.Errorf("Summary = %q, want Total: 33g", resolution.Summary)
		}
	})

	t.Run("unknown formula", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/formulas/xiao-chai-hu-tang/resolution", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestFormulasContainingEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	tests := []struct {
		name      string
		body      string
		wantCount int
	}{
		{"shared herbs", `{"herbs":["Ren Shen","fu ling"]}`, 2},
		{"only in larger formula", `{"herbs":["Chen Pi"]}`, 1},
		{"unknown herb", `{"herbs":["Huang Qi"]}`, 0},
		{"empty held set", `{"herbs":[]}`, 2},
		{"strict through alias", `{"herbs":["Ginseng"],"strict":true}`, 2},
		{"strict skips unresolved lines", `{"herbs":["Ban Xia"],"strict":true}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/v1/formulas/containing", tt.body)

			if w.Code != http.StatusOK {
				t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
			}
			response := decodeBody(t, w)
			if count, _ := response["count"].(float64); int(count) != tt.wantCount {
				t.Errorf("count = %v, want %d", response["count"], tt.wantCount)
			}
		})
	}
}

func TestCompareFormulasEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	t.Run("reports shared keys", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/formulas/compare?a=sjzt&b=Liu+Jun+Zi+Tang", "")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var overlap domain.Overlap
		if err := json.Unmarshal(w.Body.Bytes(), &overlap); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(overlap.Keys) != 4 {
			t.Errorf("Keys = %v, want 4 shared herbs", overlap.Keys)
		}
	})

	t.Run("missing parameter", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/formulas/compare?a=sjzt", "")

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown formula", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/formulas/compare?a=sjzt&b=nope", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestFormulaDeltaEndpoint(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

	w := doJSON(router, "POST", "/api/v1/formulas/lj/delta", `{"held":["Ren Shen","Bai Zhu","Fu Ling","Zhi Gan Cao"]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var transfer domain.Transfer
	if err := json.Unmarshal(w.Body.Bytes(), &transfer); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if transfer.Formula != "Liu Jun Zi Tang" {
		t.Errorf("Formula = %q, want Liu Jun Zi Tang", transfer.Formula)
	}
	if len(transfer.Added) != 1 || transfer.Added[0].Herb.ID != "chen-pi" {
		t.Errorf("Added = %+v, want only chen-pi", transfer.Added)
	}
	if len(transfer.Unresolved) != 2 {
		t.Errorf("len(Unresolved) = %d, want 2 (Ban Xia, Da Zao)", len(transfer.Unresolved))
	}
	if transfer.Summary != "Total: 7.5g + 2 pieces (Da Zao)" {
		t.Errorf("Summary = %q", transfer.Summary)
	}
}

func TestRefreshRecordsEndpoint(t *testing.T) {
	t.Run("bumps snapshot version", func(t *testing.T) {
		router := setupTestRouterWithService(&testSnapshotProvider{snapshot: testRecords()})

		w := doJSON(router, "POST", "/api/v1/records/refresh", "")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decodeBody(t, w)
		if response["version"] != float64(2) {
			t.Errorf("version = %v, want 2", response["version"])
		}
		if response["herbs"] != float64(5) || response["formulas"] != float64(2) {
			t.Errorf("counts = %v/%v, want 5/2", response["herbs"], response["formulas"])
		}
	})

	t.Run("source failure maps to 503", func(t *testing.T) {
		router := setupTestRouterWithService(&testSnapshotProvider{
			snapshot:   testRecords(),
			refreshErr: domain.ErrSnapshotUnavailable,
		})

		w := doJSON(router, "POST", "/api/v1/records/refresh", "")

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestSnapshotUnavailable(t *testing.T) {
	router := setupTestRouterWithService(&testSnapshotProvider{err: domain.ErrSnapshotUnavailable})

	w := doJSON(router, "GET", "/api/v1/herbs/resolve?name=ren+shen", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
