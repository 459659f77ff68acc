package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveCORS(allowed string, method, origin string, headers map[string]string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(CORSMiddleware(allowed))
	r.GET("/recipes", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/recipe", func(c *gin.Context) { c.String(http.StatusCreated, "ok") })

	path := "/recipes"
	if method != http.MethodGet {
		path = "/recipe"
	}
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware_SimpleRequests(t *testing.T) {
	tests := []struct {
		name        string
		allowed     string
		origin      string
		wantOrigin  string
		wantCreds   string
		wantVary    string
		wantExposed string
	}{
		{"wildcard", "*", "http://example.com", "*", "", "", "X-Session-ID"},
		{"listed origin", "http://allowed.com,http://also-allowed.com", "http://allowed.com", "http://allowed.com", "true", "Origin", "X-Session-ID"},
		{"second listed origin", "http://allowed.com,http://also-allowed.com", "http://also-allowed.com", "http://also-allowed.com", "true", "Origin", "X-Session-ID"},
		{"unlisted origin", "http://allowed.com", "http://not-allowed.com", "", "", "", ""},
		{"no origin header", "http://allowed.com", "", "", "", "", ""},
		{"empty allow list", "", "http://example.com", "", "", "", ""},
		{"whitespace is trimmed", "  http://a.com  ,  http://b.com  ", "http://a.com", "http://a.com", "true", "Origin", "X-Session-ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveCORS(tt.allowed, http.MethodGet, tt.origin, nil)

			// CORS never blocks the request itself.
			if w.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected ACAO '%s', got '%s'", tt.wantOrigin, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("expected Allow-Credentials '%s', got '%s'", tt.wantCreds, got)
			}
			if got := w.Header().Get("Vary"); got != tt.wantVary {
				t.Errorf("expected Vary '%s', got '%s'", tt.wantVary, got)
			}
			if got := w.Header().Get("Access-Control-Expose-Headers"); got != tt.wantExposed {
				t.Errorf("expected Expose-Headers '%s', got '%s'", tt.wantExposed, got)
			}
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	w := serveCORS("*", http.MethodOptions, "http://example.com", map[string]string{
		"Access-Control-Request-Method": "POST",
	})

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Access-Control-Allow-Methods header")
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Session-ID") {
		t.Errorf("expected session header to be allowed by default, got '%s'", got)
	}
}

func TestCORSMiddleware_PreflightEchoesRequestHeaders(t *testing.T) {
	w := serveCORS("http://allowed.com", http.MethodOptions, "http://allowed.com", map[string]string{
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "X-Custom-Header, X-Another",
	})

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "X-Custom-Header, X-Another" {
		t.Errorf("expected echoed headers, got '%s'", got)
	}
}

func TestCORSMiddleware_PreflightDisallowedOrigin(t *testing.T) {
	w := serveCORS("http://allowed.com", http.MethodOptions, "http://evil.com", map[string]string{
		"Access-Control-Request-Method": "POST",
	})

	if w.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Error("expected no preflight headers for disallowed origin")
	}
}
