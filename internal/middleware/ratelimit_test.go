package middleware

import (
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Close()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/webhooks/altegio", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes: got %v, want [200 200 429]", codes)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest("POST", "/webhooks/altegio", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("second client: got %d, want 200", rr.Code)
	}
}

func TestRateLimiter_LimitWithCustomResponse(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": "rate limit exceeded"})
	}
	handler := rl.LimitWith(onLimit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))

	var bodies []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/webhooks/altegio", nil)
		req.RemoteAddr = "10.0.0.3:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, rr.Code)
		}
		bodies = append(bodies, rr.Body.String())
	}
	if !strings.Contains(bodies[1], `"success":false`) || !strings.Contains(bodies[1], "rate limit exceeded") {
		t.Errorf("limited body: got %s", bodies[1])
	}
	if strings.Contains(bodies[0], "rate limit") {
		t.Errorf("first request should pass through: %s", bodies[0])
	}
}
