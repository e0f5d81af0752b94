package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func send(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimit_AllowsRequestUnderLimit(t *testing.T) {
	handler := NewRateLimiter(WithLimit(100, 200)).Middleware()(http.HandlerFunc(okHandler))

	if code := send(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("got status %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimit_BlocksRequestOverLimit(t *testing.T) {
	handler := NewRateLimiter(WithLimit(1, 2)).Middleware()(http.HandlerFunc(okHandler))

	for i := 0; i < 2; i++ {
		if code := send(handler, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i+1, code, http.StatusOK)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After header, got %q", rr.Header().Get("Retry-After"))
	}
}

func TestRateLimit_ClientsAreIsolated(t *testing.T) {
	handler := NewRateLimiter(WithLimit(1, 1)).Middleware()(http.HandlerFunc(okHandler))

	if code := send(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client: got status %d", code)
	}
	if code := send(handler, "10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("same client, other port: got status %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := send(handler, "10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("second client: got status %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimit_ZeroLimitIsUnlimited(t *testing.T) {
	handler := NewRateLimiter(WithLimit(0, 0)).Middleware()(http.HandlerFunc(okHandler))

	for i := 0; i < 50; i++ {
		if code := send(handler, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i+1, code, http.StatusOK)
		}
	}
}

func TestRateLimit_ExpiredLimiterIsReplaced(t *testing.T) {
	rl := NewRateLimiter(WithLimit(1, 1), WithTTL(10*time.Millisecond))
	handler := rl.Middleware()(http.HandlerFunc(okHandler))

	if code := send(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("got status %d", code)
	}
	time.Sleep(20 * time.Millisecond)

	// the first limiter would still be empty at this rate; a fresh one has a token
	if code := send(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("got status %d after TTL, want %d", code, http.StatusOK)
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	rl := NewRateLimiter(WithLimit(1, 1), WithKeyFunc(func(r *http.Request) string {
		return r.URL.Query().Get("user")
	}))
	handler := rl.Middleware()(http.HandlerFunc(okHandler))

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/?user="+user, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if do("u1") != http.StatusOK || do("u2") != http.StatusOK {
		t.Fatal("expected first request of each user to pass")
	}
	if do("u1") != http.StatusTooManyRequests {
		t.Error("expected second request of u1 to be throttled")
	}
}
