package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("Leben in Deutschland ", 200)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) {
		// Several writes, the last one below the threshold.
		c.String(http.StatusOK, body)
		c.Writer.WriteString("tail")
	})
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, headers: %v", w.Header())
	}
	got, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got) != body+"tail" {
		t.Fatalf("decoded body mismatch (%d bytes)", len(got))
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("small body must pass through, got %q %v", w.Body.String(), w.Header())
	}
}

func TestRateLimiterBlocksAfterBudget(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(2, time.Minute).Middleware())
	r.POST("/start", func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 3)
	var retryAfter string
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/start", nil))
		codes[i] = w.Code
		retryAfter = w.Header().Get("Retry-After")
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if retryAfter == "" {
		t.Fatal("Retry-After missing on 429")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.take("10.0.0.1"); !ok {
			t.Fatalf("take %d rejected", i)
		}
	}
	ok, wait := rl.take("10.0.0.1")
	if ok || wait != 30*time.Second {
		t.Fatalf("ok=%v wait=%v, want rejection with 30s wait", ok, wait)
	}
	if ok, _ := rl.take("10.0.0.2"); !ok {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := rl.take("10.0.0.1"); !ok {
		t.Fatal("one token should have refilled after half an interval")
	}
}

func TestPublicCacheOnlyForGet(t *testing.T) {
	r := gin.New()
	r.Use(PublicCache(5 * time.Minute))
	r.GET("/providers", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/providers", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers", nil))
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Fatalf("Cache-Control = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/providers", nil))
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Fatalf("POST Cache-Control = %q", got)
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/attempts/x/paper", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attempts/x/paper", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
}
