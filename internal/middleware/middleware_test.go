package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthedRouter() *gin.Engine {
	r := gin.New()
	r.Use(Logger(zap.NewNop()), Auth(testSecret))
	r.GET("/me", func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func get(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ============================================================
// Auth
// ============================================================

func TestAuthAcceptsValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, 42, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w := get(newAuthedRouter(), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"user_id":42}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	wrongKey, _ := IssueToken("other-secret", 42, time.Hour)
	expired, _ := IssueToken(testSecret, 42, -time.Minute)
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte(testSecret))
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "42",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"missing":     "",
		"not bearer":  "Basic abc",
		"wrong key":   "Bearer " + wrongKey,
		"expired":     "Bearer " + expired,
		"bad subject": "Bearer " + badSubject,
		"alg none":    "Bearer " + noneAlg,
	}
	r := newAuthedRouter()
	for name, header := range cases {
		if w := get(r, header); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestIssueTokenRejectsInvalidUser(t *testing.T) {
	if _, err := IssueToken(testSecret, 0, time.Hour); err == nil {
		t.Fatal("expected error for user id 0")
	}
}

// ============================================================
// Rate limiting
// ============================================================

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected first two requests to pass")
	}
	if rl.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("expected keys to be limited independently")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("expected request to pass after the window")
	}
}

func TestRateLimitKeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	r := gin.New()
	r.Use(Auth(testSecret), RateLimit(rl))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	alice, _ := IssueToken(testSecret, 1, time.Hour)
	bob, _ := IssueToken(testSecret, 2, time.Hour)

	if w := get(r, "Bearer "+alice); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := get(r, "Bearer "+alice); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := get(r, "Bearer "+bob); w.Code != http.StatusOK {
		t.Fatalf("expected other user to pass, got %d", w.Code)
	}
}
