package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(t *testing.T, send func(c *gin.Context)) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	send(c)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func TestAnalyticsReportsGaps(t *testing.T) {
	cases := []struct {
		hasGaps bool
		message string
	}{
		{false, "success"},
		{true, MessagePartial},
	}
	for _, tc := range cases {
		code, body := record(t, func(c *gin.Context) {
			Analytics(c, map[string]int{"days": 3}, tc.hasGaps)
		})
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if body["message"] != tc.message {
			t.Errorf("hasGaps=%v: expected message %q, got %v", tc.hasGaps, tc.message, body["message"])
		}
		meta, ok := body["meta"].(map[string]interface{})
		if !ok || meta["has_gaps"] != tc.hasGaps {
			t.Errorf("hasGaps=%v: unexpected meta %v", tc.hasGaps, body["meta"])
		}
	}
}

func TestPlainResponsesOmitMeta(t *testing.T) {
	_, body := record(t, func(c *gin.Context) { Success(c, "ok") })
	if _, ok := body["meta"]; ok {
		t.Fatalf("success must not carry meta: %v", body)
	}

	code, body := record(t, func(c *gin.Context) { BadRequest(c, "nope") })
	if code != http.StatusBadRequest || body["code"].(float64) != http.StatusBadRequest {
		t.Fatalf("unexpected error envelope %d %v", code, body)
	}
	if _, ok := body["data"]; ok {
		t.Fatalf("errors must not carry data: %v", body)
	}
}
