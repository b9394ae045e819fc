package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authkeep"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestErrorTypedKeepsStatusAndMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, authkeep.ValidationError("Validation failed", []string{"email is required"}), false)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body.Success || body.Message != "Validation failed" || len(body.Errors) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestErrorUnknownIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: connection refused"), false)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body.Message != "Internal Server Error" || body.Stack != "" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestErrorDebugIncludesCause(t *testing.T) {
	cause := fmt.Errorf("lookup: %w", errors.New("dial tcp: refused"))
	rec := httptest.NewRecorder()
	Error(rec, cause, true)

	body := decode(t, rec)
	if body.Stack == "" {
		t.Fatal("expected stack in debug mode")
	}
}

func TestRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	RateLimited(rec, "Too many requests", 900)

	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "900" {
		t.Fatalf("status=%d retry-after=%q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if body := decode(t, rec); body.RetryAfter != 900 {
		t.Fatalf("retryAfter = %d", body.RetryAfter)
	}
}
