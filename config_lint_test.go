package authkeep

import (
	"net/http"
	"testing"
	"time"
)

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestLint_DefaultConfigNoWarnings(t *testing.T) {
	cfg := validConfig()
	if ws := cfg.Lint(); len(ws) != 0 {
		t.Fatalf("default config should lint clean, got %v", ws.Codes())
	}
}

func TestLint_RevocationFailOpen(t *testing.T) {
	cfg := validConfig()
	cfg.Revocation.FailClosed = false
	if !containsCode(cfg.Lint().Codes(), "revocation_fail_open") {
		t.Error("expected revocation_fail_open warning")
	}
}

func TestLint_LongAccessTTL(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessTTL = 2 * time.Hour
	if !containsCode(cfg.Lint().Codes(), "access_ttl_long") {
		t.Error("expected access_ttl_long warning")
	}
}

func TestLint_CookieShorterThanRefresh(t *testing.T) {
	cfg := validConfig()
	cfg.Cookie.MaxAge = 7 * 24 * time.Hour
	if !containsCode(cfg.Lint().Codes(), "cookie_shorter_than_refresh") {
		t.Error("expected cookie_shorter_than_refresh warning")
	}
}

func TestLint_SameSiteNoneInsecure(t *testing.T) {
	cfg := validConfig()
	cfg.Cookie.SameSite = http.SameSiteNoneMode
	if !containsCode(cfg.Lint().Codes(), "samesite_none_insecure") {
		t.Error("expected samesite_none_insecure warning")
	}
	cfg.Cookie.Secure = true
	if containsCode(cfg.Lint().Codes(), "samesite_none_insecure") {
		t.Error("secure cookie should clear the warning")
	}
}
