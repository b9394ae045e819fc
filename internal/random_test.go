package internal

import (
	"strconv"
	"testing"
)

func TestNewOpaqueTokenShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		tok, err := NewOpaqueToken()
		if err != nil {
			t.Fatalf("NewOpaqueToken: %v", err)
		}
		if !IsOpaqueToken(tok) {
			t.Fatalf("unexpected token shape %q", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestNewOTPRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		otp, err := NewOTP()
		if err != nil {
			t.Fatalf("NewOTP: %v", err)
		}
		n, err := strconv.Atoi(otp)
		if err != nil {
			t.Fatalf("otp %q is not numeric", otp)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("otp %d out of range", n)
		}
	}
}

func TestIsOpaqueTokenRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "zz" + string(make([]byte, 62))} {
		if IsOpaqueToken(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
