package authkeep_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/authtest"
)

func requestOTP(t *testing.T, env *authtest.Env, email string) string {
	t.Helper()
	msg, err := env.Engine.ForgotPassword(context.Background(), email)
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if msg != "Password reset OTP sent to your email" {
		t.Fatalf("unexpected message %q", msg)
	}
	mail, ok := env.Mailer.Last("reset_otp", email)
	if !ok {
		t.Fatal("expected reset email")
	}
	return mail.Secret
}

func TestPasswordResetHappyPath(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	u, login := loginBob(t, env)

	otp := requestOTP(t, env, "bob@example.com")
	if len(otp) != 6 {
		t.Fatalf("expected 6-digit otp, got %q", otp)
	}
	if ttl := env.Redis.TTL("otp:bob@example.com"); ttl != env.Config.Secrets.OTPTTL {
		t.Fatalf("expected otp ttl %v, got %v", env.Config.Secrets.OTPTTL, ttl)
	}

	if _, err := env.Engine.ResetPassword(ctx, "BOB@example.com", otp, "Better456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if env.Redis.Exists("otp:bob@example.com") {
		t.Fatal("expected otp to be consumed")
	}
	if env.Redis.Exists("user_session:" + u.ID) {
		t.Fatal("expected session to be ended")
	}
	if stored, _ := env.Users.FindByID(ctx, u.ID); stored.RefreshToken != login.RefreshToken {
		t.Fatal("reset must not write the refresh slot")
	}
	if _, err := env.Engine.Login(ctx, "bob", "Secret123"); !errors.Is(err, authkeep.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := env.Engine.Login(ctx, "bob", "Better456"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	// The new login superseded the pre-reset refresh token.
	if _, err := env.Engine.Refresh(ctx, login.RefreshToken); !errors.Is(err, authkeep.ErrTokenInvalid) {
		t.Fatalf("expected superseded refresh token to be rejected, got %v", err)
	}
}

func TestPasswordResetOTPIsSingleUse(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	env.VerifiedUser(t, "bob", "bob@example.com", "Secret123", authkeep.RoleUser)
	otp := requestOTP(t, env, "bob@example.com")

	if _, err := env.Engine.ResetPassword(ctx, "bob@example.com", otp, "Better456"); err != nil {
		t.Fatalf("first reset failed: %v", err)
	}
	_, err := env.Engine.ResetPassword(ctx, "bob@example.com", otp, "Another789")
	if !errors.Is(err, authkeep.ErrInvalidCredentials) || authkeep.AsError(err).Message != "Invalid or expired OTP" {
		t.Fatalf("expected reused otp to fail, got %v", err)
	}
}

func TestPasswordResetRejectsWrongAndExpiredOTP(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	env.VerifiedUser(t, "bob", "bob@example.com", "Secret123", authkeep.RoleUser)
	otp := requestOTP(t, env, "bob@example.com")

	wrong := "000000"
	if otp == wrong {
		wrong = "999999"
	}
	if _, err := env.Engine.ResetPassword(ctx, "bob@example.com", wrong, "Better456"); !errors.Is(err, authkeep.ErrInvalidCredentials) {
		t.Fatalf("expected mismatch to fail, got %v", err)
	}
	// A mismatch does not burn the live OTP.
	if !env.Redis.Exists("otp:bob@example.com") {
		t.Fatal("expected otp to survive a mismatch")
	}

	env.Redis.FastForward(env.Config.Secrets.OTPTTL + time.Second)
	if _, err := env.Engine.ResetPassword(ctx, "bob@example.com", otp, "Better456"); !errors.Is(err, authkeep.ErrInvalidCredentials) {
		t.Fatalf("expected expired otp to fail, got %v", err)
	}
}

func TestPasswordResetNewOTPReplacesOld(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	env.VerifiedUser(t, "bob", "bob@example.com", "Secret123", authkeep.RoleUser)

	first := requestOTP(t, env, "bob@example.com")
	var second string
	for i := 0; i < 5; i++ {
		if second = requestOTP(t, env, "bob@example.com"); second != first {
			break
		}
	}
	if second == first {
		t.Skip("random otp collided repeatedly")
	}
	if _, err := env.Engine.ResetPassword(ctx, "bob@example.com", first, "Better456"); !errors.Is(err, authkeep.ErrInvalidCredentials) {
		t.Fatalf("expected replaced otp to fail, got %v", err)
	}
	if _, err := env.Engine.ResetPassword(ctx, "bob@example.com", second, "Better456"); err != nil {
		t.Fatalf("latest otp rejected: %v", err)
	}
}

func TestForgotPasswordUnknownEmailAndMailFailure(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()

	if _, err := env.Engine.ForgotPassword(ctx, "ghost@example.com"); !errors.Is(err, authkeep.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	env.VerifiedUser(t, "bob", "bob@example.com", "Secret123", authkeep.RoleUser)
	env.Mailer.Fail("reset_otp")
	if _, err := env.Engine.ForgotPassword(ctx, "bob@example.com"); err != nil {
		t.Fatalf("mail failure must not fail the request: %v", err)
	}
	if !env.Redis.Exists("otp:bob@example.com") {
		t.Fatal("expected otp to be stored")
	}
	if got := env.Engine.MetricsSnapshot().Counters[authkeep.MetricMailFailure]; got != 1 {
		t.Fatalf("expected one mail failure, got %d", got)
	}
}
