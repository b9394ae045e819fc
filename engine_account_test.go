package authkeep_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/authtest"
	"github.com/MrEthical07/authkeep/userstore"
)

func registerAlice(t *testing.T, env *authtest.Env) *authkeep.AuthResult {
	t.Helper()
	res, err := env.Engine.Register(context.Background(), authkeep.RegisterRequest{
		Fullname: "Alice Liddell",
		Username: "alice",
		Email:    " Alice@Example.com ",
		Password: "Secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return res
}

func TestRegisterCreatesUnverifiedUserWithSession(t *testing.T) {
	env := authtest.New(t)
	res := registerAlice(t, env)

	if res.AccessToken == "" || res.RefreshToken == "" || res.SessionID == "" {
		t.Fatalf("expected tokens and session, got %+v", res)
	}
	if res.User.Email != "alice@example.com" || res.User.IsEmailVerified || !res.User.IsActive {
		t.Fatalf("unexpected profile %+v", res.User)
	}
	if res.User.Role != authkeep.RoleUser {
		t.Fatalf("expected role user, got %s", res.User.Role)
	}

	if !env.Redis.Exists("session:" + res.SessionID) {
		t.Fatal("expected session record")
	}
	if got, _ := env.Redis.Get("user_session:" + res.User.ID); got != res.SessionID {
		t.Fatalf("expected user pointer to %s, got %q", res.SessionID, got)
	}

	mail, ok := env.Mailer.Last("verification", "alice@example.com")
	if !ok {
		t.Fatal("expected verification email")
	}
	if len(mail.Secret) != 64 {
		t.Fatalf("expected 64-char verification token, got %q", mail.Secret)
	}
	if ttl := env.Redis.TTL("temp:verify:alice@example.com"); ttl != env.Config.Secrets.VerificationTTL {
		t.Fatalf("expected verification ttl %v, got %v", env.Config.Secrets.VerificationTTL, ttl)
	}

	stored, err := env.Users.FindByID(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.RefreshToken != res.RefreshToken {
		t.Fatal("expected refresh slot to hold the issued token")
	}
}

func TestRegisterConflicts(t *testing.T) {
	env := authtest.New(t)
	registerAlice(t, env)

	_, err := env.Engine.Register(context.Background(), authkeep.RegisterRequest{
		Fullname: "Other", Username: "other", Email: "alice@example.com", Password: "Secret123",
	})
	if !errors.Is(err, authkeep.ErrConflict) || authkeep.AsError(err).Message != "Email already registered" {
		t.Fatalf("expected email conflict, got %v", err)
	}

	_, err = env.Engine.Register(context.Background(), authkeep.RegisterRequest{
		Fullname: "Other", Username: "alice", Email: "other@example.com", Password: "Secret123",
	})
	if !errors.Is(err, authkeep.ErrConflict) || authkeep.AsError(err).Message != "Username already taken" {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

// staleLookups answers lookups with "not found" while stale is set, as a store would
// for a caller whose availability check ran before a concurrent insert landed.
type staleLookups struct {
	*userstore.Memory
	stale *atomic.Bool
}

func (s staleLookups) FindByField(ctx context.Context, field authkeep.UserField, value string) (*authkeep.UserRecord, error) {
	if s.stale.Load() {
		return nil, authkeep.ErrUserNotFound
	}
	return s.Memory.FindByField(ctx, field, value)
}

func TestRegisterLosingInsertKeepsWinnersToken(t *testing.T) {
	ctx := context.Background()
	stale := &atomic.Bool{}
	env := authtest.New(t, authtest.WithUserStore(func(m *userstore.Memory) authkeep.UserStore {
		return staleLookups{Memory: m, stale: stale}
	}))
	winner := registerAlice(t, env)
	mail, ok := env.Mailer.Last("verification", "alice@example.com")
	if !ok {
		t.Fatal("expected verification email")
	}
	digest, _ := env.Redis.Get("temp:verify:alice@example.com")

	stale.Store(true)
	_, err := env.Engine.Register(ctx, authkeep.RegisterRequest{
		Fullname: "Alice Again", Username: "alice2", Email: "alice@example.com", Password: "Secret123",
	})
	stale.Store(false)
	if !errors.Is(err, authkeep.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got, _ := env.Redis.Get("temp:verify:alice@example.com"); got == "" || got != digest {
		t.Fatalf("winner's verification token was replaced or removed: %q", got)
	}
	if env.Mailer.Count("verification") != 1 {
		t.Fatal("the losing registration must not send mail")
	}

	if _, err := env.Engine.VerifyEmail(ctx, "alice@example.com", mail.Secret); err != nil {
		t.Fatalf("winner must still be able to verify: %v", err)
	}
	stored, err := env.Users.FindByID(ctx, winner.User.ID)
	if err != nil || !stored.IsEmailVerified {
		t.Fatalf("expected verified winner, got %v %+v", err, stored)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := authtest.New(t)
	_, err := env.Engine.Register(context.Background(), authkeep.RegisterRequest{
		Fullname: "Bob", Username: "bob", Email: "bob@example.com", Password: "abc",
	})
	if !errors.Is(err, authkeep.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if env.Mailer.Count("verification") != 0 {
		t.Fatal("no email expected for rejected registration")
	}
}

func TestRegisterRollsBackWhenVerificationMailFails(t *testing.T) {
	env := authtest.New(t)
	env.Mailer.Fail("verification")

	_, err := env.Engine.Register(context.Background(), authkeep.RegisterRequest{
		Fullname: "Alice", Username: "alice", Email: "alice@example.com", Password: "Secret123",
	})
	if !errors.Is(err, authkeep.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}

	if _, err := env.Users.FindByField(context.Background(), authkeep.FieldEmail, "alice@example.com"); !errors.Is(err, authkeep.ErrUserNotFound) {
		t.Fatalf("expected user to be removed, got %v", err)
	}
	if env.Redis.Exists("temp:verify:alice@example.com") {
		t.Fatal("expected verification token to be consumed")
	}
	for _, k := range env.Redis.Keys() {
		if strings.HasPrefix(k, "session:") || strings.HasPrefix(k, "user_session:") {
			t.Fatalf("expected no session keys, found %s", k)
		}
	}

	env.Mailer.Recover("verification")
	if _, err := env.Engine.Register(context.Background(), authkeep.RegisterRequest{
		Fullname: "Alice", Username: "alice", Email: "alice@example.com", Password: "Secret123",
	}); err != nil {
		t.Fatalf("expected register to succeed once mail recovers: %v", err)
	}
}

func TestSocialLoginParksProfileThenAccountSetup(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	id := authkeep.SocialIdentity{Email: "Gina@Example.com", Name: "Gina Google", Picture: "https://example.com/g.png"}

	res, err := env.Engine.SocialLogin(ctx, id)
	if err != nil {
		t.Fatalf("SocialLogin failed: %v", err)
	}
	if !res.SetupRequired || res.StatusCode != 201 || res.AccessToken != "" {
		t.Fatalf("expected setup required, got %+v", res)
	}
	if ttl := env.Redis.TTL("temp:social:gina@example.com"); ttl != env.Config.Secrets.SocialProfileTTL {
		t.Fatalf("expected parked profile ttl %v, got %v", env.Config.Secrets.SocialProfileTTL, ttl)
	}

	setup, err := env.Engine.AccountSetup(ctx, authkeep.AccountSetupRequest{
		Email: "gina@example.com", Username: "gina", Password: "Secret123",
	})
	if err != nil {
		t.Fatalf("AccountSetup failed: %v", err)
	}
	if setup.User.Fullname != "Gina Google" || setup.User.ProfileImage != id.Picture || !setup.User.IsEmailVerified {
		t.Fatalf("unexpected profile %+v", setup.User)
	}
	if setup.AccessToken == "" || setup.SessionID == "" {
		t.Fatal("expected pair and session")
	}
	if env.Redis.Exists("temp:social:gina@example.com") {
		t.Fatal("expected parked profile to be removed")
	}

	again, err := env.Engine.SocialLogin(ctx, id)
	if err != nil {
		t.Fatalf("second SocialLogin failed: %v", err)
	}
	if again.SetupRequired || again.StatusCode != 204 || again.AccessToken == "" {
		t.Fatalf("expected login of existing account, got %+v", again)
	}
}

func TestAccountSetupWithoutParkedProfile(t *testing.T) {
	env := authtest.New(t)
	res, err := env.Engine.AccountSetup(context.Background(), authkeep.AccountSetupRequest{
		Email: "late@example.com", Username: "late", Password: "Secret123",
	})
	if err != nil {
		t.Fatalf("AccountSetup failed: %v", err)
	}
	if res.User.Fullname != "Social User" {
		t.Fatalf("expected default name, got %q", res.User.Fullname)
	}

	_, err = env.Engine.AccountSetup(context.Background(), authkeep.AccountSetupRequest{
		Email: "other@example.com", Username: "late", Password: "Secret123",
	})
	if !errors.Is(err, authkeep.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSocialLoginRejectsDeactivatedAccount(t *testing.T) {
	env := authtest.New(t)
	u := env.VerifiedUser(t, "gina", "gina@example.com", "Secret123", authkeep.RoleUser)
	if _, _, err := env.Engine.ToggleUserStatus(context.Background(), u.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	_, err := env.Engine.SocialLogin(context.Background(), authkeep.SocialIdentity{Email: "gina@example.com"})
	if !errors.Is(err, authkeep.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()

	created, err := env.Engine.EnsureAdmin(ctx, "root@example.com", "Admin123")
	if err != nil || !created {
		t.Fatalf("expected admin creation, got %v %v", created, err)
	}
	created, err = env.Engine.EnsureAdmin(ctx, "second@example.com", "Admin123")
	if err != nil || created {
		t.Fatalf("expected no second admin, got %v %v", created, err)
	}

	res, err := env.Engine.Login(ctx, "root@example.com", "Admin123")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if res.User.Role != authkeep.RoleAdmin {
		t.Fatalf("expected admin role, got %s", res.User.Role)
	}
}

func TestEnsureAdminPicksFreeUsername(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	env.VerifiedUser(t, "admin", "someone@example.com", "Secret123", authkeep.RoleUser)
	env.VerifiedUser(t, "admin1", "other@example.com", "Secret123", authkeep.RoleUser)

	created, err := env.Engine.EnsureAdmin(ctx, "Root@Example.com", "Admin123!")
	if err != nil || !created {
		t.Fatalf("expected admin creation, got %v %v", created, err)
	}
	admin, err := env.Users.FindByField(ctx, authkeep.FieldEmail, "root@example.com")
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if admin.Username != "admin2" || admin.Role != authkeep.RoleAdmin || !admin.IsEmailVerified {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if squatter, _ := env.Users.FindByField(ctx, authkeep.FieldUsername, "admin"); squatter.Role != authkeep.RoleUser {
		t.Fatal("existing user must be left alone")
	}
}

func TestEnsureAdminSkipsTakenEmail(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	u := env.VerifiedUser(t, "rooty", "root@example.com", "Secret123", authkeep.RoleUser)

	created, err := env.Engine.EnsureAdmin(ctx, "root@example.com", "Admin123!")
	if err != nil || created {
		t.Fatalf("expected no-op for a taken email, got %v %v", created, err)
	}
	if got, _ := env.Users.FindByID(ctx, u.ID); got.Role != authkeep.RoleUser {
		t.Fatal("existing user must not be promoted")
	}
	if _, total, _ := env.Users.List(ctx, authkeep.ListQuery{Role: string(authkeep.RoleAdmin)}); total != 0 {
		t.Fatalf("expected no admin, got %d", total)
	}
}
