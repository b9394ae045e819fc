package authkeep_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/authtest"
)

func TestToggleUserStatus(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	u, login := loginBob(t, env)

	msg, p, err := env.Engine.ToggleUserStatus(ctx, u.ID)
	if err != nil || msg != "User deactivated successfully" || p.IsActive {
		t.Fatalf("deactivate failed: %q %+v %v", msg, p, err)
	}
	if env.Redis.Exists("user_session:" + u.ID) {
		t.Fatal("expected session to be ended on deactivation")
	}
	if _, err := env.Engine.Refresh(ctx, login.RefreshToken); !errors.Is(err, authkeep.ErrTokenInvalid) {
		t.Fatalf("expected refresh rejection, got %v", err)
	}
	if _, err := env.Engine.Login(ctx, "bob", "Secret123"); !errors.Is(err, authkeep.ErrInvalidCredentials) {
		t.Fatalf("expected deactivated login rejection, got %v", err)
	}

	msg, p, err = env.Engine.ToggleUserStatus(ctx, u.ID)
	if err != nil || msg != "User activated successfully" || !p.IsActive {
		t.Fatalf("activate failed: %q %+v %v", msg, p, err)
	}
	// Deactivation only blocks refresh while inactive; the slot itself is not cleared.
	if _, err := env.Engine.Refresh(ctx, login.RefreshToken); err != nil {
		t.Fatalf("expected refresh after reactivation, got %v", err)
	}
	if _, err := env.Engine.Login(ctx, "bob", "Secret123"); err != nil {
		t.Fatalf("login after reactivation failed: %v", err)
	}

	if _, _, err := env.Engine.ToggleUserStatus(ctx, "missing-id"); !errors.Is(err, authkeep.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	u, _ := loginBob(t, env)
	if _, err := env.Engine.GetProfile(ctx, u.ID); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}

	msg, err := env.Engine.DeleteUser(ctx, u.ID)
	if err != nil || msg != "User deleted successfully" {
		t.Fatalf("DeleteUser failed: %q %v", msg, err)
	}
	if env.Redis.Exists("user:"+u.ID) || env.Redis.Exists("user_session:"+u.ID) {
		t.Fatal("expected cached profile and session to be removed")
	}
	if _, err := env.Engine.DeleteUser(ctx, u.ID); !errors.Is(err, authkeep.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestBulkUserAction(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()
	a := env.VerifiedUser(t, "anna", "anna@example.com", "Secret123", authkeep.RoleUser)
	b := env.VerifiedUser(t, "bert", "bert@example.com", "Secret123", authkeep.RoleUser)
	ids := []string{a.ID, b.ID, "missing-id"}

	if _, err := env.Engine.BulkUserAction(ctx, ids, "explode"); !errors.Is(err, authkeep.ErrValidation) {
		t.Fatalf("expected invalid action, got %v", err)
	}

	msg, err := env.Engine.BulkUserAction(ctx, ids, authkeep.BulkDeactivate)
	if err != nil || msg != "Users deactivated successfully" {
		t.Fatalf("deactivate failed: %q %v", msg, err)
	}
	for _, id := range []string{a.ID, b.ID} {
		u, _ := env.Users.FindByID(ctx, id)
		if u.IsActive {
			t.Fatalf("expected %s inactive", u.Username)
		}
	}

	if _, err := env.Engine.BulkUserAction(ctx, ids, authkeep.BulkActivate); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if u, _ := env.Users.FindByID(ctx, a.ID); !u.IsActive {
		t.Fatal("expected anna active")
	}

	if _, err := env.Engine.BulkUserAction(ctx, ids, authkeep.BulkDelete); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := env.Users.FindByID(ctx, b.ID); !errors.Is(err, authkeep.ErrUserNotFound) {
		t.Fatalf("expected bert deleted, got %v", err)
	}
	if _, err := env.Engine.BulkUserAction(ctx, ids, authkeep.BulkDelete); !errors.Is(err, authkeep.ErrNotFound) {
		t.Fatalf("expected no users found, got %v", err)
	}
}
