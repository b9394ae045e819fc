package authkeep

import (
	"context"
	"errors"
	"strings"
)

// ProfileUpdate is a partial profile edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	Fullname     *string
	Username     *string
	ProfileImage *string
}

// GetProfile returns the user's profile, reading through the profile cache.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	var cached Profile
	if e.profiles.Get(ctx, userID, &cached) {
		return &cached, nil
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, e.storeError(err, "User not found")
	}
	profile := user.Profile()
	e.profiles.Put(ctx, userID, profile)
	return profile, nil
}

// UpdateProfile applies upd and drops the cached profile. A username already held by
// another user is a Conflict.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, e.storeError(err, "User not found")
	}

	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		upd.Username = &name
		if name != user.Username {
			other, err := e.users.FindByField(ctx, FieldUsername, name)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, NewError(KindConflict, "Username already taken")
			case err != nil && !errors.Is(err, ErrUserNotFound):
				return nil, e.storeError(err, "")
			}
		}
	}

	updated, err := e.users.Update(ctx, userID, UserUpdate{
		Fullname:     upd.Fullname,
		Username:     upd.Username,
		ProfileImage: upd.ProfileImage,
	})
	if err != nil {
		return nil, e.storeError(err, "User not found")
	}
	e.invalidator.InvalidateUser(ctx, userID)
	return updated.Profile(), nil
}

// ChangePassword sets userID's password. The current password is required unless an
// admin is changing another user's password.
func (e *Engine) ChangePassword(ctx context.Context, actor *Identity, userID, currentPassword, newPassword string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if actor == nil {
		return "", NewError(KindTokenInvalid, "Access denied. No token provided.")
	}
	if actor.UserID != userID && !actor.IsAdmin() {
		return "", NewError(KindForbidden, "Access denied. Insufficient privileges.")
	}
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return "", e.storeError(err, "User not found")
	}

	if !actor.IsAdmin() || actor.UserID == userID {
		if currentPassword == "" {
			return "", ValidationError("Current password and new password are required", nil)
		}
		ok, err := e.users.ComparePassword(ctx, user, currentPassword)
		if err != nil {
			return "", wrapError(KindInternal, "Internal Server Error", err)
		}
		if !ok {
			e.emitAudit(ctx, AuditPasswordChanged, userID, false, "current password mismatch")
			return "", NewError(KindInvalidCredentials, "Current password is incorrect")
		}
	}

	if _, err := e.users.Update(ctx, userID, UserUpdate{Password: &newPassword}); err != nil {
		return "", e.storeError(err, "User not found")
	}
	e.invalidator.InvalidateUser(ctx, userID)
	e.emitAudit(ctx, AuditPasswordChanged, userID, true, "")
	return "Password updated successfully", nil
}
