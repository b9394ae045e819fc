package authkeep

import (
	"context"
	"errors"
)

// DeleteUser removes the user, its cached profile and its session.
func (e *Engine) DeleteUser(ctx context.Context, userID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := e.users.Delete(ctx, userID); err != nil {
		return "", e.storeError(err, "User not found")
	}
	e.invalidateAndEnd(ctx, userID, true)
	e.emitAudit(ctx, AuditUserDeleted, userID, true, "")
	return "User deleted successfully", nil
}

// ToggleUserStatus flips the active flag. Deactivation also ends the user's session;
// Refresh rejects inactive users, so the refresh slot is left as is.
func (e *Engine) ToggleUserStatus(ctx context.Context, userID string) (string, *Profile, error) {
	if e == nil {
		return "", nil, ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return "", nil, e.storeError(err, "User not found")
	}

	active := !user.IsActive
	updated, err := e.users.Update(ctx, userID, UserUpdate{IsActive: &active})
	if err != nil {
		return "", nil, e.storeError(err, "User not found")
	}
	e.invalidateAndEnd(ctx, userID, !active)
	e.emitAudit(ctx, AuditUserStatusChanged, userID, true, statusReason(active))

	if active {
		return "User activated successfully", updated.Profile(), nil
	}
	return "User deactivated successfully", updated.Profile(), nil
}

// BulkUserAction applies action to every existing user in ids. Unknown ids are
// skipped; NotFound is returned only when none exist.
func (e *Engine) BulkUserAction(ctx context.Context, ids []string, action BulkAction) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	var msg string
	switch action {
	case BulkActivate:
		msg = "Users activated successfully"
	case BulkDeactivate:
		msg = "Users deactivated successfully"
	case BulkDelete:
		msg = "Users deleted successfully"
	default:
		return "", NewError(KindValidation, "Invalid action")
	}

	found := 0
	for _, id := range ids {
		if _, err := e.users.FindByID(ctx, id); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				continue
			}
			return "", e.storeError(err, "")
		}
		found++

		var err error
		switch action {
		case BulkActivate:
			active := true
			_, err = e.users.Update(ctx, id, UserUpdate{IsActive: &active})
		case BulkDeactivate:
			active := false
			_, err = e.users.Update(ctx, id, UserUpdate{IsActive: &active})
		case BulkDelete:
			err = e.users.Delete(ctx, id)
		}
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return "", e.storeError(err, "")
		}
		e.invalidateAndEnd(ctx, id, action != BulkActivate)
		if action == BulkDelete {
			e.emitAudit(ctx, AuditUserDeleted, id, true, "bulk")
		} else {
			e.emitAudit(ctx, AuditUserStatusChanged, id, true, statusReason(action == BulkActivate))
		}
	}

	if found == 0 {
		return "", NewError(KindNotFound, "No users found")
	}
	return msg, nil
}

func statusReason(active bool) string {
	if active {
		return "activated"
	}
	return "deactivated"
}
