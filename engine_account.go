package authkeep

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/MrEthical07/authkeep/jwt"
	"github.com/MrEthical07/authkeep/password"
)

// RegisterRequest is the input to Engine.Register.
type RegisterRequest struct {
	Fullname string
	Username string
	Email    string
	Password string
}

// AccountSetupRequest completes a social sign-up.
type AccountSetupRequest struct {
	Email    string
	Username string
	Password string
}

// Register creates an unverified user, issues a token pair and a session, and mails
// a verification token. If the verification email cannot be sent, the new user,
// its token and its session are removed and the error is returned.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := e.ensureAvailable(ctx, email, username); err != nil {
		e.metricInc(MetricRegisterConflict)
		return nil, err
	}

	token, err := jwt.RandomOpaqueToken()
	if err != nil {
		return nil, wrapError(KindInternal, "Internal Server Error", err)
	}

	// The token is written only once the email is ours; a caller that loses the
	// insert race must not touch the winner's token.
	user, err := e.users.Create(ctx, NewUser{
		Fullname: strings.TrimSpace(req.Fullname),
		Username: username,
		Email:    email,
		Password: req.Password,
		Role:     RoleUser,
		IsActive: true,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			e.metricInc(MetricRegisterConflict)
		}
		return nil, e.storeError(err, "")
	}
	// Critical: without a stored token the account could never be verified.
	if err := e.verifications.Issue(ctx, email, token, e.config.Secrets.VerificationTTL); err != nil {
		e.rollbackRegistration(ctx, user.ID, email)
		return nil, wrapError(KindUpstreamUnavailable, "Service temporarily unavailable", err)
	}

	res, err := e.issueCredentials(ctx, user, UserUpdate{}, true)
	if err != nil {
		e.rollbackRegistration(ctx, user.ID, email)
		return nil, err
	}

	if err := e.mailer.SendVerification(ctx, email, token, user.Fullname); err != nil {
		e.metricInc(MetricMailFailure)
		e.logger.Error().Err(err).Str("op", "send_verification").Str("user_id", user.ID).Msg("verification email failed, rolling back registration")
		e.rollbackRegistration(ctx, user.ID, email)
		return nil, wrapError(KindUpstreamUnavailable, "Failed to send verification email", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditRegister, user.ID, true, "")
	res.Message = "Registration successful. Please check your email to verify your account."
	return res, nil
}

func (e *Engine) rollbackRegistration(ctx context.Context, userID, email string) {
	if err := e.users.Delete(ctx, userID); err != nil && !errors.Is(err, ErrUserNotFound) {
		e.logger.Error().Err(err).Str("op", "register_rollback").Str("user_id", userID).Msg("orphaned unverified user")
	}
	e.verifications.Consume(ctx, email)
	e.sessions.DestroyAllForUser(ctx, userID)
}

// ensureAvailable returns a Conflict when email or username is taken. Empty values
// are not checked.
func (e *Engine) ensureAvailable(ctx context.Context, email, username string) error {
	if email != "" {
		if taken, err := e.exists(ctx, FieldEmail, email); err != nil {
			return err
		} else if taken {
			return NewError(KindConflict, "Email already registered")
		}
	}
	if username != "" {
		if taken, err := e.exists(ctx, FieldUsername, username); err != nil {
			return err
		} else if taken {
			return NewError(KindConflict, "Username already taken")
		}
	}
	return nil
}

/*
====================================
SOCIAL LOGIN
====================================
*/

// SocialLogin signs in an already verified external identity. Known users get a new
// pair (StatusCode 204). Unknown emails have their profile parked for AccountSetup
// and get SetupRequired (StatusCode 201).
func (e *Engine) SocialLogin(ctx context.Context, id SocialIdentity) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	id.Email = normalizeEmail(id.Email)
	if id.Email == "" {
		return nil, ValidationError("Validation failed", []string{"email is required"})
	}

	user, err := e.users.FindByField(ctx, FieldEmail, id.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, e.storeError(err, "")
	}

	if user == nil {
		e.pendingSocial.Put(ctx, id.Email, id, e.config.Secrets.SocialProfileTTL)
		return &AuthResult{
			Message:       "Account setup required",
			SetupRequired: true,
			StatusCode:    201,
			User: &Profile{
				Email:        id.Email,
				Fullname:     id.Name,
				ProfileImage: id.Picture,
			},
		}, nil
	}

	if !user.IsActive {
		return nil, NewError(KindInvalidCredentials, "Account has been deactivated")
	}

	now := e.now().UTC()
	upd := UserUpdate{LastLogin: &now}
	if id.Picture != "" {
		upd.ProfileImage = &id.Picture
	}
	res, err := e.issueCredentials(ctx, user, upd, true)
	if err != nil {
		return nil, err
	}
	e.profiles.Put(ctx, user.ID, res.User)

	e.metricInc(MetricSocialLogin)
	res.Message = "Login successful"
	res.StatusCode = 204
	return res, nil
}

// AccountSetup creates a verified account for a social identity. Name and picture
// come from the profile parked by SocialLogin when it is still present.
func (e *Engine) AccountSetup(ctx context.Context, req AccountSetupRequest) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := e.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	pending := SocialIdentity{Name: "Social User"}
	e.pendingSocial.Get(ctx, email, &pending)
	if strings.TrimSpace(pending.Name) == "" {
		pending.Name = "Social User"
	}

	user, err := e.users.Create(ctx, NewUser{
		Fullname:        pending.Name,
		Username:        username,
		Email:           email,
		Password:        req.Password,
		ProfileImage:    pending.Picture,
		Role:            RoleUser,
		IsEmailVerified: true,
		IsActive:        true,
	})
	if err != nil {
		return nil, e.storeError(err, "")
	}
	e.pendingSocial.Remove(ctx, email)

	res, err := e.issueCredentials(ctx, user, UserUpdate{}, true)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricAccountSetup)
	e.emitAudit(ctx, AuditAccountSetup, user.ID, true, "")
	res.Message = "Account setup successful"
	return res, nil
}

/*
====================================
ADMIN SEED
====================================
*/

// EnsureAdmin creates a verified admin account with email when no user holds that
// email and no admin exists yet. It reports whether an account was created. The
// username is "admin", or "admin<N>" when that is taken.
func (e *Engine) EnsureAdmin(ctx context.Context, email, pass string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	email = normalizeEmail(email)

	taken, err := e.exists(ctx, FieldEmail, email)
	if err != nil || taken {
		return false, err
	}
	_, admins, err := e.users.List(ctx, ListQuery{Page: 1, Limit: 1, Role: string(RoleAdmin)})
	if err != nil {
		return false, e.storeError(err, "")
	}
	if admins > 0 {
		return false, nil
	}
	if err := validatePassword(pass); err != nil {
		return false, err
	}

	username, err := e.freeUsername(ctx, "admin")
	if err != nil {
		return false, err
	}
	user, err := e.users.Create(ctx, NewUser{
		Fullname:        "System Administrator",
		Username:        username,
		Email:           email,
		Password:        pass,
		Role:            RoleAdmin,
		IsEmailVerified: true,
		IsActive:        true,
	})
	if errors.Is(err, ErrDuplicateUser) {
		// Another instance seeded the same email first.
		if taken, lookupErr := e.exists(ctx, FieldEmail, email); lookupErr == nil && taken {
			return false, nil
		}
	}
	if err != nil {
		return false, e.storeError(err, "")
	}
	e.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Str("username", username).Msg("default admin created")
	return true, nil
}

const maxUsernameSuffix = 100

// freeUsername returns base, or base followed by the first free numeric suffix.
func (e *Engine) freeUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i < maxUsernameSuffix; i++ {
		name := base
		if i > 0 {
			name = base + strconv.Itoa(i)
		}
		taken, err := e.exists(ctx, FieldUsername, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
	return "", NewError(KindConflict, "No free admin username")
}

func (e *Engine) exists(ctx context.Context, field UserField, value string) (bool, error) {
	_, err := e.users.FindByField(ctx, field, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, e.storeError(err, "")
	}
}

func validatePassword(p string) error {
	switch {
	case len(p) < password.MinPasswordBytes:
		return ValidationError("Validation failed", []string{"password must be at least 6 characters long"})
	case len(p) > password.DefaultMaxPasswordBytes:
		return ValidationError("Validation failed", []string{"password is too long"})
	}
	return nil
}
