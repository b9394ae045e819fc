package authkeep

import (
	"context"
	"time"

	"github.com/MrEthical07/authkeep/internal/rate"
)

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserRecord is a stored user as the engine sees it. PasswordHash and
// RefreshToken never leave the engine; use Profile for output.
type UserRecord struct {
	ID              string
	Fullname        string
	Username        string
	Email           string
	PasswordHash    string
	ProfileImage    string
	Role            Role
	IsEmailVerified bool
	IsActive        bool
	RefreshToken    string
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile is the public projection of a user. It is also what the profile cache stores.
type Profile struct {
	ID              string     `json:"id"`
	Fullname        string     `json:"fullname"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	ProfileImage    string     `json:"profileImage,omitempty"`
	Role            Role       `json:"role"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsActive        bool       `json:"isActive"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Profile strips credentials from u.
func (u *UserRecord) Profile() *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:              u.ID,
		Fullname:        u.Fullname,
		Username:        u.Username,
		Email:           u.Email,
		ProfileImage:    u.ProfileImage,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		IsActive:        u.IsActive,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UserField names a unique user attribute usable as a lookup key.
type UserField string

const (
	FieldEmail    UserField = "email"
	FieldUsername UserField = "username"
)

// NewUser is the input to UserStore.Create. Password is plaintext; the store hashes it.
type NewUser struct {
	Fullname        string
	Username        string
	Email           string
	Password        string
	ProfileImage    string
	Role            Role
	IsEmailVerified bool
	IsActive        bool
}

// UserUpdate is a partial update. Nil fields are left unchanged; Password is
// plaintext and hashed by the store.
type UserUpdate struct {
	Fullname        *string
	Username        *string
	ProfileImage    *string
	Password        *string
	RefreshToken    *string
	IsEmailVerified *bool
	IsActive        *bool
	LastLogin       *time.Time
}

// ListQuery filters, sorts and pages a user listing. Limit <= 0 returns every match.
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	Role      string // "user", "admin", "all" or empty
	Status    string // "active", "inactive", "verified", "unverified", "all" or empty
	SortBy    string // fullname, username, email, role, createdAt, lastLogin
	SortOrder string // "asc" or "desc"

	CreatedAfter time.Time
}

// ListedUser is a Profile annotated for admin listings.
type ListedUser struct {
	Profile
	Status             string `json:"status"`
	VerificationStatus string `json:"verificationStatus"`
}

// UserList is one page of a user listing.
type UserList struct {
	Users       []ListedUser `json:"users"`
	Total       int64        `json:"total"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	HasNextPage bool         `json:"hasNextPage"`
	HasPrevPage bool         `json:"hasPrevPage"`
}

// UserStats summarizes the user base.
type UserStats struct {
	TotalUsers          int64 `json:"totalUsers"`
	ActiveUsers         int64 `json:"activeUsers"`
	InactiveUsers       int64 `json:"inactiveUsers"`
	VerifiedUsers       int64 `json:"verifiedUsers"`
	UnverifiedUsers     int64 `json:"unverifiedUsers"`
	AdminUsers          int64 `json:"adminUsers"`
	RegularUsers        int64 `json:"regularUsers"`
	RecentRegistrations int64 `json:"recentRegistrations"`
}

// UserStore is the user persistence collaborator. Lookups return ErrUserNotFound
// for absent users; Create and Update return ErrDuplicateUser on unique-key
// collisions. The engine issues no other queries.
type UserStore interface {
	FindByField(ctx context.Context, field UserField, value string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	Create(ctx context.Context, u NewUser) (*UserRecord, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*UserRecord, error)
	Delete(ctx context.Context, id string) error
	ComparePassword(ctx context.Context, u *UserRecord, plain string) (bool, error)
	List(ctx context.Context, q ListQuery) ([]UserRecord, int64, error)
}

// Mailer is the email collaborator. Only SendVerification failures are surfaced
// to callers; the other sends are fire-and-forget.
type Mailer interface {
	SendVerification(ctx context.Context, email, token, name string) error
	SendPasswordResetOTP(ctx context.Context, email, otp, name string) error
	SendWelcome(ctx context.Context, email, name string) error
}

// SocialIdentity is a verified identity from an external provider.
type SocialIdentity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// AuthResult is returned by the credential-issuing flows. Token fields are empty
// when SetupRequired is true.
type AuthResult struct {
	Message          string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	SessionID        string
	User             *Profile
	SetupRequired    bool
	// StatusCode is a flow marker for social login: 201 when account setup is
	// required, 204 when an existing account logged in.
	StatusCode int
}

// Identity is the authenticated caller resolved from an access token.
type Identity struct {
	UserID    string
	Role      Role
	Token     string
	ExpiresAt time.Time
	User      *Profile
}

// IsAdmin reports whether the caller has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// RateDecision is the outcome of one fixed-window admission.
type RateDecision = rate.Decision

// SessionInfo describes a user's current server-side session.
type SessionInfo struct {
	SessionID      string            `json:"sessionId"`
	UserID         string            `json:"userId"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastAccessedAt time.Time         `json:"lastAccessedAt"`
}

// BulkAction is an admin operation applied to many users.
type BulkAction string

const (
	BulkActivate   BulkAction = "activate"
	BulkDeactivate BulkAction = "deactivate"
	BulkDelete     BulkAction = "delete"
)
