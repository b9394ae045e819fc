package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authkeep/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token's signature is valid but its exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for every other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// Kind distinguishes the two signed token classes.
type Kind string

const (
	// KindAccess marks short-lived access tokens.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived refresh tokens.
	KindRefresh Kind = "refresh"
)

// Config defines the signing keys and lifetimes of an [Issuer].
//
// AccessSecret and RefreshSecret must differ so that a token of one class can never
// verify as the other.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration

	// Now overrides the clock used for issuance and verification. Defaults to time.Now.
	Now func() time.Time
}

// Claims is the payload of both token classes.
type Claims struct {
	Type Kind `json:"typ"`
	jwt.RegisteredClaims
}

// SubjectID returns the subject the token was issued to.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Pair is the result of [Issuer.IssuePair].
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer mints and verifies access/refresh tokens. It holds no mutable state and is safe
// for concurrent use.
type Issuer struct {
	config Config
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Issuer{config: cfg}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.config.AccessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.config.RefreshTTL
}

// IssuePair signs a fresh access and refresh token for subjectID. It has no side effects.
func (i *Issuer) IssuePair(subjectID string) (Pair, error) {
	if subjectID == "" {
		return Pair{}, errors.New("subject id is required")
	}
	now := i.config.Now()

	access, accessExp, err := i.sign(KindAccess, subjectID, now)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := i.sign(KindRefresh, subjectID, now)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess checks signature, type and expiry of an access token. It does not consult
// any revocation state.
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(KindAccess, token)
}

// VerifyRefresh checks signature, type and expiry of a refresh token.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(KindRefresh, token)
}

// Decode parses a token's claims without verifying its signature or expiry. The result
// must never be used to authorize anything.
func (i *Issuer) Decode(token string) (*Claims, error) {
	return Decode(token)
}

// Decode parses claims without verification. See [Issuer.Decode].
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

func (i *Issuer) sign(kind Kind, subjectID string, now time.Time) (string, time.Time, error) {
	ttl, key := i.config.AccessTTL, i.config.AccessSecret
	if kind == KindRefresh {
		ttl, key = i.config.RefreshTTL, i.config.RefreshSecret
	}
	exp := now.Add(ttl)

	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Truncate(time.Second), nil
}

func (i *Issuer) verify(kind Kind, tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	key := i.config.AccessSecret
	if kind == KindRefresh {
		key = i.config.RefreshSecret
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.config.Now),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		// Only a token whose signature checked out can be reported as expired.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Type != kind || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// RandomOpaqueToken returns a 256-bit hex secret for verification links, reset tokens and
// session ids.
func RandomOpaqueToken() (string, error) {
	return internal.NewOpaqueToken()
}

// RandomOTP returns a 6-digit numeric one-time code.
func RandomOTP() (string, error) {
	return internal.NewOTP()
}
