package userstore

import (
	"errors"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/password"
)

// NewHasher builds an Argon2id hasher from the engine password settings.
func NewHasher(cfg authkeep.PasswordConfig) (*password.Argon2, error) {
	return password.NewArgon2(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
}

func verify(h *password.Argon2, u *authkeep.UserRecord, plain string) (bool, error) {
	if u == nil || u.PasswordHash == "" {
		return false, nil
	}
	ok, err := h.Verify(plain, u.PasswordHash)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return false, nil
	}
	return ok, err
}

// upgraded returns a new hash of plain when u's stored hash was produced with weaker
// parameters than h. Failures are ignored; the old hash keeps working.
func upgraded(h *password.Argon2, u *authkeep.UserRecord, plain string) (string, bool) {
	stale, err := h.NeedsUpgrade(u.PasswordHash)
	if err != nil || !stale {
		return "", false
	}
	hash, err := h.Hash(plain)
	if err != nil {
		return "", false
	}
	return hash, true
}
