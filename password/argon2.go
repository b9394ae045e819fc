package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// MinPasswordBytes is the shortest password Hash accepts.
	MinPasswordBytes = 6
	// DefaultMaxPasswordBytes applies when Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024

	phcID = "argon2id"
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords under MinPasswordBytes.
	ErrPasswordTooShort = errors.New("password must be at least 6 bytes")
	// ErrPasswordTooLong is returned by Hash and Verify above the configured maximum.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrMalformedHash wraps every PHC parsing failure.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Config holds Argon2id cost parameters.
type Config struct {
	Memory           uint32 // KiB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// DefaultConfig returns production parameters (64 MiB, 3 passes, 2 lanes).
func DefaultConfig() Config {
	return Config{
		Memory:           64 * 1024,
		Time:             3,
		Parallelism:      2,
		SaltLength:       16,
		KeyLength:        32,
		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// floor is the weakest configuration NewArgon2 and stored hashes may use.
var floor = Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}

func (c Config) validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{c.Memory >= floor.Memory, "memory must be >= 8192 KiB"},
		{c.Time >= floor.Time, "time must be >= 1"},
		{c.Parallelism >= floor.Parallelism, "parallelism must be >= 1"},
		{c.SaltLength >= floor.SaltLength, "salt length must be >= 16"},
		{c.KeyLength >= floor.KeyLength, "key length must be >= 16"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("password: %s", ch.what)
		}
	}
	return nil
}

// Argon2 hashes and verifies passwords in PHC format:
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>
//
// with unpadded standard base64. It is safe for concurrent use.
type Argon2 struct {
	cfg Config
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes <= 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{cfg: cfg}, nil
}

// Hash returns a fresh-salted PHC hash of password. Bytes are hashed as given,
// without Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	switch {
	case len(password) < MinPasswordBytes:
		return "", ErrPasswordTooShort
	case len(password) > a.cfg.MaxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	p := phc{memory: a.cfg.Memory, time: a.cfg.Time, lanes: a.cfg.Parallelism, salt: salt}
	p.key = p.derive(password, a.cfg.KeyLength)
	return p.String(), nil
}

// Verify reports whether password matches encoded. The cost parameters come from
// encoded, not from the hasher.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	if len(password) > a.cfg.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	got := p.derive(password, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(got, p.key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker costs or a different
// key length than the hasher's configuration.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return p.memory < a.cfg.Memory ||
		p.time < a.cfg.Time ||
		p.lanes < a.cfg.Parallelism ||
		uint32(len(p.key)) != a.cfg.KeyLength, nil
}

// phc is one decoded hash.
type phc struct {
	memory uint32
	time   uint32
	lanes  uint8
	salt   []byte
	key    []byte
}

func (p phc) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.lanes, keyLen)
}

func (p phc) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcID, argon2.Version, p.memory, p.time, p.lanes,
		b64.EncodeToString(p.salt), b64.EncodeToString(p.key))
}

func parsePHC(s string) (phc, error) {
	var p phc
	fields := strings.Split(s, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != phcID {
		return p, fmt.Errorf("%w: not an %s PHC string", ErrMalformedHash, phcID)
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, fields[2])
	}

	var lanes uint32
	n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &lanes)
	if err != nil || n != 3 || fields[3] != fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, lanes) {
		return p, fmt.Errorf("%w: bad parameters %q", ErrMalformedHash, fields[3])
	}
	if p.memory < floor.Memory || p.time < floor.Time || lanes < uint32(floor.Parallelism) || lanes > 255 {
		return p, fmt.Errorf("%w: parameters below minimum", ErrMalformedHash)
	}
	p.lanes = uint8(lanes)

	// Accept padded hashes too; older records may carry them.
	if p.salt, err = decodeB64(fields[4]); err != nil || len(p.salt) < int(floor.SaltLength) {
		return p, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	if p.key, err = decodeB64(fields[5]); err != nil || len(p.key) == 0 {
		return p, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}
	return p, nil
}

func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
