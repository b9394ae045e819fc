// Package authtest builds engines for tests: miniredis, the in-memory user store and
// a mailer that records what it was asked to send.
package authtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/internal/cachetest"
	"github.com/MrEthical07/authkeep/password"
	"github.com/MrEthical07/authkeep/userstore"
	"github.com/alicebob/miniredis/v2"
)

// Mail is one recorded message.
type Mail struct {
	Kind   string // verification, reset_otp, welcome
	To     string
	Name   string
	Secret string
}

// Mailer records messages. Fail simulates an outage for one kind of message.
type Mailer struct {
	mu    sync.Mutex
	sent  []Mail
	fails map[string]bool
}

var _ authkeep.Mailer = (*Mailer)(nil)

// Fail makes sends of kind return an error.
func (m *Mailer) Fail(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails == nil {
		m.fails = map[string]bool{}
	}
	m.fails[kind] = true
}

// Recover undoes Fail.
func (m *Mailer) Recover(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fails, kind)
}

func (m *Mailer) record(kind, to, name, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails[kind] {
		return errors.New("smtp: 421 service not available")
	}
	m.sent = append(m.sent, Mail{Kind: kind, To: to, Name: name, Secret: secret})
	return nil
}

func (m *Mailer) SendVerification(_ context.Context, email, token, name string) error {
	return m.record("verification", email, name, token)
}

func (m *Mailer) SendPasswordResetOTP(_ context.Context, email, otp, name string) error {
	return m.record("reset_otp", email, name, otp)
}

func (m *Mailer) SendWelcome(_ context.Context, email, name string) error {
	return m.record("welcome", email, name, "")
}

// Last returns the most recent message of kind sent to email.
func (m *Mailer) Last(kind, email string) (Mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind && m.sent[i].To == email {
			return m.sent[i], true
		}
	}
	return Mail{}, false
}

// Count returns how many messages of kind were sent.
func (m *Mailer) Count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Env is a built engine with handles on its collaborators.
type Env struct {
	Engine *authkeep.Engine
	Redis  *miniredis.Miniredis
	Cache  cache.Client
	Users  *userstore.Memory
	Mailer *Mailer
	Config authkeep.Config
}

// Option adjusts the config or builder before Build.
type Option func(*setup)

type setup struct {
	cfg   authkeep.Config
	cache cache.Client
	clock func() time.Time
	sink  authkeep.AuditSink
	wrap  func(*userstore.Memory) authkeep.UserStore
}

// WithConfig edits the config.
func WithConfig(fn func(*authkeep.Config)) Option {
	return func(s *setup) { fn(&s.cfg) }
}

// WithCache replaces miniredis, e.g. with a cachetest.Failing.
func WithCache(c cache.Client) Option {
	return func(s *setup) { s.cache = c }
}

// WithClock sets the engine clock.
func WithClock(now func() time.Time) Option {
	return func(s *setup) { s.clock = now }
}

// WithAuditSink turns on the audit trail. The engine is closed at test cleanup.
func WithAuditSink(sink authkeep.AuditSink) Option {
	return func(s *setup) { s.sink = sink }
}

// WithUserStore hands the engine wrap(Env.Users) instead of the memory store itself.
func WithUserStore(wrap func(*userstore.Memory) authkeep.UserStore) Option {
	return func(s *setup) { s.wrap = wrap }
}

// Config returns a valid non-production config with test secrets.
func Config() authkeep.Config {
	cfg := authkeep.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret-0123456789abcdef")
	return cfg
}

// Hasher is a deliberately cheap Argon2id configuration.
func Hasher(t testing.TB) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	return h
}

// New builds an engine over miniredis unless WithCache says otherwise.
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	s := &setup{cfg: Config()}
	for _, o := range opts {
		o(s)
	}

	env := &Env{
		Users:  userstore.NewMemory(Hasher(t)),
		Mailer: &Mailer{},
		Config: s.cfg,
	}
	if s.cache == nil {
		mr, c := cachetest.NewRedis(t)
		env.Redis, s.cache = mr, c
	}
	env.Cache = s.cache

	var users authkeep.UserStore = env.Users
	if s.wrap != nil {
		users = s.wrap(env.Users)
	}

	b := authkeep.New().
		WithConfig(s.cfg).
		WithCache(s.cache).
		WithUserStore(users).
		WithMailer(env.Mailer)
	if s.clock != nil {
		b = b.WithClock(s.clock)
	}
	if s.sink != nil {
		b = b.WithAuditSink(s.sink)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	env.Engine = engine
	return env
}

// VerifiedUser creates an active, verified user directly in the store.
func (e *Env) VerifiedUser(t testing.TB, username, email, pass string, role authkeep.Role) *authkeep.UserRecord {
	t.Helper()
	u, err := e.Users.Create(context.Background(), authkeep.NewUser{
		Fullname:        "Test " + username,
		Username:        username,
		Email:           email,
		Password:        pass,
		Role:            role,
		IsEmailVerified: true,
		IsActive:        true,
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return u
}
