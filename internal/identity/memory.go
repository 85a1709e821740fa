package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"mintylist/backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const minPasswordLen = 6

// Memory is an in-process Provider for running without a hosted identity
// service. It keeps the hosted provider's error codes so the UI behaves the
// same against either backend.
type Memory struct {
	mu       sync.Mutex
	byEmail  map[string]*memUser
	tokens   map[string]string
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	cost     int
	resets   []string
}

type memUser struct {
	user models.User
	hash []byte
}

type MemoryOption func(*Memory)

// WithSignInRate throttles failed sign-ins per email.
func WithSignInRate(limit rate.Limit, burst int) MemoryOption {
	return func(m *Memory) { m.limit, m.burst = limit, burst }
}

// WithHashCost sets the bcrypt cost.
func WithHashCost(cost int) MemoryOption {
	return func(m *Memory) { m.cost = cost }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		byEmail:  make(map[string]*memUser),
		tokens:   make(map[string]string),
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(0.2),
		burst:    5,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) SignUp(_ context.Context, email, password, displayName string) (*Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, authErr(CodeWeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, authErr(CodeInternal, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[email]; exists {
		return nil, authErr(CodeEmailInUse, nil)
	}
	u := &memUser{
		user: models.User{ID: uuid.NewString(), Email: email, DisplayName: displayName},
		hash: hash,
	}
	m.byEmail[email] = u
	return m.issueLocked(u), nil
}

func (m *Memory) SignIn(_ context.Context, email, password string) (*Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lim := m.limiterLocked(email)
	if lim.Tokens() < 1 {
		return nil, authErr(CodeTooManyRequests, nil)
	}
	// an unknown email fails exactly like a wrong password
	u, ok := m.byEmail[email]
	if !ok {
		lim.Allow()
		return nil, authErr(CodeWrongPassword, nil)
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		lim.Allow()
		return nil, authErr(CodeWrongPassword, nil)
	}
	return m.issueLocked(u), nil
}

func (m *Memory) SendPasswordReset(_ context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; !ok {
		return authErr(CodeUserNotFound, nil)
	}
	m.resets = append(m.resets, email)
	slog.Info("password reset requested", "email", email)
	return nil
}

func (m *Memory) VerifyToken(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.tokens[token]
	if !ok {
		return nil, authErr(CodeInvalidToken, errors.New("unknown token"))
	}
	u := m.byEmail[email].user
	return &u, nil
}

// ResetsSent lists the addresses a reset was sent to, oldest first.
func (m *Memory) ResetsSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resets...)
}

func (m *Memory) issueLocked(u *memUser) *Credential {
	token := uuid.NewString()
	m.tokens[token] = u.user.Email
	return &Credential{User: u.user, IDToken: token}
}

func (m *Memory) limiterLocked(email string) *rate.Limiter {
	lim, ok := m.limiters[email]
	if !ok {
		lim = rate.NewLimiter(m.limit, m.burst)
		m.limiters[email] = lim
	}
	return lim
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", authErr(CodeInvalidEmail, err)
	}
	return email, nil
}
