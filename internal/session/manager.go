// Package session keeps one identity client and one notes controller per
// browser session, keyed by a signed cookie token.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mintylist/backend/internal/identity"
	"mintylist/backend/internal/metrics"
	"mintylist/backend/internal/viewstate"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Session is a live browser session.
type Session struct {
	ID   string
	Auth *identity.Client
	View *viewstate.Controller

	cancel   context.CancelFunc
	mu       sync.Mutex
	lastSeen time.Time
}

// Sync brings the controller up to date with the identity client before a
// render and re-fetches the notes, as mounting the notes view does.
func (s *Session) Sync(ctx context.Context) error {
	changed, err := s.align(ctx)
	if changed || s.Auth.CurrentUser() == nil {
		return err
	}
	return s.View.Refresh(ctx)
}

// Align applies a sign-in or sign-out the controller has not seen yet, so a
// write right after signing in or after a restore runs as the current user.
// Notes are fetched only when the user changed.
func (s *Session) Align(ctx context.Context) error {
	_, err := s.align(ctx)
	return err
}

func (s *Session) align(ctx context.Context) (bool, error) {
	u := s.Auth.CurrentUser()
	held := s.View.User()
	switch {
	case u == nil && held != nil:
		return true, s.View.HandleEvent(ctx, identity.Event{At: time.Now()})
	case u != nil && (held == nil || held.ID != u.ID):
		return true, s.View.HandleEvent(ctx, identity.Event{User: u, At: time.Now()})
	}
	return false, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Manager struct {
	provider identity.Provider
	notes    viewstate.NoteAccess
	store    Store
	secret   []byte
	ttl      time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	live map[string]*Session
}

func NewManager(provider identity.Provider, notes viewstate.NoteAccess, store Store, secret []byte, ttl time.Duration) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider: provider,
		notes:    notes,
		store:    store,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		live:     make(map[string]*Session),
	}
}

// Open resolves a cookie token to its session, restoring a persisted one
// after a restart, or starts a new session. It returns the token to set.
func (m *Manager) Open(ctx context.Context, token string) (*Session, string, error) {
	if token != "" {
		if id, err := m.parse(token); err == nil {
			if s := m.lookup(ctx, id); s != nil {
				signed, err := m.sign(id)
				return s, signed, err
			}
		}
	}

	id := uuid.NewString()
	s := m.start(id, nil)
	signed, err := m.sign(id)
	return s, signed, err
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Run evicts idle sessions from memory until ctx is done. Persisted records
// are left alone so an evicted session can be restored later.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.live {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.live, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.cancel()
		s.Auth.Close()
		metrics.SessionClosed()
	}
	return len(idle)
}

// Close stops every session and waits for their goroutines.
func (m *Manager) Close() {
	m.mu.Lock()
	for id, s := range m.live {
		s.Auth.Close()
		delete(m.live, id)
		metrics.SessionClosed()
	}
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) lookup(ctx context.Context, id string) *Session {
	m.mu.Lock()
	s, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.now())
		return s
	}

	rec, err := m.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("loading session", "session", id, "error", err)
		}
		return nil
	}
	slog.Info("restoring session", "session", id, "user", rec.User.ID)
	return m.start(id, &rec)
}

func (m *Manager) start(id string, rec *Record) *Session {
	client := identity.NewClient(m.provider)
	ctrl := viewstate.NewController(m.notes)
	sctx, cancel := context.WithCancel(m.ctx)
	s := &Session{ID: id, Auth: client, View: ctrl, cancel: cancel, lastSeen: m.now()}

	if rec != nil {
		client.Restore(rec.User, rec.IDToken)
	}
	viewEvents, _ := client.Subscribe()
	persistEvents, _ := client.Subscribe()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		ctrl.Run(sctx, viewEvents)
	}()
	go func() {
		defer m.wg.Done()
		m.persist(sctx, s, persistEvents)
	}()

	m.mu.Lock()
	if existing, ok := m.live[id]; ok {
		m.mu.Unlock()
		cancel()
		client.Close()
		return existing
	}
	m.live[id] = s
	m.mu.Unlock()
	metrics.SessionOpened()
	return s
}

// persist mirrors sign-in state into the store so a session survives restarts.
// A record is only deleted on a transition out of a signed-in state.
func (m *Manager) persist(ctx context.Context, s *Session, events <-chan identity.Event) {
	signedIn := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var err error
			switch {
			case ev.SignedIn():
				err = m.store.Save(ctx, s.ID, Record{User: *ev.User, IDToken: s.Auth.Token()}, m.ttl)
			case signedIn:
				err = m.store.Delete(ctx, s.ID)
			}
			signedIn = ev.SignedIn()
			if err != nil {
				slog.Error("persisting session", "session", s.ID, "error", err)
			}
		}
	}
}

func (m *Manager) sign(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token has no id")
	}
	return claims.ID, nil
}
