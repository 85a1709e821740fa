package identity

import (
	"context"
	"sync"
	"time"

	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/metrics"
	"mintylist/backend/internal/models"
)

// Event is one session-state transition. User is nil after sign-out.
type Event struct {
	User *models.User
	At   time.Time
}

// SignedIn reports whether the event carries a session.
func (e Event) SignedIn() bool { return e.User != nil }

// Client is the sign-in state of one browser session. Every transition is
// published to all subscribers; a subscriber that falls behind only ever
// sees the latest state.
type Client struct {
	provider Provider

	mu     sync.Mutex
	user   *models.User
	token  string
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewClient(provider Provider) *Client {
	return &Client{provider: provider, subs: make(map[int]chan Event)}
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	cred, err := c.provider.SignUp(ctx, email, password, displayName)
	record("sign_up", err)
	if err != nil {
		return nil, err
	}
	c.set(&cred.User, cred.IDToken)
	u := cred.User
	return &u, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	cred, err := c.provider.SignIn(ctx, email, password)
	record("sign_in", err)
	if err != nil {
		return nil, err
	}
	c.set(&cred.User, cred.IDToken)
	u := cred.User
	return &u, nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	err := c.provider.SendPasswordReset(ctx, email)
	record("password_reset", err)
	return err
}

// SignOut ends the session. Signing out twice publishes only once.
func (c *Client) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return
	}
	c.user, c.token = nil, ""
	c.publishLocked()
}

// Restore re-establishes a session persisted earlier, without a provider call.
func (c *Client) Restore(user models.User, token string) {
	c.set(&user, token)
}

func (c *Client) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token is the ID token of the current session, or "".
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe returns a stream of session events starting with the current
// state, and a function that ends the subscription.
func (c *Client) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.eventLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends every subscription. The client publishes nothing afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Client) set(user *models.User, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := *user
	c.user, c.token = &u, token
	c.publishLocked()
}

func (c *Client) eventLocked() Event {
	ev := Event{At: time.Now()}
	if c.user != nil {
		u := *c.user
		ev.User = &u
	}
	return ev
}

func (c *Client) publishLocked() {
	if c.closed {
		return
	}
	ev := c.eventLocked()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			// drop the stale state the subscriber has not read yet
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func record(op string, err error) {
	switch {
	case err == nil:
		metrics.AuthOp(op, "ok")
	case errs.AuthCode(err) != "":
		metrics.AuthOp(op, errs.AuthCode(err))
	default:
		metrics.AuthOp(op, "error")
	}
}
