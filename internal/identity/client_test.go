package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedUpClient(t *testing.T) (*Client, *Memory) {
	t.Helper()
	m := newMemory()
	_, err := m.SignUp(context.Background(), "ann@example.com", "hunter22", "Ann")
	require.NoError(t, err)
	return NewClient(m), m
}

func TestClient_SubscribeDeliversCurrentStateFirst(t *testing.T) {
	c, _ := signedUpClient(t)

	events, cancel := c.Subscribe()
	defer cancel()

	ev := <-events
	assert.False(t, ev.SignedIn())
}

func TestClient_PublishesSignInAndSignOut(t *testing.T) {
	c, _ := signedUpClient(t)
	events, cancel := c.Subscribe()
	defer cancel()
	<-events

	u, err := c.SignIn(context.Background(), "ann@example.com", "hunter22")
	require.NoError(t, err)

	ev := <-events
	require.True(t, ev.SignedIn())
	assert.Equal(t, u.ID, ev.User.ID)
	assert.NotEmpty(t, c.Token())

	c.SignOut()
	ev = <-events
	assert.False(t, ev.SignedIn())
	assert.Nil(t, c.CurrentUser())
	assert.Empty(t, c.Token())
}

func TestClient_FailedSignInPublishesNothing(t *testing.T) {
	c, _ := signedUpClient(t)
	events, cancel := c.Subscribe()
	defer cancel()
	<-events

	_, err := c.SignIn(context.Background(), "ann@example.com", "wrong-pass")
	require.Error(t, err)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestClient_LaggingSubscriberSeesLatestState(t *testing.T) {
	c, _ := signedUpClient(t)
	events, cancel := c.Subscribe()
	defer cancel()

	_, err := c.SignIn(context.Background(), "ann@example.com", "hunter22")
	require.NoError(t, err)
	c.SignOut()

	ev := <-events
	assert.False(t, ev.SignedIn())
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestClient_CloseEndsSubscriptions(t *testing.T) {
	c, _ := signedUpClient(t)
	events, cancel := c.Subscribe()
	<-events

	c.Close()
	_, open := <-events
	assert.False(t, open)

	cancel()
	late, _ := c.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestClient_RestoreSignsIn(t *testing.T) {
	c, m := signedUpClient(t)
	cred, err := m.SignIn(context.Background(), "ann@example.com", "hunter22")
	require.NoError(t, err)

	c.Restore(cred.User, cred.IDToken)

	require.NotNil(t, c.CurrentUser())
	assert.Equal(t, cred.User.ID, c.CurrentUser().ID)
	assert.Equal(t, cred.IDToken, c.Token())
}
