package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

var signedIn = &auth.Session{
	AccessToken: "tok",
	ExpiresAt:   time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC),
	User:        auth.User{ID: "u1", Email: "taro@example.com"},
}

func TestResolverSignedOutGetsDemo(t *testing.T) {
	r := NewResolver(nil, time.UTC)
	scope, err := r.ForSession(nil)
	require.NoError(t, err)
	assert.True(t, scope.Demo)
	assert.Equal(t, store.DemoUserID, scope.UserID)
	assert.IsType(t, &store.FixtureProvider{}, scope.Data)
}

func TestResolverReloadsDemoOnNewDay(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	r := NewResolver(nil, time.UTC)
	r.Now = func() time.Time { return now }

	first, err := r.ForSession(nil)
	require.NoError(t, err)
	again, err := r.ForSession(nil)
	require.NoError(t, err)
	assert.Same(t, first.Data, again.Data)

	now = now.Add(24 * time.Hour)
	next, err := r.ForSession(nil)
	require.NoError(t, err)
	assert.NotSame(t, first.Data, next.Data)
}

func TestResolverSignedInGetsOwnRows(t *testing.T) {
	r := NewResolver(nil, time.UTC)
	scope, err := r.ForSession(signedIn)
	require.NoError(t, err)
	assert.False(t, scope.Demo)
	assert.Equal(t, "u1", scope.UserID)
	p, ok := scope.Data.(*store.GormProvider)
	require.True(t, ok)
	assert.Equal(t, "u1", p.UserID)
}

func TestSessionFollowsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shukatsu", "session.json")
	s, err := LoadSession(path, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, s.Current())

	broker := auth.NewBroker()
	events, cancel := broker.Subscribe()
	defer cancel()

	broker.Publish(auth.Event{Type: auth.SignedIn, Session: signedIn})
	s.Drain(events)
	require.NotNil(t, s.Current())
	assert.Equal(t, "u1", s.Current().User.ID)

	reloaded, err := LoadSession(path, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, reloaded.Current())
	assert.Equal(t, "tok", reloaded.Current().AccessToken)

	broker.Publish(auth.Event{Type: auth.UserUpdated, Session: &auth.Session{User: auth.User{ID: "u1", Email: "new@example.com"}}})
	s.Drain(events)
	assert.Equal(t, "new@example.com", s.Current().User.Email)
	assert.Equal(t, "tok", s.Current().AccessToken)

	broker.Publish(auth.Event{Type: auth.SignedOut})
	s.Drain(events)
	assert.Nil(t, s.Current())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionWatchStopsOnClose(t *testing.T) {
	s, err := LoadSession(filepath.Join(t.TempDir(), "session.json"), logging.Discard())
	require.NoError(t, err)

	broker := auth.NewBroker()
	events, cancel := broker.Subscribe()
	done := make(chan struct{})
	go func() {
		s.Watch(context.Background(), events)
		close(done)
	}()

	broker.Publish(auth.Event{Type: auth.SignedIn, Session: signedIn})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after the subscription ended")
	}
}
