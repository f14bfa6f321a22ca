package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
)

// DefaultSessionPath is where the CLI keeps its session between runs.
func DefaultSessionPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("shukatsu", "session.json"))
}

// Session is the current user of a long-lived client. It is read from disk once
// and afterwards changes only through session events.
type Session struct {
	path string
	log  *log.Logger

	mu      sync.RWMutex
	current *auth.Session
}

// LoadSession reads the saved session at path. A missing file means signed out.
func LoadSession(path string, l *log.Logger) (*Session, error) {
	s := &Session{path: path, log: l}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var saved auth.Session
	if err := sonic.Unmarshal(b, &saved); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	s.current = &saved
	return s, nil
}

// Current returns the signed-in session or nil.
func (s *Session) Current() *auth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Watch applies events until ctx is done or the channel closes.
func (s *Session) Watch(ctx context.Context, events <-chan auth.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Apply(ev)
		}
	}
}

// Drain applies the events already waiting on the channel without blocking.
func (s *Session) Drain(events <-chan auth.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Apply(ev)
		default:
			return
		}
	}
}

// Apply updates the session for one event and persists the result.
func (s *Session) Apply(ev auth.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case auth.SignedIn:
		s.current = ev.Session
	case auth.UserUpdated:
		if s.current == nil || ev.Session == nil {
			return
		}
		updated := *s.current
		updated.User = ev.Session.User
		s.current = &updated
	case auth.SignedOut:
		s.current = nil
	default:
		return
	}

	if err := s.persist(); err != nil {
		s.log.WithError(err).WithField("event", ev.Type).Warn("could not persist session")
	}
}

func (s *Session) persist() error {
	if s.current == nil {
		err := os.Remove(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	b, err := sonic.Marshal(s.current)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
