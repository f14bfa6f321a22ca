// Package app holds the application-level session context: who is acting and
// which data source serves them.
package app

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

// Scope is passed to every service call.
type Scope struct {
	UserID string
	Data   store.Provider
	// Demo is set when Data is the read-only demo dataset.
	Demo bool
}

// Resolver picks the data source for a session: the user's own rows when
// signed in, the demo dataset otherwise.
type Resolver struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time

	mu       sync.Mutex
	demo     *store.FixtureProvider
	demoDate dates.Date
}

func NewResolver(db *gorm.DB, loc *time.Location) *Resolver {
	return &Resolver{DB: db, Location: loc, Now: time.Now}
}

// ForSession returns the scope of s; a nil s is the signed-out visitor.
func (r *Resolver) ForSession(s *auth.Session) (Scope, error) {
	if s == nil {
		demo, err := r.fixtures()
		if err != nil {
			return Scope{}, err
		}
		return Scope{UserID: store.DemoUserID, Data: demo, Demo: true}, nil
	}
	return Scope{UserID: s.User.ID, Data: store.NewGormProvider(r.DB, s.User.ID)}, nil
}

// fixtures reloads the demo dataset when the day changes so its relative dates stay current.
func (r *Resolver) fixtures() (*store.FixtureProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now()
	today := dates.Today(now, r.Location)
	if r.demo != nil && r.demoDate.Equal(today) {
		return r.demo, nil
	}
	demo, err := store.LoadFixtures(now, r.Location)
	if err != nil {
		return nil, err
	}
	r.demo, r.demoDate = demo, today
	return demo, nil
}
