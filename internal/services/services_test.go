package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/database"
	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

const testUser = "a0000000-0000-4000-8000-000000000001"

var tokyo = time.FixedZone("JST", 9*60*60)

// testNow is 2025-01-15 10:00 in Tokyo.
var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, tokyo)

func testClock() Clock {
	return Clock{Now: func() time.Time { return testNow }, Location: tokyo}
}

func today() dates.Date { return testClock().Today() }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(dsn, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, logging.Discard()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func userScope(t *testing.T) app.Scope {
	t.Helper()
	return app.Scope{UserID: testUser, Data: store.NewGormProvider(openDB(t), testUser)}
}

func demoScope(t *testing.T) app.Scope {
	t.Helper()
	r := app.NewResolver(nil, tokyo)
	r.Now = func() time.Time { return testNow }
	scope, err := r.ForSession(nil)
	require.NoError(t, err)
	return scope
}

func addCompany(t *testing.T, scope app.Scope, c models.Company) models.Company {
	t.Helper()
	require.NoError(t, scope.Data.Companies().Insert(context.Background(), &c))
	return c
}

func addTask(t *testing.T, scope app.Scope, task models.Task) models.Task {
	t.Helper()
	require.NoError(t, scope.Data.Tasks().Insert(context.Background(), &task))
	return task
}

func ptr[T any](v T) *T { return &v }

// stubTable answers with its func fields; a nil field fails the call.
type stubTable[T any] struct {
	list   func(ctx context.Context, q store.Query) ([]T, error)
	get    func(ctx context.Context, id string) (*T, error)
	insert func(ctx context.Context, row *T) error
	update func(ctx context.Context, id string, fields map[string]any) error
	delete func(ctx context.Context, id string) error
}

var errUnexpected = errors.New("unexpected call")

func (s *stubTable[T]) List(ctx context.Context, q store.Query) ([]T, error) {
	if s.list == nil {
		return nil, errUnexpected
	}
	return s.list(ctx, q)
}

func (s *stubTable[T]) Get(ctx context.Context, id string) (*T, error) {
	if s.get == nil {
		return nil, errUnexpected
	}
	return s.get(ctx, id)
}

func (s *stubTable[T]) Insert(ctx context.Context, row *T) error {
	if s.insert == nil {
		return errUnexpected
	}
	return s.insert(ctx, row)
}

func (s *stubTable[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	if s.update == nil {
		return errUnexpected
	}
	return s.update(ctx, id, fields)
}

func (s *stubTable[T]) Delete(ctx context.Context, id string) error {
	if s.delete == nil {
		return errUnexpected
	}
	return s.delete(ctx, id)
}

// stubProvider overrides some tables of an underlying provider.
type stubProvider struct {
	store.Provider
	tasks *stubTable[models.Task]
	steps store.Table[models.SelectionStep]
}

func (p *stubProvider) Tasks() store.Table[models.Task] {
	if p.tasks == nil {
		return p.Provider.Tasks()
	}
	return p.tasks
}

func (p *stubProvider) SelectionSteps() store.Table[models.SelectionStep] {
	if p.steps == nil {
		return p.Provider.SelectionSteps()
	}
	return p.steps
}
