package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/deadlines"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

func newDeadlineService() *DeadlineService {
	return NewDeadlineService(logging.Discard(), testClock())
}

func TestUpcomingWindowAndShowAll(t *testing.T) {
	scope := userScope(t)
	c := addCompany(t, scope, models.Company{Name: "c1", ESDeadline: today().AddDays(10)})
	addTask(t, scope, models.Task{Title: "Webテスト", DueDate: today().AddDays(2)})

	s := newDeadlineService()
	items, err := s.Upcoming(context.Background(), scope, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Webテスト", items[0].Title)

	items, err = s.Upcoming(context.Background(), scope, true)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Webテスト", items[0].Title)
	assert.Equal(t, deadlines.ItemID{Kind: deadlines.KindES, SourceID: c.ID}, items[1].ItemID)
	assert.Equal(t, "c1", items[1].CompanyName)
}

func TestUpcomingSkipsCompletedAndPast(t *testing.T) {
	scope := userScope(t)
	addTask(t, scope, models.Task{Title: "done", DueDate: today().AddDays(1), Completed: true})
	addTask(t, scope, models.Task{Title: "yesterday", DueDate: today().AddDays(-1)})
	addTask(t, scope, models.Task{Title: "undated"})
	addTask(t, scope, models.Task{Title: "today", DueDate: today()})

	items, err := newDeadlineService().Upcoming(context.Background(), scope, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "today", items[0].Title)
}

func TestUpcomingDemoData(t *testing.T) {
	scope := demoScope(t)
	s := newDeadlineService()

	items, err := s.Upcoming(context.Background(), scope, false)
	require.NoError(t, err)
	require.Len(t, items, deadlines.UpcomingLimit)
	assert.Equal(t, "OB訪問のお礼メール", items[0].Title)
	assert.True(t, items[0].DueDate.Equal(today().AddDays(1)))
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].DueDate.Before(items[i-1].DueDate))
	}

	all, err := s.Upcoming(context.Background(), scope, true)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestForCompanyHasNoWindowOrCap(t *testing.T) {
	scope := userScope(t)
	c := addCompany(t, scope, models.Company{
		Name:            "far",
		ESDeadline:      today().AddDays(40),
		WebtestDeadline: today().AddDays(-3),
	})
	for i := 0; i < 6; i++ {
		addTask(t, scope, models.Task{Title: "t", CompanyID: &c.ID, DueDate: today().AddDays(20 + i)})
	}
	addTask(t, scope, models.Task{Title: "done", CompanyID: &c.ID, DueDate: today().AddDays(1), Completed: true})
	addTask(t, scope, models.Task{Title: "other"})

	items, err := newDeadlineService().ForCompany(context.Background(), scope, c.ID)
	require.NoError(t, err)
	assert.Len(t, items, 9)
	assert.Equal(t, deadlines.KindWebtest, items[0].Kind)
	assert.Equal(t, "done", items[1].Title)
	require.NotNil(t, items[1].Completed)
	assert.True(t, *items[1].Completed)
	assert.Equal(t, deadlines.KindES, items[len(items)-1].Kind)
}

func TestCompleteTaskUpdatesOnlyThatRow(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		sets  []map[string]any
	)
	tasks := &stubTable[models.Task]{
		update: func(_ context.Context, id string, fields map[string]any) error {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, id)
			sets = append(sets, fields)
			return nil
		},
	}
	scope := app.Scope{UserID: testUser, Data: &stubProvider{tasks: tasks}}

	id, err := deadlines.ParseKey("task-42")
	require.NoError(t, err)
	require.NoError(t, newDeadlineService().CompleteTask(context.Background(), scope, id))

	assert.Equal(t, []string{"42"}, calls)
	assert.Equal(t, []map[string]any{{"completed": true}}, sets)
}

func TestCompleteCompanyDeadlineIsNoop(t *testing.T) {
	scope := app.Scope{UserID: testUser, Data: &stubProvider{tasks: &stubTable[models.Task]{}}}

	err := newDeadlineService().CompleteTask(context.Background(), scope,
		deadlines.ItemID{Kind: deadlines.KindES, SourceID: "c1"})
	assert.NoError(t, err)
}

func TestCompleteTaskInDemoNeedsLogin(t *testing.T) {
	err := newDeadlineService().CompleteTask(context.Background(), demoScope(t),
		deadlines.ItemID{Kind: deadlines.KindTask, SourceID: "3f0a9c1e-8d42-4b6a-b7e3-5a2c9e1d4f01"})
	assert.ErrorIs(t, err, store.ErrLoginRequired)
}
