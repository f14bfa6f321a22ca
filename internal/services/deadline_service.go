package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/deadlines"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

// DeadlineService reads tasks and companies fresh on every call and hands them
// to the aggregator. Nothing is cached between calls.
type DeadlineService struct {
	Log   *log.Logger
	Clock Clock
}

func NewDeadlineService(l *log.Logger, clock Clock) *DeadlineService {
	return &DeadlineService{Log: l, Clock: clock}
}

// Upcoming is the global view of incomplete tasks and company deadlines from
// today on: a week ahead capped at five items, or everything when showAll.
func (s *DeadlineService) Upcoming(ctx context.Context, scope app.Scope, showAll bool) ([]deadlines.Item, error) {
	var (
		tasks     []models.Task
		companies []models.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = scope.Data.Tasks().List(gctx, store.Where(
			store.Eq("user_id", scope.UserID),
			store.Eq("completed", false),
		))
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		companies, err = scope.Data.Companies().List(gctx, store.Where(store.Eq("user_id", scope.UserID)))
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deadlines.Upcoming(tasks, companies, s.Clock.Today(), showAll), nil
}

// ForCompany lists every task of the company, completed ones included, with the
// company's own deadlines. No window and no cap apply.
func (s *DeadlineService) ForCompany(ctx context.Context, scope app.Scope, companyID string) ([]deadlines.Item, error) {
	var (
		tasks   []models.Task
		company *models.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = scope.Data.Tasks().List(gctx, store.Where(
			store.Eq("user_id", scope.UserID),
			store.Eq("company_id", companyID),
		).OrderBy("due_date", false))
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		company, err = scope.Data.Companies().Get(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deadlines.ForCompany(tasks, *company), nil
}

// CompleteTask marks the task behind id completed. Company deadlines cannot be
// completed; for those it does nothing.
func (s *DeadlineService) CompleteTask(ctx context.Context, scope app.Scope, id deadlines.ItemID) error {
	if id.Kind != deadlines.KindTask {
		return nil
	}
	if err := scope.Data.Tasks().Update(ctx, id.SourceID, map[string]any{"completed": true}); err != nil {
		return err
	}
	s.Log.WithFields(log.Fields{"user_id": scope.UserID, "task_id": id.SourceID}).Debug("task completed")
	return nil
}
