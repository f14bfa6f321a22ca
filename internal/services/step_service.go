package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

// PresetSteps are the step names offered with one click.
var PresetSteps = []string{
	"ES提出",
	"Webテスト",
	"書類選考",
	"一次面接",
	"二次面接",
	"三次面接",
	"最終面接",
	"グループディスカッション",
	"インターンシップ",
	"内々定",
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

type SelectionStepService struct {
	Log *log.Logger
}

func NewSelectionStepService(l *log.Logger) *SelectionStepService {
	return &SelectionStepService{Log: l}
}

func (s *SelectionStepService) List(ctx context.Context, scope app.Scope, companyID string) ([]models.SelectionStep, error) {
	steps, err := scope.Data.SelectionSteps().List(ctx,
		store.Where(store.Eq("company_id", companyID)).OrderBy("order_index", false))
	if err != nil {
		return nil, fmt.Errorf("list selection steps: %w", err)
	}
	return steps, nil
}

// Add appends a step after the current last one.
func (s *SelectionStepService) Add(ctx context.Context, scope app.Scope, companyID, name string) (*models.SelectionStep, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("step_name", "選考ステップ名を入力してください")
	}
	steps, err := s.List(ctx, scope, companyID)
	if err != nil {
		return nil, err
	}
	next := 0
	for _, st := range steps {
		if st.OrderIndex >= next {
			next = st.OrderIndex + 1
		}
	}

	step := models.SelectionStep{CompanyID: companyID, StepName: name, OrderIndex: next}
	if err := scope.Data.SelectionSteps().Insert(ctx, &step); err != nil {
		return nil, err
	}
	return &step, nil
}

// Move swaps the order of a step with its neighbour. The two updates run
// concurrently and are not rolled back on failure: the returned list is always
// re-read so it shows whatever was actually committed. Moving the first step
// up or the last step down changes nothing.
func (s *SelectionStepService) Move(ctx context.Context, scope app.Scope, stepID string, dir Direction) ([]models.SelectionStep, error) {
	if dir != Up && dir != Down {
		return nil, invalid("direction", "direction must be up or down")
	}
	step, err := scope.Data.SelectionSteps().Get(ctx, stepID)
	if err != nil {
		return nil, err
	}
	steps, err := s.List(ctx, scope, step.CompanyID)
	if err != nil {
		return nil, err
	}

	i := -1
	for k := range steps {
		if steps[k].ID == stepID {
			i = k
			break
		}
	}
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if i < 0 || j < 0 || j >= len(steps) {
		return steps, nil
	}

	current, swap := steps[i], steps[j]
	table := scope.Data.SelectionSteps()
	// Neither update cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		return table.Update(ctx, current.ID, map[string]any{"order_index": swap.OrderIndex})
	})
	g.Go(func() error {
		return table.Update(ctx, swap.ID, map[string]any{"order_index": current.OrderIndex})
	})
	swapErr := g.Wait()
	if swapErr != nil {
		s.Log.WithError(swapErr).WithField("step_id", stepID).Warn("selection step move failed")
	}

	refreshed, err := s.List(ctx, scope, step.CompanyID)
	if err != nil {
		return nil, err
	}
	if swapErr != nil {
		return refreshed, fmt.Errorf("move selection step: %w", swapErr)
	}
	return refreshed, nil
}

func (s *SelectionStepService) UpdateMemo(ctx context.Context, scope app.Scope, stepID, memo string) error {
	return scope.Data.SelectionSteps().Update(ctx, stepID, map[string]any{"memo": memo})
}

func (s *SelectionStepService) Delete(ctx context.Context, scope app.Scope, stepID string) error {
	return scope.Data.SelectionSteps().Delete(ctx, stepID)
}
