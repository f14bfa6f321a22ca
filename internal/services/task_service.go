package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

type TaskService struct {
	Log   *log.Logger
	Clock Clock
}

func NewTaskService(l *log.Logger, clock Clock) *TaskService {
	return &TaskService{Log: l, Clock: clock}
}

type TaskInput struct {
	Title       string
	Description string
	// DueDate is an ISO date or a phrase like "tomorrow"; empty means no due date.
	DueDate   string
	CompanyID *string
}

func (s *TaskService) Create(ctx context.Context, scope app.Scope, in TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "タスク名を入力してください")
	}
	due, err := dates.ParseDue(in.DueDate, s.Clock.Now().In(s.Clock.Location))
	if err != nil {
		return nil, invalid("due_date", "期限の形式が正しくありません")
	}

	t := models.Task{
		UserID:      scope.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     due,
	}
	if in.CompanyID != nil && *in.CompanyID != "" {
		id := *in.CompanyID
		t.CompanyID = &id
	}
	if err := scope.Data.Tasks().Insert(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Toggle flips the completed flag.
func (s *TaskService) Toggle(ctx context.Context, scope app.Scope, id string) (*models.Task, error) {
	t, err := scope.Data.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	if err := scope.Data.Tasks().Update(ctx, id, map[string]any{"completed": t.Completed}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, scope app.Scope, id string) error {
	return scope.Data.Tasks().Delete(ctx, id)
}

// ListForCompany returns every task of a company, newest first.
func (s *TaskService) ListForCompany(ctx context.Context, scope app.Scope, companyID string) ([]models.Task, error) {
	tasks, err := scope.Data.Tasks().List(ctx, store.Where(
		store.Eq("user_id", scope.UserID),
		store.Eq("company_id", companyID),
	).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}
