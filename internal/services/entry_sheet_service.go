package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/listing"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

const defaultCharLimit = 400

// unknownCompanyName labels a group whose company has no name.
const unknownCompanyName = "不明な企業"

type EntrySheetService struct {
	Log *log.Logger
}

func NewEntrySheetService(l *log.Logger) *EntrySheetService {
	return &EntrySheetService{Log: l}
}

// EntrySheetPage is the entry sheet list: reusable ES templates and the
// entry sheets grouped under the filtered, sorted companies.
type EntrySheetPage struct {
	Templates  []models.Template `json:"templates"`
	Groups     []listing.Group   `json:"groups"`
	Industries []string          `json:"industries"`
}

func (s *EntrySheetService) Page(ctx context.Context, scope app.Scope, c listing.Criteria) (*EntrySheetPage, error) {
	var (
		templates []models.Template
		sheets    []models.EntrySheet
		companies []models.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		templates, err = scope.Data.Templates().List(gctx, store.Where(
			store.Eq("user_id", scope.UserID),
			store.Eq("type", models.TemplateES),
		).OrderBy("created_at", true))
		return wrap("list templates", err)
	})
	g.Go(func() error {
		var err error
		sheets, err = scope.Data.EntrySheets().List(gctx,
			store.Where(store.Eq("user_id", scope.UserID)).OrderBy("created_at", true))
		return wrap("list entry sheets", err)
	})
	g.Go(func() error {
		var err error
		companies, err = scope.Data.Companies().List(gctx,
			store.Where(store.Eq("user_id", scope.UserID)).OrderBy("created_at", true))
		return wrap("list companies", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := listing.GroupEntrySheets(listing.Apply(companies, c), sheets)
	for i := range groups {
		if strings.TrimSpace(groups[i].Company.Name) == "" {
			groups[i].Company.Name = unknownCompanyName
		}
	}
	return &EntrySheetPage{
		Templates:  templates,
		Groups:     groups,
		Industries: listing.Industries(companies),
	}, nil
}

type EntrySheetInput struct {
	Theme     string
	Content   string
	CharLimit int
}

func (s *EntrySheetService) CreateEntrySheet(ctx context.Context, scope app.Scope, companyID string, in EntrySheetInput) (*models.EntrySheet, error) {
	theme := strings.TrimSpace(in.Theme)
	if theme == "" {
		return nil, invalid("theme", "テーマを入力してください")
	}
	limit := in.CharLimit
	if limit < 0 {
		return nil, invalid("char_limit", "文字数制限が正しくありません")
	}
	if limit == 0 {
		limit = defaultCharLimit
	}
	es := models.EntrySheet{
		UserID:    scope.UserID,
		CompanyID: companyID,
		Theme:     theme,
		Content:   in.Content,
		CharLimit: limit,
	}
	if err := scope.Data.EntrySheets().Insert(ctx, &es); err != nil {
		return nil, err
	}
	return &es, nil
}

func (s *EntrySheetService) UpdateEntrySheet(ctx context.Context, scope app.Scope, id string, in EntrySheetInput) (*models.EntrySheet, error) {
	fields, err := scriptFields(in.Theme, in.Content)
	if err != nil {
		return nil, err
	}
	if in.CharLimit > 0 {
		fields["char_limit"] = in.CharLimit
	}
	if err := scope.Data.EntrySheets().Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return scope.Data.EntrySheets().Get(ctx, id)
}

func (s *EntrySheetService) DeleteEntrySheet(ctx context.Context, scope app.Scope, id string) error {
	return scope.Data.EntrySheets().Delete(ctx, id)
}

type TemplateInput struct {
	Type    string
	Theme   string
	Content string
}

func (s *EntrySheetService) CreateTemplate(ctx context.Context, scope app.Scope, in TemplateInput) (*models.Template, error) {
	kind := in.Type
	if kind == "" {
		kind = models.TemplateES
	}
	if kind != models.TemplateES && kind != models.TemplateInterview {
		return nil, invalid("type", "テンプレートの種類が正しくありません")
	}
	theme := strings.TrimSpace(in.Theme)
	if theme == "" {
		return nil, invalid("theme", "テーマを入力してください")
	}
	t := models.Template{UserID: scope.UserID, Type: kind, Theme: theme, Content: in.Content}
	if err := scope.Data.Templates().Insert(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *EntrySheetService) UpdateTemplate(ctx context.Context, scope app.Scope, id string, in TemplateInput) (*models.Template, error) {
	fields, err := scriptFields(in.Theme, in.Content)
	if err != nil {
		return nil, err
	}
	if err := scope.Data.Templates().Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return scope.Data.Templates().Get(ctx, id)
}

func (s *EntrySheetService) DeleteTemplate(ctx context.Context, scope app.Scope, id string) error {
	return scope.Data.Templates().Delete(ctx, id)
}

func scriptFields(theme, content string) (map[string]any, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, invalid("theme", "テーマを入力してください")
	}
	return map[string]any{"theme": theme, "content": content}, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
