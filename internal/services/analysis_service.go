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

type AnalysisService struct {
	Log   *log.Logger
	Clock Clock
}

func NewAnalysisService(l *log.Logger, clock Clock) *AnalysisService {
	return &AnalysisService{Log: l, Clock: clock}
}

// AnalysisEntry is one field on an analysis tab. Built-in fields can be hidden;
// custom fields carry FieldID and can be deleted.
type AnalysisEntry struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Custom  bool   `json:"custom"`
	FieldID string `json:"field_id,omitempty"`
}

type AnalysisTab struct {
	Key    string          `json:"key"`
	Fields []AnalysisEntry `json:"fields"`
}

type AnalysisPage struct {
	Company models.Company `json:"company"`
	Tabs    []AnalysisTab  `json:"tabs"`
	Hidden  []string       `json:"hidden"`
	Memo    string         `json:"personal_analysis_memo"`
}

var analysisTabs = []string{models.TabBasic, models.TabBusiness, models.TabCulture, models.TabMemo}

func (s *AnalysisService) Page(ctx context.Context, scope app.Scope, companyID string) (*AnalysisPage, error) {
	var (
		company *models.Company
		custom  []models.CustomAnalysisField
		values  []models.CompanyCustomField
		hidden  []models.HiddenAnalysisField
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		company, err = scope.Data.Companies().Get(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		custom, err = scope.Data.CustomAnalysisFields().List(gctx, store.Where(
			store.Eq("user_id", scope.UserID),
			store.Eq("is_active", true),
		).OrderBy("order_index", false))
		return wrap("list custom fields", err)
	})
	g.Go(func() error {
		var err error
		values, err = scope.Data.CompanyCustomFields().List(gctx, store.Where(store.Eq("company_id", companyID)))
		return wrap("list custom values", err)
	})
	g.Go(func() error {
		var err error
		hidden, err = scope.Data.HiddenAnalysisFields().List(gctx, store.Where(store.Eq("user_id", scope.UserID)))
		return wrap("list hidden fields", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hiddenKeys := make(map[string]bool, len(hidden))
	page := &AnalysisPage{Company: *company, Memo: company.PersonalAnalysisMemo, Hidden: []string{}}
	for _, h := range hidden {
		hiddenKeys[h.FieldKey] = true
		page.Hidden = append(page.Hidden, h.FieldKey)
	}
	customValues := make(map[string]string, len(values))
	for _, v := range values {
		customValues[v.FieldKey] = v.Value
	}
	builtin := company.AnalysisValues()

	for _, tab := range analysisTabs {
		t := AnalysisTab{Key: tab, Fields: []AnalysisEntry{}}
		for _, f := range models.AnalysisFields {
			if f.Tab != tab || hiddenKeys[f.Key] {
				continue
			}
			t.Fields = append(t.Fields, AnalysisEntry{Key: f.Key, Label: f.Label, Value: builtin[f.Key]})
		}
		for _, f := range custom {
			if f.TabCategory != tab {
				continue
			}
			t.Fields = append(t.Fields, AnalysisEntry{
				Key: f.FieldKey, Label: f.FieldName, Value: customValues[f.FieldKey], Custom: true, FieldID: f.ID,
			})
		}
		page.Tabs = append(page.Tabs, t)
	}
	return page, nil
}

type AnalysisInput struct {
	// Builtin maps built-in field keys to values.
	Builtin map[string]string
	Memo    *string
	// Custom maps custom field keys to values.
	Custom map[string]string
}

// Save writes the company's built-in analysis columns, then each custom value.
// Custom values are written one by one; a failure stops the loop and earlier
// writes stay.
func (s *AnalysisService) Save(ctx context.Context, scope app.Scope, companyID string, in AnalysisInput) error {
	fields := make(map[string]any, len(in.Builtin)+1)
	for key, v := range in.Builtin {
		if !models.IsAnalysisField(key) {
			return invalid(key, fmt.Sprintf("unknown analysis field %q", key))
		}
		fields[key] = v
	}
	if in.Memo != nil {
		fields["personal_analysis_memo"] = *in.Memo
	}
	if len(fields) > 0 {
		if err := scope.Data.Companies().Update(ctx, companyID, fields); err != nil {
			return err
		}
	} else if _, err := scope.Data.Companies().Get(ctx, companyID); err != nil {
		return err
	}

	values := scope.Data.CompanyCustomFields()
	for key, v := range in.Custom {
		existing, err := values.List(ctx, store.Where(store.Eq("company_id", companyID), store.Eq("field_key", key)))
		if err != nil {
			return fmt.Errorf("read custom value %s: %w", key, err)
		}
		if len(existing) > 0 {
			err = values.Update(ctx, existing[0].ID, map[string]any{"value": v})
		} else {
			err = values.Insert(ctx, &models.CompanyCustomField{CompanyID: companyID, FieldKey: key, Value: v})
		}
		if err != nil {
			return fmt.Errorf("save custom value %s: %w", key, err)
		}
	}
	return nil
}

// AddCustomField appends a user-defined field to a tab.
func (s *AnalysisService) AddCustomField(ctx context.Context, scope app.Scope, name, tab string) (*models.CustomAnalysisField, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("field_name", "項目名を入力してください")
	}
	if tab == "" {
		tab = models.TabBasic
	}
	if !models.IsTab(tab) {
		return nil, invalid("tab_category", fmt.Sprintf("unknown tab %q", tab))
	}
	existing, err := scope.Data.CustomAnalysisFields().List(ctx, store.Where(store.Eq("user_id", scope.UserID)))
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}

	f := models.CustomAnalysisField{
		UserID:      scope.UserID,
		FieldName:   name,
		FieldKey:    fmt.Sprintf("custom_%d", s.Clock.Now().UnixMilli()),
		OrderIndex:  len(existing),
		IsActive:    true,
		TabCategory: tab,
	}
	if err := scope.Data.CustomAnalysisFields().Insert(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *AnalysisService) DeleteCustomField(ctx context.Context, scope app.Scope, id string) error {
	return scope.Data.CustomAnalysisFields().Delete(ctx, id)
}

// ToggleHidden hides a built-in field, or shows it again when already hidden.
// It reports whether the field is hidden afterwards.
func (s *AnalysisService) ToggleHidden(ctx context.Context, scope app.Scope, key string) (bool, error) {
	if !models.IsAnalysisField(key) {
		return false, invalid("field_key", "only built-in fields can be hidden")
	}
	table := scope.Data.HiddenAnalysisFields()
	existing, err := table.List(ctx, store.Where(store.Eq("user_id", scope.UserID), store.Eq("field_key", key)))
	if err != nil {
		return false, fmt.Errorf("list hidden fields: %w", err)
	}
	if len(existing) > 0 {
		return false, table.Delete(ctx, existing[0].ID)
	}
	if err := table.Insert(ctx, &models.HiddenAnalysisField{UserID: scope.UserID, FieldKey: key}); err != nil {
		return false, err
	}
	return true, nil
}
