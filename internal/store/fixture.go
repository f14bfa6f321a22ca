package store

import (
	"context"
	_ "embed"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// DemoUserID owns every row of the demo dataset.
const DemoUserID = "00000000-0000-4000-8000-000000000000"

//go:embed demo.json
var demoJSON []byte

// Dates in the demo file are day offsets from today so the dataset never goes stale.
type demoCompany struct {
	models.Company
	CreatedDaysAgo    int  `json:"created_days_ago"`
	NextSelectionIn   *int `json:"next_selection_in"`
	ESDeadlineIn      *int `json:"es_deadline_in"`
	WebtestDeadlineIn *int `json:"webtest_deadline_in"`
}

type demoTask struct {
	models.Task
	DueIn *int `json:"due_in"`
}

type demoData struct {
	Companies            []demoCompany                `json:"companies"`
	Tasks                []demoTask                   `json:"tasks"`
	SelectionSteps       []models.SelectionStep       `json:"selection_steps"`
	EntrySheets          []models.EntrySheet          `json:"entry_sheets"`
	Templates            []models.Template            `json:"templates"`
	CustomAnalysisFields []models.CustomAnalysisField `json:"custom_analysis_fields"`
	CompanyCustomFields  []models.CompanyCustomField  `json:"company_custom_fields"`
	UserProfile          models.UserProfile           `json:"user_profile"`
}

// FixtureProvider serves the read-only demo dataset shown to signed-out visitors.
// Every write fails with ErrLoginRequired.
type FixtureProvider struct {
	companies     *memTable[models.Company]
	tasks         *memTable[models.Task]
	steps         *memTable[models.SelectionStep]
	entrySheets   *memTable[models.EntrySheet]
	templates     *memTable[models.Template]
	customFields  *memTable[models.CustomAnalysisField]
	companyFields *memTable[models.CompanyCustomField]
	hiddenFields  *memTable[models.HiddenAnalysisField]
	profiles      *memTable[models.UserProfile]
}

// LoadFixtures decodes the embedded demo dataset relative to now in loc.
func LoadFixtures(now time.Time, loc *time.Location) (*FixtureProvider, error) {
	var data demoData
	if err := sonic.Unmarshal(demoJSON, &data); err != nil {
		return nil, fmt.Errorf("decode demo dataset: %w", err)
	}

	today := dates.Today(now, loc)
	offset := func(days *int) dates.Date {
		if days == nil {
			return dates.Date{}
		}
		return today.AddDays(*days)
	}

	companies := make([]models.Company, len(data.Companies))
	for i, dc := range data.Companies {
		c := dc.Company
		c.UserID = DemoUserID
		c.CreatedAt = now.AddDate(0, 0, -dc.CreatedDaysAgo)
		c.UpdatedAt = c.CreatedAt
		c.NextSelectionDate = offset(dc.NextSelectionIn)
		c.ESDeadline = offset(dc.ESDeadlineIn)
		c.WebtestDeadline = offset(dc.WebtestDeadlineIn)
		companies[i] = c
	}
	tasks := make([]models.Task, len(data.Tasks))
	for i, dt := range data.Tasks {
		t := dt.Task
		t.UserID = DemoUserID
		t.CreatedAt = now
		t.DueDate = offset(dt.DueIn)
		tasks[i] = t
	}
	for i := range data.EntrySheets {
		data.EntrySheets[i].UserID = DemoUserID
		data.EntrySheets[i].CreatedAt = now.AddDate(0, 0, -i)
		data.EntrySheets[i].UpdatedAt = data.EntrySheets[i].CreatedAt
	}
	for i := range data.Templates {
		data.Templates[i].UserID = DemoUserID
		data.Templates[i].CreatedAt = now.AddDate(0, 0, -i)
		data.Templates[i].UpdatedAt = data.Templates[i].CreatedAt
	}
	for i := range data.CustomAnalysisFields {
		data.CustomAnalysisFields[i].UserID = DemoUserID
	}
	data.UserProfile.ID = DemoUserID

	p := &FixtureProvider{}
	var err error
	if p.companies, err = newMemTable(companies); err != nil {
		return nil, err
	}
	if p.tasks, err = newMemTable(tasks); err != nil {
		return nil, err
	}
	if p.steps, err = newMemTable(data.SelectionSteps); err != nil {
		return nil, err
	}
	if p.entrySheets, err = newMemTable(data.EntrySheets); err != nil {
		return nil, err
	}
	if p.templates, err = newMemTable(data.Templates); err != nil {
		return nil, err
	}
	if p.customFields, err = newMemTable(data.CustomAnalysisFields); err != nil {
		return nil, err
	}
	if p.companyFields, err = newMemTable(data.CompanyCustomFields); err != nil {
		return nil, err
	}
	if p.hiddenFields, err = newMemTable([]models.HiddenAnalysisField{}); err != nil {
		return nil, err
	}
	if p.profiles, err = newMemTable([]models.UserProfile{data.UserProfile}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FixtureProvider) Companies() Table[models.Company] { return p.companies }
func (p *FixtureProvider) Tasks() Table[models.Task] { return p.tasks }
func (p *FixtureProvider) SelectionSteps() Table[models.SelectionStep] { return p.steps }
func (p *FixtureProvider) EntrySheets() Table[models.EntrySheet] { return p.entrySheets }
func (p *FixtureProvider) Templates() Table[models.Template] { return p.templates }
func (p *FixtureProvider) UserProfiles() Table[models.UserProfile] { return p.profiles }
func (p *FixtureProvider) Objects() Objects { return fixtureObjects{} }
func (p *FixtureProvider) CustomAnalysisFields() Table[models.CustomAnalysisField] {
	return p.customFields
}
func (p *FixtureProvider) CompanyCustomFields() Table[models.CompanyCustomField] {
	return p.companyFields
}
func (p *FixtureProvider) HiddenAnalysisFields() Table[models.HiddenAnalysisField] {
	return p.hiddenFields
}

type fixtureObjects struct{}

func (fixtureObjects) Put(context.Context, string, string, []byte) error { return ErrLoginRequired }
func (fixtureObjects) Remove(context.Context, ...string) error { return ErrLoginRequired }
func (fixtureObjects) Get(_ context.Context, key string) (*models.Object, error) {
	return nil, fmt.Errorf("object %s: %w", key, ErrNotFound)
}

// memTable is a read-only table over a fixed slice. Columns are addressed by
// their json names, which match the database column names.
type memTable[T any] struct {
	rows []T
	cols []map[string]any
}

func newMemTable[T any](rows []T) (*memTable[T], error) {
	t := &memTable[T]{rows: rows, cols: make([]map[string]any, len(rows))}
	for i := range rows {
		b, err := sonic.Marshal(rows[i])
		if err != nil {
			return nil, err
		}
		if err := sonic.Unmarshal(b, &t.cols[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// normalize converts v to the shape it has inside a decoded row.
func normalize(v any) (any, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := sonic.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *memTable[T]) List(_ context.Context, q Query) ([]T, error) {
	want := make([]any, len(q.Filters))
	for i, f := range q.Filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Column, err)
		}
		want[i] = v
	}

	var idx []int
rows:
	for i, cols := range t.cols {
		for j, f := range q.Filters {
			if !reflect.DeepEqual(cols[f.Column], want[j]) {
				continue rows
			}
		}
		idx = append(idx, i)
	}

	if q.Order != nil {
		col, desc := q.Order.Column, q.Order.Desc
		sort.SliceStable(idx, func(a, b int) bool {
			va, vb := t.cols[idx[a]][col], t.cols[idx[b]][col]
			if va == nil || vb == nil {
				return va != nil
			}
			c := compareValues(va, vb)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	out := make([]T, len(idx))
	for i, k := range idx {
		out[i] = t.rows[k]
	}
	return out, nil
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case float64:
		y, _ := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y, _ := b.(string)
		return strings.Compare(x, y)
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return 0
}

func (t *memTable[T]) Get(_ context.Context, id string) (*T, error) {
	for i, cols := range t.cols {
		if cols["id"] == id {
			row := t.rows[i]
			return &row, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTable[T]) Insert(context.Context, *T) error { return ErrLoginRequired }

func (t *memTable[T]) Update(context.Context, string, map[string]any) error {
	return ErrLoginRequired
}

func (t *memTable[T]) Delete(context.Context, string) error { return ErrLoginRequired }
