package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

func tabByKey(page *AnalysisPage, key string) AnalysisTab {
	for _, t := range page.Tabs {
		if t.Key == key {
			return t
		}
	}
	return AnalysisTab{}
}

func entryByKey(tab AnalysisTab, key string) (AnalysisEntry, bool) {
	for _, e := range tab.Fields {
		if e.Key == key {
			return e, true
		}
	}
	return AnalysisEntry{}, false
}

func TestAnalysisSaveAndPage(t *testing.T) {
	scope := userScope(t)
	ctx := context.Background()
	s := NewAnalysisService(logging.Discard(), testClock())
	c := addCompany(t, scope, models.Company{Name: "Acme"})

	field, err := s.AddCustomField(ctx, scope, "インターン経験者の声", models.TabCulture)
	require.NoError(t, err)
	assert.Equal(t, "custom_1736902800000", field.FieldKey)
	assert.Equal(t, 0, field.OrderIndex)

	memo := "雰囲気が合いそう"
	require.NoError(t, s.Save(ctx, scope, c.ID, AnalysisInput{
		Builtin: map[string]string{"revenue": "1兆円", "philosophy": "挑戦"},
		Memo:    &memo,
		Custom:  map[string]string{field.FieldKey: "若手に裁量"},
	}))

	page, err := s.Page(ctx, scope, c.ID)
	require.NoError(t, err)
	require.Len(t, page.Tabs, 4)
	assert.Equal(t, memo, page.Memo)

	revenue, ok := entryByKey(tabByKey(page, models.TabBasic), "revenue")
	require.True(t, ok)
	assert.Equal(t, "1兆円", revenue.Value)
	assert.Equal(t, "売上高", revenue.Label)

	custom, ok := entryByKey(tabByKey(page, models.TabCulture), field.FieldKey)
	require.True(t, ok)
	assert.True(t, custom.Custom)
	assert.Equal(t, field.ID, custom.FieldID)
	assert.Equal(t, "若手に裁量", custom.Value)

	// A second save updates the stored custom value instead of adding another.
	require.NoError(t, s.Save(ctx, scope, c.ID, AnalysisInput{Custom: map[string]string{field.FieldKey: "風通しが良い"}}))
	values, err := scope.Data.CompanyCustomFields().List(ctx, store.Where(store.Eq("company_id", c.ID)))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "風通しが良い", values[0].Value)
}

func TestAnalysisSaveRejectsUnknownFields(t *testing.T) {
	scope := userScope(t)
	s := NewAnalysisService(logging.Discard(), testClock())
	c := addCompany(t, scope, models.Company{Name: "Acme"})

	err := s.Save(context.Background(), scope, c.ID, AnalysisInput{Builtin: map[string]string{"user_id": "x"}})
	assert.True(t, IsValidation(err))
}

func TestCustomFields(t *testing.T) {
	scope := userScope(t)
	ctx := context.Background()
	s := NewAnalysisService(logging.Discard(), testClock())

	_, err := s.AddCustomField(ctx, scope, " ", "")
	assert.True(t, IsValidation(err))
	_, err = s.AddCustomField(ctx, scope, "x", "finance")
	assert.True(t, IsValidation(err))

	first, err := s.AddCustomField(ctx, scope, "OB訪問", "")
	require.NoError(t, err)
	assert.Equal(t, models.TabBasic, first.TabCategory)

	s.Clock.Now = func() time.Time { return testNow.Add(time.Millisecond) }
	second, err := s.AddCustomField(ctx, scope, "説明会", models.TabMemo)
	require.NoError(t, err)
	assert.Equal(t, 1, second.OrderIndex)
	assert.NotEqual(t, first.FieldKey, second.FieldKey)

	require.NoError(t, s.DeleteCustomField(ctx, scope, first.ID))
	fields, err := scope.Data.CustomAnalysisFields().List(ctx, store.Where(store.Eq("user_id", testUser)))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, second.ID, fields[0].ID)
}

func TestToggleHidden(t *testing.T) {
	scope := userScope(t)
	ctx := context.Background()
	s := NewAnalysisService(logging.Discard(), testClock())
	c := addCompany(t, scope, models.Company{Name: "Acme"})

	_, err := s.ToggleHidden(ctx, scope, "custom_1")
	assert.True(t, IsValidation(err))

	hidden, err := s.ToggleHidden(ctx, scope, "capital")
	require.NoError(t, err)
	assert.True(t, hidden)

	page, err := s.Page(ctx, scope, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"capital"}, page.Hidden)
	_, ok := entryByKey(tabByKey(page, models.TabBasic), "capital")
	assert.False(t, ok)

	hidden, err = s.ToggleHidden(ctx, scope, "capital")
	require.NoError(t, err)
	assert.False(t, hidden)
	page, err = s.Page(ctx, scope, c.ID)
	require.NoError(t, err)
	assert.Empty(t, page.Hidden)
	_, ok = entryByKey(tabByKey(page, models.TabBasic), "capital")
	assert.True(t, ok)
}

func TestAnalysisDemoPage(t *testing.T) {
	s := NewAnalysisService(logging.Discard(), testClock())
	page, err := s.Page(context.Background(), demoScope(t), "7b1e0f52-3c1a-4d7e-9a51-0c6f5d1b2a01")
	require.NoError(t, err)
	revenue, ok := entryByKey(tabByKey(page, models.TabBasic), "revenue")
	require.True(t, ok)
	assert.Equal(t, "2兆円", revenue.Value)
	assert.NotEmpty(t, tabByKey(page, models.TabMemo).Fields)
}
