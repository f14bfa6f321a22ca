package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiro4859/syukatsu-base-v2/internal/listing"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

func newCompanyService() *CompanyService {
	return NewCompanyService(logging.Discard(), testClock(), "/images/")
}

func TestCreateCompany(t *testing.T) {
	scope := userScope(t)
	s := newCompanyService()
	ctx := context.Background()

	_, err := s.Create(ctx, scope, CompanyInput{Name: ptr("   ")})
	assert.True(t, IsValidation(err))

	c, err := s.Create(ctx, scope, CompanyInput{
		Name:       ptr(" Acme Corp "),
		Industry:   ptr("IT"),
		ESDeadline: ptr("2025-01-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", c.Name)
	assert.Equal(t, 3, c.MotivationLevel)
	assert.Equal(t, testUser, c.UserID)
	assert.Equal(t, "2025-01-20", c.ESDeadline.String())

	got, err := s.Get(ctx, scope, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-20", got.ESDeadline.String())
}

func TestUpdateCompany(t *testing.T) {
	scope := userScope(t)
	s := newCompanyService()
	ctx := context.Background()
	c, err := s.Create(ctx, scope, CompanyInput{Name: ptr("Beta"), ESDeadline: ptr("2025-01-20")})
	require.NoError(t, err)

	_, err = s.Update(ctx, scope, c.ID, CompanyInput{MotivationLevel: ptr(6)})
	assert.True(t, IsValidation(err))
	_, err = s.Update(ctx, scope, c.ID, CompanyInput{WebtestDeadline: ptr("20th")})
	assert.True(t, IsValidation(err))

	updated, err := s.Update(ctx, scope, c.ID, CompanyInput{
		MotivationLevel: ptr(5),
		ESDeadline:      ptr(""),
		Memo:            ptr("説明会で社員と話した"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MotivationLevel)
	assert.True(t, updated.ESDeadline.IsZero())
	assert.Equal(t, "Beta", updated.Name)
	assert.Equal(t, "説明会で社員と話した", updated.Memo)

	_, err = s.Update(ctx, scope, "missing", CompanyInput{Memo: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListCompanies(t *testing.T) {
	scope := userScope(t)
	s := newCompanyService()
	ctx := context.Background()
	for _, in := range []CompanyInput{
		{Name: ptr("Acme Corp"), Industry: ptr("IT")},
		{Name: ptr("Beta"), Industry: ptr("Finance")},
	} {
		_, err := s.Create(ctx, scope, in)
		require.NoError(t, err)
	}

	list, err := s.List(ctx, scope, listing.Criteria{Query: "acme"})
	require.NoError(t, err)
	require.Len(t, list.Companies, 1)
	assert.Equal(t, "Acme Corp", list.Companies[0].Name)
	assert.Equal(t, []string{"all", "Finance", "IT"}, list.Industries)
}

func TestReplaceImage(t *testing.T) {
	scope := userScope(t)
	s := newCompanyService()
	ctx := context.Background()
	c, err := s.Create(ctx, scope, CompanyInput{Name: ptr("Acme")})
	require.NoError(t, err)

	_, err = s.ReplaceImage(ctx, scope, c.ID, "memo.txt", "text/plain", []byte("x"))
	assert.True(t, IsValidation(err))
	_, err = s.ReplaceImage(ctx, scope, c.ID, "big.png", "image/png", bytes.Repeat([]byte{1}, MaxImageSize+1))
	assert.True(t, IsValidation(err))

	first, err := s.ReplaceImage(ctx, scope, c.ID, "logo.png", "image/png", []byte("png-1"))
	require.NoError(t, err)
	wantKey := testUser + "/" + c.ID + "-" + "1736902800000" + ".png"
	assert.Equal(t, "/images/"+wantKey, first.ImageURL)

	obj, err := scope.Data.Objects().Get(ctx, wantKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-1"), obj.Data)

	s.Clock.Now = func() time.Time { return testNow.Add(time.Second) }
	second, err := s.ReplaceImage(ctx, scope, c.ID, "logo.jpg", "image/jpeg", []byte("jpg-2"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(second.ImageURL, ".jpg"))

	_, err = scope.Data.Objects().Get(ctx, wantKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	stored, err := s.Get(ctx, scope, c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ImageURL, stored.ImageURL)
}

func TestDemoIsReadOnly(t *testing.T) {
	scope := demoScope(t)
	s := newCompanyService()
	ctx := context.Background()

	list, err := s.List(ctx, scope, listing.Criteria{})
	require.NoError(t, err)
	assert.Len(t, list.Companies, 4)

	_, err = s.Create(ctx, scope, CompanyInput{Name: ptr("x")})
	assert.ErrorIs(t, err, store.ErrLoginRequired)
	_, err = s.ReplaceImage(ctx, scope, list.Companies[0].ID, "a.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, store.ErrLoginRequired)
}

func TestDeleteCompanyRemovesImage(t *testing.T) {
	scope := userScope(t)
	s := newCompanyService()
	ctx := context.Background()
	c, err := s.Create(ctx, scope, CompanyInput{Name: ptr("Acme")})
	require.NoError(t, err)
	c, err = s.ReplaceImage(ctx, scope, c.ID, "logo.png", "image/png", []byte("png"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, scope, c.ID))
	_, err = s.Get(ctx, scope, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = scope.Data.Objects().Get(ctx, store.KeyFromURL(c.ImageURL))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
