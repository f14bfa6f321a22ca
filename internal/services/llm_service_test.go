package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// fakeModel answers every prompt with reply and keeps the last prompt.
type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt += text.Text
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestReviseSuggestsWithoutWriting(t *testing.T) {
	scope := userScope(t)
	ctx := context.Background()
	c := addCompany(t, scope, models.Company{Name: "Acme"})
	es := models.EntrySheet{CompanyID: c.ID, Theme: "自己PR", Content: "私は粘り強い人間です。", CharLimit: 10}
	require.NoError(t, scope.Data.EntrySheets().Insert(ctx, &es))

	model := &fakeModel{reply: "  粘り強さが強みです。 \n"}
	s := NewReviewService(model, logging.Discard())

	rev, err := s.Revise(ctx, scope, es.ID)
	require.NoError(t, err)
	assert.Equal(t, "粘り強さが強みです。", rev.Suggestion)
	assert.Equal(t, 10, rev.CharCount)
	assert.True(t, rev.WithinLimit)
	assert.True(t, strings.Contains(model.prompt, "10文字以内"))
	assert.True(t, strings.Contains(model.prompt, "自己PR"))

	stored, err := scope.Data.EntrySheets().Get(ctx, es.ID)
	require.NoError(t, err)
	assert.Equal(t, "私は粘り強い人間です。", stored.Content)
}

func TestReviseOverLimitAndErrors(t *testing.T) {
	scope := userScope(t)
	ctx := context.Background()
	c := addCompany(t, scope, models.Company{Name: "Acme"})
	es := models.EntrySheet{CompanyID: c.ID, Theme: "志望動機", Content: "貴社を志望します。", CharLimit: 5}
	require.NoError(t, scope.Data.EntrySheets().Insert(ctx, &es))
	empty := models.EntrySheet{CompanyID: c.ID, Theme: "自己PR", CharLimit: 200}
	require.NoError(t, scope.Data.EntrySheets().Insert(ctx, &empty))

	rev, err := NewReviewService(&fakeModel{reply: "貴社を強く志望します。"}, logging.Discard()).Revise(ctx, scope, es.ID)
	require.NoError(t, err)
	assert.False(t, rev.WithinLimit)

	_, err = NewReviewService(&fakeModel{}, logging.Discard()).Revise(ctx, scope, empty.ID)
	assert.True(t, IsValidation(err))

	boom := errors.New("quota exceeded")
	_, err = NewReviewService(&fakeModel{err: boom}, logging.Discard()).Revise(ctx, scope, es.ID)
	assert.ErrorIs(t, err, boom)

	_, err = NewReviewService(nil, logging.Discard()).Revise(ctx, scope, es.ID)
	assert.ErrorIs(t, err, ErrReviewDisabled)
}
