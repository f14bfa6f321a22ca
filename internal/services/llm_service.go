package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
)

// ErrReviewDisabled is returned when no model is configured.
var ErrReviewDisabled = errors.New("ES review is not configured")

// maxReviewInput bounds the text sent to the model, in runes.
const maxReviewInput = 8000

// ReviewService asks an LLM to rework an entry sheet answer. It never writes
// the suggestion back.
type ReviewService struct {
	// Client is reused across calls.
	Client llms.Model
	Log    *log.Logger
}

// NewGeminiModel builds the Gemini client used for reviews.
func NewGeminiModel(ctx context.Context, apiKey, model string) (llms.Model, error) {
	if apiKey == "" {
		return nil, ErrReviewDisabled
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return llm, nil
}

func NewReviewService(client llms.Model, l *log.Logger) *ReviewService {
	return &ReviewService{Client: client, Log: l}
}

// Revision is a suggested rewrite of an entry sheet.
type Revision struct {
	EntrySheetID string `json:"entry_sheet_id"`
	Suggestion   string `json:"suggestion"`
	CharCount    int    `json:"char_count"`
	CharLimit    int    `json:"char_limit"`
	WithinLimit  bool   `json:"within_limit"`
}

const revisePrompt = `あなたは日本の新卒就職活動のエントリーシート添削の専門家です。
以下の設問への回答を、内容の要点を保ったまま読みやすく推敲してください。

### 条件:
1. 文字数は%d文字以内に収めること。
2. 事実を追加・捏造しないこと。
3. 推敲後の本文のみを出力し、前置きや説明、マークダウンは付けないこと。

### 設問:
%s

### 回答:
%s
`

// Revise returns a rewrite of the entry sheet fitting its character limit.
func (s *ReviewService) Revise(ctx context.Context, scope app.Scope, entrySheetID string) (*Revision, error) {
	if s.Client == nil {
		return nil, ErrReviewDisabled
	}
	es, err := scope.Data.EntrySheets().Get(ctx, entrySheetID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(es.Content)
	if content == "" {
		return nil, invalid("content", "添削する回答を入力してください")
	}
	if utf8.RuneCountInString(content) > maxReviewInput {
		content = string([]rune(content)[:maxReviewInput])
	}
	limit := es.CharLimit
	if limit <= 0 {
		limit = defaultCharLimit
	}

	prompt := fmt.Sprintf(revisePrompt, limit, es.Theme, content)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		s.Log.WithError(err).WithField("entry_sheet_id", entrySheetID).Error("review request failed")
		return nil, fmt.Errorf("generate review: %w", err)
	}
	suggestion := strings.TrimSpace(resp)
	n := utf8.RuneCountInString(suggestion)
	return &Revision{
		EntrySheetID: entrySheetID,
		Suggestion:   suggestion,
		CharCount:    n,
		CharLimit:    limit,
		WithinLimit:  n <= limit,
	}, nil
}
