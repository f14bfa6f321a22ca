package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/listing"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

// MaxImageSize caps uploaded company images.
const MaxImageSize = 5 << 20

type CompanyService struct {
	Log   *log.Logger
	Clock Clock
	// ImageBaseURL prefixes object keys to form image URLs.
	ImageBaseURL string
}

func NewCompanyService(l *log.Logger, clock Clock, imageBaseURL string) *CompanyService {
	return &CompanyService{Log: l, Clock: clock, ImageBaseURL: imageBaseURL}
}

// CompanyInput carries company fields from a form. Nil fields are left alone on
// update; date fields accept "" to clear the date.
type CompanyInput struct {
	Name              *string
	Industry          *string
	Location          *string
	Website           *string
	Description       *string
	MypageID          *string
	MypagePassword    *string
	SelectionProcess  *string
	CurrentStatus     *string
	MotivationLevel   *int
	NextSelectionDate *string
	ESDeadline        *string
	WebtestDeadline   *string
	WebtestFormat     *string
	Memo              *string
}

// CompanyList is the company list page.
type CompanyList struct {
	Companies  []models.Company `json:"companies"`
	Industries []string         `json:"industries"`
}

func (s *CompanyService) all(ctx context.Context, scope app.Scope) ([]models.Company, error) {
	companies, err := scope.Data.Companies().List(ctx,
		store.Where(store.Eq("user_id", scope.UserID)).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// List filters and sorts the user's companies. The industry choices come from
// the whole collection, not the filtered view.
func (s *CompanyService) List(ctx context.Context, scope app.Scope, c listing.Criteria) (*CompanyList, error) {
	companies, err := s.all(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &CompanyList{
		Companies:  listing.Apply(companies, c),
		Industries: listing.Industries(companies),
	}, nil
}

func (s *CompanyService) Get(ctx context.Context, scope app.Scope, id string) (*models.Company, error) {
	return scope.Data.Companies().Get(ctx, id)
}

func (s *CompanyService) Create(ctx context.Context, scope app.Scope, in CompanyInput) (*models.Company, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "企業名を入力してください")
	}
	fields, err := companyFields(in)
	if err != nil {
		return nil, err
	}

	c := models.Company{UserID: scope.UserID, MotivationLevel: 3}
	applyCompanyFields(&c, fields)
	if err := scope.Data.Companies().Insert(ctx, &c); err != nil {
		return nil, err
	}
	s.Log.WithFields(log.Fields{"user_id": scope.UserID, "company_id": c.ID}).Info("company created")
	return &c, nil
}

func (s *CompanyService) Update(ctx context.Context, scope app.Scope, id string, in CompanyInput) (*models.Company, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name", "企業名を入力してください")
	}
	fields, err := companyFields(in)
	if err != nil {
		return nil, err
	}
	if err := scope.Data.Companies().Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return scope.Data.Companies().Get(ctx, id)
}

// Delete removes the company and then its image. Rows that hang off the
// company are removed by the database.
func (s *CompanyService) Delete(ctx context.Context, scope app.Scope, id string) error {
	c, err := scope.Data.Companies().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.Data.Companies().Delete(ctx, id); err != nil {
		return err
	}
	if key := store.KeyFromURL(c.ImageURL); key != "" {
		if err := scope.Data.Objects().Remove(ctx, key); err != nil {
			s.Log.WithError(err).WithField("key", key).Warn("could not remove company image")
		}
	}
	return nil
}

// ReplaceImage removes the company's current image, uploads the new one under
// "{userId}/{companyId}-{unixMillis}.{ext}" and points image_url at it.
func (s *CompanyService) ReplaceImage(ctx context.Context, scope app.Scope, id, fileName, contentType string, data []byte) (*models.Company, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("image", "画像ファイルを選択してください")
	}
	if len(data) > MaxImageSize {
		return nil, invalid("image", "ファイルサイズは5MB以下にしてください")
	}
	if scope.Demo {
		return nil, store.ErrLoginRequired
	}

	c, err := scope.Data.Companies().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	objects := scope.Data.Objects()
	if old := store.KeyFromURL(c.ImageURL); old != "" {
		if err := objects.Remove(ctx, old); err != nil {
			s.Log.WithError(err).WithField("key", old).Warn("could not remove previous company image")
		}
	}

	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		ext = strings.TrimPrefix(contentType, "image/")
	}
	key := store.ObjectKey(scope.UserID, fmt.Sprintf("%s-%d.%s", c.ID, s.Clock.Now().UnixMilli(), ext))
	if err := objects.Put(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	url := s.ImageBaseURL + key
	if err := scope.Data.Companies().Update(ctx, c.ID, map[string]any{"image_url": url}); err != nil {
		return nil, err
	}
	c.ImageURL = url
	return c, nil
}

func companyFields(in CompanyInput) (map[string]any, error) {
	fields := map[string]any{}
	text := map[string]*string{
		"name":              in.Name,
		"industry":          in.Industry,
		"location":          in.Location,
		"website":           in.Website,
		"description":       in.Description,
		"mypage_id":         in.MypageID,
		"mypage_password":   in.MypagePassword,
		"selection_process": in.SelectionProcess,
		"current_status":    in.CurrentStatus,
		"webtest_format":    in.WebtestFormat,
		"memo":              in.Memo,
	}
	for col, v := range text {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}

	if in.MotivationLevel != nil {
		if *in.MotivationLevel < 1 || *in.MotivationLevel > 5 {
			return nil, invalid("motivation_level", "志望度は1〜5で指定してください")
		}
		fields["motivation_level"] = *in.MotivationLevel
	}

	deadlines := map[string]*string{
		"next_selection_date": in.NextSelectionDate,
		"es_deadline":         in.ESDeadline,
		"webtest_deadline":    in.WebtestDeadline,
	}
	for col, v := range deadlines {
		if v == nil {
			continue
		}
		d, err := dates.Parse(*v)
		if err != nil {
			return nil, invalid(col, "日付の形式が正しくありません")
		}
		fields[col] = d
	}
	return fields, nil
}

func applyCompanyFields(c *models.Company, fields map[string]any) {
	for col, v := range fields {
		switch col {
		case "name":
			c.Name = v.(string)
		case "industry":
			c.Industry = v.(string)
		case "location":
			c.Location = v.(string)
		case "website":
			c.Website = v.(string)
		case "description":
			c.Description = v.(string)
		case "mypage_id":
			c.MypageID = v.(string)
		case "mypage_password":
			c.MypagePassword = v.(string)
		case "selection_process":
			c.SelectionProcess = v.(string)
		case "current_status":
			c.CurrentStatus = v.(string)
		case "webtest_format":
			c.WebtestFormat = v.(string)
		case "memo":
			c.Memo = v.(string)
		case "motivation_level":
			c.MotivationLevel = v.(int)
		case "next_selection_date":
			c.NextSelectionDate = v.(dates.Date)
		case "es_deadline":
			c.ESDeadline = v.(dates.Date)
		case "webtest_deadline":
			c.WebtestDeadline = v.(dates.Date)
		}
	}
}
