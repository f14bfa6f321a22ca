package store

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// GormProvider serves one user's rows out of the database. Row ownership is
// enforced here: queries only ever see rows owned by the user, directly or
// through the owning company, and writes cannot point at another user's company.
type GormProvider struct {
	DB     *gorm.DB
	UserID string
}

// NewGormProvider scopes db to userID.
func NewGormProvider(db *gorm.DB, userID string) *GormProvider {
	if userID == "" {
		panic("store.NewGormProvider: empty user id")
	}
	return &GormProvider{DB: db, UserID: userID}
}

func (p *GormProvider) byUser(tx *gorm.DB) *gorm.DB {
	return tx.Where("user_id = ?", p.UserID)
}

func (p *GormProvider) bySelf(tx *gorm.DB) *gorm.DB {
	return tx.Where("id = ?", p.UserID)
}

func (p *GormProvider) byCompany(tx *gorm.DB) *gorm.DB {
	owned := p.DB.Model(&models.Company{}).Select("id").Where("user_id = ?", p.UserID)
	return tx.Where("company_id IN (?)", owned)
}

// ownsCompany fails with ErrNotFound unless companyID belongs to the user.
func (p *GormProvider) ownsCompany(ctx context.Context, companyID string) error {
	var n int64
	err := p.DB.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND user_id = ?", companyID, p.UserID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("company %s: %w", companyID, ErrNotFound)
	}
	return nil
}

func (p *GormProvider) Companies() Table[models.Company] {
	return &gormTable[models.Company]{db: p.DB, scope: p.byUser, owns: p.ownsCompany,
		prepare: func(ctx context.Context, c *models.Company) error {
			c.UserID = p.UserID
			return nil
		}}
}

func (p *GormProvider) Tasks() Table[models.Task] {
	return &gormTable[models.Task]{db: p.DB, scope: p.byUser, owns: p.ownsCompany,
		prepare: func(ctx context.Context, t *models.Task) error {
			t.UserID = p.UserID
			if t.CompanyID != nil && *t.CompanyID != "" {
				return p.ownsCompany(ctx, *t.CompanyID)
			}
			t.CompanyID = nil
			return nil
		}}
}

func (p *GormProvider) SelectionSteps() Table[models.SelectionStep] {
	return &gormTable[models.SelectionStep]{db: p.DB, scope: p.byCompany, owns: p.ownsCompany,
		prepare: func(ctx context.Context, s *models.SelectionStep) error {
			return p.ownsCompany(ctx, s.CompanyID)
		}}
}

func (p *GormProvider) EntrySheets() Table[models.EntrySheet] {
	return &gormTable[models.EntrySheet]{db: p.DB, scope: p.byUser, owns: p.ownsCompany,
		prepare: func(ctx context.Context, es *models.EntrySheet) error {
			es.UserID = p.UserID
			return p.ownsCompany(ctx, es.CompanyID)
		}}
}

func (p *GormProvider) Templates() Table[models.Template] {
	return &gormTable[models.Template]{db: p.DB, scope: p.byUser, owns: p.ownsCompany,
		prepare: func(ctx context.Context, t *models.Template) error {
			t.UserID = p.UserID
			return nil
		}}
}

func (p *GormProvider) CustomAnalysisFields() Table[models.CustomAnalysisField] {
	return &gormTable[models.CustomAnalysisField]{db: p.DB, scope: p.byUser, owns: p.ownsCompany,
		prepare: func(ctx context.Context, f *models.CustomAnalysisField) error {
			f.UserID = p.UserID
			return nil
		}}
}

func (p *GormProvider) CompanyCustomFields() Table[models.CompanyCustomField] {
	return &gormTable[models.CompanyCustomField]{db: p.DB, scope: p.byCompany, owns: p.ownsCompany,
		prepare: func(ctx context.Context, f *models.CompanyCustomField) error {
			return p.ownsCompany(ctx, f.CompanyID)
		}}
}

func (p *GormProvider) HiddenAnalysisFields() Table[models.HiddenAnalysisField] {
	return &gormTable[models.HiddenAnalysisField]{db: p.DB, scope: p.byUser, owns: p.ownsCompany,
		prepare: func(ctx context.Context, f *models.HiddenAnalysisField) error {
			f.UserID = p.UserID
			return nil
		}}
}

func (p *GormProvider) UserProfiles() Table[models.UserProfile] {
	return &gormTable[models.UserProfile]{db: p.DB, scope: p.bySelf, owns: p.ownsCompany,
		prepare: func(ctx context.Context, up *models.UserProfile) error {
			up.ID = p.UserID
			return nil
		}}
}

func (p *GormProvider) Objects() Objects {
	return &gormObjects{db: p.DB, userID: p.UserID}
}

type gormTable[T any] struct {
	db      *gorm.DB
	scope   func(*gorm.DB) *gorm.DB
	prepare func(ctx context.Context, row *T) error
	owns    func(ctx context.Context, companyID string) error
}

func (t *gormTable[T]) query(ctx context.Context) *gorm.DB {
	return t.scope(t.db.WithContext(ctx).Model(new(T)))
}

func (t *gormTable[T]) List(ctx context.Context, q Query) ([]T, error) {
	tx := t.query(ctx)
	for _, f := range q.Filters {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Column}, Value: f.Value})
	}
	if q.Order != nil {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Order.Column}, Desc: q.Order.Desc})
	}
	rows := []T{}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *gormTable[T]) Get(ctx context.Context, id string) (*T, error) {
	var row T
	err := t.query(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (t *gormTable[T]) Insert(ctx context.Context, row *T) error {
	if t.prepare != nil {
		if err := t.prepare(ctx, row); err != nil {
			return err
		}
	}
	return t.db.WithContext(ctx).Create(row).Error
}

// Update never changes a row's id or owner; those keys are dropped from a copy of fields.
func (t *gormTable[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	fields = maps.Clone(fields)
	delete(fields, "id")
	delete(fields, "user_id")
	if len(fields) == 0 {
		return nil
	}
	if companyID := companyRef(fields["company_id"]); companyID != "" {
		if err := t.owns(ctx, companyID); err != nil {
			return err
		}
	}
	res := t.query(ctx).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTable[T]) Delete(ctx context.Context, id string) error {
	res := t.query(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func companyRef(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case *string:
		if id != nil {
			return *id
		}
	}
	return ""
}
