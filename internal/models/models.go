package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
)

// Base carries the UUID primary key shared by every record.
type Base struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
}

// BeforeCreate assigns an id when the caller did not.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// User is an account known to the auth provider.
type User struct {
	Base
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
}

type Company struct {
	Base
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`

	Name        string `gorm:"not null" json:"name"`
	Industry    string `json:"industry"`
	Location    string `json:"location"`
	Website     string `json:"website"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `json:"image_url"`

	MypageID       string `json:"mypage_id"`
	MypagePassword string `json:"mypage_password"`

	SelectionProcess  string     `gorm:"type:text" json:"selection_process"`
	CurrentStatus     string     `json:"current_status"`
	MotivationLevel   int        `gorm:"default:3" json:"motivation_level"`
	NextSelectionDate dates.Date `json:"next_selection_date"`
	ESDeadline        dates.Date `gorm:"column:es_deadline" json:"es_deadline"`
	WebtestDeadline   dates.Date `json:"webtest_deadline"`
	WebtestFormat     string     `json:"webtest_format"`
	Memo              string     `gorm:"type:text" json:"memo"`

	// Company analysis, see analysis.go for the tab layout.
	Revenue               string `json:"revenue"`
	EmployeeCount         string `json:"employee_count"`
	Capital               string `json:"capital"`
	HiringCount           string `json:"hiring_count"`
	AverageSalary         string `json:"average_salary"`
	Benefits              string `gorm:"type:text" json:"benefits"`
	AverageTenure         string `json:"average_tenure"`
	OvertimeHours         string `json:"overtime_hours"`
	BusinessContent       string `gorm:"type:text" json:"business_content"`
	Products              string `gorm:"type:text" json:"products"`
	DepartmentOperations  string `gorm:"type:text" json:"department_operations"`
	CompetitiveComparison string `gorm:"type:text" json:"competitive_comparison"`
	GrowthPotential       string `gorm:"type:text" json:"growth_potential"`
	Commercials           string `gorm:"type:text" json:"commercials"`
	MidTermPlan           string `gorm:"type:text" json:"mid_term_plan"`
	Philosophy            string `gorm:"type:text" json:"philosophy"`
	CompanyCulture        string `gorm:"type:text" json:"company_culture"`
	CareerPlan            string `gorm:"type:text" json:"career_plan"`
	PersonalAnalysisMemo  string `gorm:"type:text" json:"personal_analysis_memo"`

	Tasks          []Task               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SelectionSteps []SelectionStep      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	EntrySheets    []EntrySheet         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CustomFields   []CompanyCustomField `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Task may or may not belong to a company.
type Task struct {
	Base
	CreatedAt time.Time `json:"created_at"`

	UserID    string  `gorm:"type:uuid;index;not null" json:"user_id"`
	CompanyID *string `gorm:"type:uuid;index" json:"company_id"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     dates.Date `json:"due_date"`
	Completed   bool       `gorm:"default:false" json:"completed"`
}

// SelectionStep is one stage of a company's hiring process. OrderIndex is dense per company.
type SelectionStep struct {
	Base
	CreatedAt time.Time `json:"created_at"`

	CompanyID  string `gorm:"type:uuid;index;not null" json:"company_id"`
	StepName   string `gorm:"not null" json:"step_name"`
	Memo       string `gorm:"type:text" json:"memo"`
	OrderIndex int    `gorm:"not null" json:"order_index"`
}

type EntrySheet struct {
	Base
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    string `gorm:"type:uuid;index;not null" json:"user_id"`
	CompanyID string `gorm:"type:uuid;index;not null" json:"company_id"`

	Theme     string `json:"theme"`
	Content   string `gorm:"type:text" json:"content"`
	CharLimit int    `gorm:"default:400" json:"char_limit"`
}

// Template kinds.
const (
	TemplateES        = "es"
	TemplateInterview = "interview"
)

// Template is a reusable script not tied to a company.
type Template struct {
	Base
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID  string `gorm:"type:uuid;index;not null" json:"user_id"`
	Type    string `gorm:"default:'es'" json:"type"`
	Theme   string `json:"theme"`
	Content string `gorm:"type:text" json:"content"`
}

type CustomAnalysisField struct {
	Base
	CreatedAt time.Time `json:"created_at"`

	UserID      string `gorm:"type:uuid;index;not null" json:"user_id"`
	FieldName   string `gorm:"not null" json:"field_name"`
	FieldKey    string `gorm:"not null" json:"field_key"`
	OrderIndex  int    `json:"order_index"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	TabCategory string `gorm:"default:'basic'" json:"tab_category"`
}

type CompanyCustomField struct {
	Base
	CompanyID string `gorm:"type:uuid;uniqueIndex:idx_company_field;not null" json:"company_id"`
	FieldKey  string `gorm:"uniqueIndex:idx_company_field;not null" json:"field_key"`
	Value     string `gorm:"type:text" json:"value"`
}

type HiddenAnalysisField struct {
	Base
	UserID   string `gorm:"type:uuid;uniqueIndex:idx_user_hidden;not null" json:"user_id"`
	FieldKey string `gorm:"uniqueIndex:idx_user_hidden;not null" json:"field_key"`
}

// UserProfile shares its id with the owning User.
type UserProfile struct {
	Base
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FullName       string `json:"full_name"`
	University     string `json:"university"`
	Department     string `json:"department"`
	GraduationYear *int   `json:"graduation_year"`
}

// Object is a stored binary blob addressed by "{userId}/{fileName}".
type Object struct {
	Key         string    `gorm:"primaryKey" json:"key"`
	CreatedAt   time.Time `json:"created_at"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
}

// All lists every model for migrations.
func All() []any {
	return []any{
		&User{}, &UserProfile{}, &Company{}, &Task{}, &SelectionStep{}, &EntrySheet{},
		&Template{}, &CustomAnalysisField{}, &CompanyCustomField{}, &HiddenAnalysisField{}, &Object{},
	}
}
