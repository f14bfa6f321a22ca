package dtos

type TaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"`
	CompanyID   *string `json:"company_id"`
}

type CompleteDeadlineRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=task es webtest"`
	SourceID string `json:"source_id" binding:"required"`
}

type StepRequest struct {
	StepName string `json:"step_name"`
}

type StepMemoRequest struct {
	Memo string `json:"memo"`
}

type MoveStepRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

type EntrySheetRequest struct {
	Theme     string `json:"theme"`
	Content   string `json:"content"`
	CharLimit int    `json:"char_limit" binding:"omitempty,min=1"`
}

type TemplateRequest struct {
	Type    string `json:"type" binding:"omitempty,oneof=es interview"`
	Theme   string `json:"theme"`
	Content string `json:"content"`
}

type AnalysisRequest struct {
	Fields map[string]string `json:"fields"`
	Memo   *string           `json:"personal_analysis_memo"`
	Custom map[string]string `json:"custom_fields"`
}

type CustomFieldRequest struct {
	FieldName   string `json:"field_name"`
	TabCategory string `json:"tab_category"`
}

type ProfileRequest struct {
	FullName       *string `json:"full_name"`
	University     *string `json:"university"`
	Department     *string `json:"department"`
	GraduationYear *int    `json:"graduation_year"`
}
