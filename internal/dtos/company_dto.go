package dtos

import (
	"github.com/hiro4859/syukatsu-base-v2/internal/deadlines"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// CompanyRequest is used for create and partial update; absent fields are
// left alone. Dates are "YYYY-MM-DD", and "" clears them.
type CompanyRequest struct {
	Name              *string `json:"name"`
	Industry          *string `json:"industry"`
	Location          *string `json:"location"`
	Website           *string `json:"website"`
	Description       *string `json:"description"`
	MypageID          *string `json:"mypage_id"`
	MypagePassword    *string `json:"mypage_password"`
	SelectionProcess  *string `json:"selection_process"`
	CurrentStatus     *string `json:"current_status"`
	MotivationLevel   *int    `json:"motivation_level"`
	NextSelectionDate *string `json:"next_selection_date"`
	ESDeadline        *string `json:"es_deadline"`
	WebtestDeadline   *string `json:"webtest_deadline"`
	WebtestFormat     *string `json:"webtest_format"`
	Memo              *string `json:"memo"`
}

// ListQuery is the filter bar of the list pages.
type ListQuery struct {
	Query    string `form:"q"`
	Industry string `form:"industry"`
	Sort     string `form:"sort"`
	All      bool   `form:"all"`
}

type TopPageResponse struct {
	Companies  []models.Company `json:"companies"`
	Industries []string         `json:"industries"`
	Deadlines  []deadlines.Item `json:"deadlines"`
}

type CompanyPageResponse struct {
	Company   *models.Company        `json:"company"`
	Steps     []models.SelectionStep `json:"selection_steps"`
	Tasks     []models.Task          `json:"tasks"`
	Deadlines []deadlines.Item       `json:"deadlines"`
}
