package models

// Analysis tabs.
const (
	TabBasic    = "basic"
	TabBusiness = "business"
	TabCulture  = "culture"
	TabMemo     = "memo"
)

// AnalysisField is a built-in company analysis column shown on a tab.
type AnalysisField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Tab   string `json:"tab"`
}

// AnalysisFields lists the built-in analysis columns in display order.
var AnalysisFields = []AnalysisField{
	{Key: "revenue", Label: "売上高", Tab: TabBasic},
	{Key: "employee_count", Label: "従業員数", Tab: TabBasic},
	{Key: "capital", Label: "資本金", Tab: TabBasic},
	{Key: "hiring_count", Label: "採用人数", Tab: TabBasic},
	{Key: "average_salary", Label: "平均年収", Tab: TabBasic},
	{Key: "benefits", Label: "福利厚生", Tab: TabBasic},
	{Key: "average_tenure", Label: "平均勤続年数", Tab: TabBasic},
	{Key: "overtime_hours", Label: "平均残業時間", Tab: TabBasic},

	{Key: "business_content", Label: "事業内容", Tab: TabBusiness},
	{Key: "products", Label: "製品・サービス", Tab: TabBusiness},
	{Key: "department_operations", Label: "部署・業務内容", Tab: TabBusiness},
	{Key: "competitive_comparison", Label: "競合比較", Tab: TabBusiness},
	{Key: "growth_potential", Label: "成長性・将来性", Tab: TabBusiness},
	{Key: "commercials", Label: "CM・広告", Tab: TabBusiness},
	{Key: "mid_term_plan", Label: "中期経営計画", Tab: TabBusiness},

	{Key: "philosophy", Label: "企業理念", Tab: TabCulture},
	{Key: "company_culture", Label: "社風・文化", Tab: TabCulture},
	{Key: "career_plan", Label: "キャリアパス", Tab: TabCulture},
}

// IsAnalysisField reports whether key names a built-in analysis column.
func IsAnalysisField(key string) bool {
	for _, f := range AnalysisFields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// IsTab reports whether tab is one of the analysis tabs.
func IsTab(tab string) bool {
	switch tab {
	case TabBasic, TabBusiness, TabCulture, TabMemo:
		return true
	}
	return false
}

// AnalysisValues reads the built-in analysis columns of c keyed by column name.
func (c *Company) AnalysisValues() map[string]string {
	return map[string]string{
		"revenue":                c.Revenue,
		"employee_count":         c.EmployeeCount,
		"capital":                c.Capital,
		"hiring_count":           c.HiringCount,
		"average_salary":         c.AverageSalary,
		"benefits":               c.Benefits,
		"average_tenure":         c.AverageTenure,
		"overtime_hours":         c.OvertimeHours,
		"business_content":       c.BusinessContent,
		"products":               c.Products,
		"department_operations":  c.DepartmentOperations,
		"competitive_comparison": c.CompetitiveComparison,
		"growth_potential":       c.GrowthPotential,
		"commercials":            c.Commercials,
		"mid_term_plan":          c.MidTermPlan,
		"philosophy":             c.Philosophy,
		"company_culture":        c.CompanyCulture,
		"career_plan":            c.CareerPlan,
	}
}
