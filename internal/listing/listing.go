// Package listing filters and orders company collections for list pages.
package listing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// AllIndustries disables the industry filter.
const AllIndustries = "all"

// SortKey selects the list order.
type SortKey string

const (
	SortCreatedAt  SortKey = "created_at"
	SortESDeadline SortKey = "es_deadline"
	SortMotivation SortKey = "motivation_level"
)

// ParseSortKey maps a query value to a SortKey. Empty means SortCreatedAt.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortCreatedAt, nil
	case SortCreatedAt, SortESDeadline, SortMotivation:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Criteria is what a list page lets the user pick.
type Criteria struct {
	Query    string
	Industry string
	Sort     SortKey
}

// Apply filters companies by c and sorts the result. The input is not modified.
func Apply(companies []models.Company, c Criteria) []models.Company {
	out := make([]models.Company, 0, len(companies))
	query := ""
	if strings.TrimSpace(c.Query) != "" {
		query = strings.ToLower(c.Query)
	}
	for _, company := range companies {
		if query != "" && !matchesQuery(company, query) {
			continue
		}
		if c.Industry != "" && c.Industry != AllIndustries && company.Industry != c.Industry {
			continue
		}
		out = append(out, company)
	}
	sortCompanies(out, c.Sort)
	return out
}

func matchesQuery(c models.Company, query string) bool {
	if strings.Contains(strings.ToLower(c.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Industry), query) {
		return true
	}
	return c.Location != "" && strings.Contains(strings.ToLower(c.Location), query)
}

func sortCompanies(companies []models.Company, key SortKey) {
	var less func(a, b *models.Company) bool
	switch key {
	case SortESDeadline:
		less = func(a, b *models.Company) bool {
			return dates.Compare(a.ESDeadline, b.ESDeadline) < 0
		}
	case SortMotivation:
		less = func(a, b *models.Company) bool {
			return a.MotivationLevel > b.MotivationLevel
		}
	default:
		less = func(a, b *models.Company) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	sort.SliceStable(companies, func(i, j int) bool {
		return less(&companies[i], &companies[j])
	})
}

// Industries returns AllIndustries followed by the distinct non-empty industries, sorted.
func Industries(companies []models.Company) []string {
	seen := make(map[string]struct{})
	var industries []string
	for _, c := range companies {
		if c.Industry == "" {
			continue
		}
		if _, ok := seen[c.Industry]; ok {
			continue
		}
		seen[c.Industry] = struct{}{}
		industries = append(industries, c.Industry)
	}
	sort.Strings(industries)
	return append([]string{AllIndustries}, industries...)
}

// Group is one company with its entry sheets.
type Group struct {
	Company     models.Company      `json:"company"`
	EntrySheets []models.EntrySheet `json:"entry_sheets"`
}

// GroupEntrySheets groups sheets under companies, in the order companies are given.
// Companies without sheets are left out, as are sheets whose company is not listed.
func GroupEntrySheets(companies []models.Company, sheets []models.EntrySheet) []Group {
	byCompany := make(map[string][]models.EntrySheet)
	for _, es := range sheets {
		byCompany[es.CompanyID] = append(byCompany[es.CompanyID], es)
	}
	groups := make([]Group, 0, len(companies))
	for _, c := range companies {
		entries := byCompany[c.ID]
		if len(entries) == 0 {
			continue
		}
		groups = append(groups, Group{Company: c, EntrySheets: entries})
	}
	return groups
}
