// Package deadlines merges tasks and company deadlines into one ordered list.
package deadlines

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// Kind tags where a deadline item came from.
type Kind string

const (
	KindTask    Kind = "task"
	KindES      Kind = "es"
	KindWebtest Kind = "webtest"
)

const (
	TitleES      = "ES締切"
	TitleWebtest = "Webテスト締切"

	// UnknownCompany names the company of a task whose company row is gone.
	UnknownCompany = "Unknown"

	// UpcomingDays is the window of the default upcoming view.
	UpcomingDays = 7
	// UpcomingLimit caps the default upcoming view.
	UpcomingLimit = 5
)

// Label is the short type label shown next to an item.
func (k Kind) Label() string {
	switch k {
	case KindTask:
		return "タスク"
	case KindES:
		return "ES"
	case KindWebtest:
		return "Webテスト"
	}
	return ""
}

func (k Kind) valid() bool {
	return k == KindTask || k == KindES || k == KindWebtest
}

// ItemID identifies an item by its kind and the id of the row it came from:
// a task id for KindTask, a company id otherwise.
type ItemID struct {
	Kind     Kind   `json:"kind"`
	SourceID string `json:"source_id"`
}

// Key is the "{kind}-{sourceId}" form, unique across sources.
func (id ItemID) Key() string {
	return string(id.Kind) + "-" + id.SourceID
}

// ParseKey reverses Key. It is meant for text boundaries such as CLI arguments.
func ParseKey(key string) (ItemID, error) {
	kind, source, ok := strings.Cut(key, "-")
	id := ItemID{Kind: Kind(kind), SourceID: source}
	if !ok || source == "" || !id.Kind.valid() {
		return ItemID{}, fmt.Errorf("invalid deadline key %q", key)
	}
	return id, nil
}

// Item is one row of a deadline list.
type Item struct {
	ItemID
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	DueDate     dates.Date `json:"due_date"`
	CompanyID   string     `json:"company_id"`
	CompanyName string     `json:"company_name"`
	Completed   *bool      `json:"completed,omitempty"`
}

func newItem(id ItemID, title string, due dates.Date, companyID, companyName string) Item {
	return Item{
		ItemID:      id,
		Key:         id.Key(),
		Title:       title,
		DueDate:     due,
		CompanyID:   companyID,
		CompanyName: companyName,
	}
}

// Expand turns tasks and companies into items: every task in order, then for each
// company its ES and web test deadlines when set. Company names of tasks are looked
// up in companies.
func Expand(tasks []models.Task, companies []models.Company) []Item {
	names := make(map[string]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}

	items := make([]Item, 0, len(tasks)+2*len(companies))
	for _, t := range tasks {
		var companyID, companyName string
		if t.CompanyID != nil && *t.CompanyID != "" {
			companyID = *t.CompanyID
			name, ok := names[companyID]
			if !ok {
				name = UnknownCompany
			}
			companyName = name
		}
		it := newItem(ItemID{Kind: KindTask, SourceID: t.ID}, t.Title, t.DueDate, companyID, companyName)
		completed := t.Completed
		it.Completed = &completed
		items = append(items, it)
	}
	for _, c := range companies {
		if !c.ESDeadline.IsZero() {
			items = append(items, newItem(ItemID{Kind: KindES, SourceID: c.ID}, TitleES, c.ESDeadline, c.ID, c.Name))
		}
		if !c.WebtestDeadline.IsZero() {
			items = append(items, newItem(ItemID{Kind: KindWebtest, SourceID: c.ID}, TitleWebtest, c.WebtestDeadline, c.ID, c.Name))
		}
	}
	return items
}

// Sort orders items by due date ascending, missing dates last, keeping input order on ties.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return dates.Compare(items[i].DueDate, items[j].DueDate) < 0
	})
}

// Window bounds the due dates of the upcoming view. A zero Until means no upper bound.
type Window struct {
	From  dates.Date
	Until dates.Date
}

// UpcomingWindow is the window starting today; showAll drops the upper bound.
func UpcomingWindow(today dates.Date, showAll bool) Window {
	w := Window{From: today}
	if !showAll {
		w.Until = today.AddDays(UpcomingDays)
	}
	return w
}

// Contains reports whether d falls inside w. Missing dates never do.
func (w Window) Contains(d dates.Date) bool {
	if d.IsZero() || d.Before(w.From) {
		return false
	}
	return w.Until.IsZero() || !d.After(w.Until)
}

// Upcoming builds the global upcoming view. Callers pass only incomplete tasks.
func Upcoming(tasks []models.Task, companies []models.Company, today dates.Date, showAll bool) []Item {
	w := UpcomingWindow(today, showAll)
	all := Expand(tasks, companies)
	items := make([]Item, 0, len(all))
	for _, it := range all {
		if w.Contains(it.DueDate) {
			items = append(items, it)
		}
	}
	Sort(items)
	if !showAll && len(items) > UpcomingLimit {
		items = items[:UpcomingLimit]
	}
	return items
}

// ForCompany builds the per-company view: every task including completed ones
// plus the company's own deadlines, with no window and no cap.
func ForCompany(tasks []models.Task, company models.Company) []Item {
	items := Expand(tasks, []models.Company{company})
	Sort(items)
	return items
}
