// Package dates holds the civil-date type used for deadlines and the helpers
// that compare, parse and format it.
package dates

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

const layout = "2006-01-02"

// Date is a calendar day without a time of day. The zero value means "no date".
type Date struct {
	t time.Time
}

// New returns the date for the given year, month and day.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Of returns the calendar day t falls on in t's own location.
func Of(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return New(y, m, d)
}

// Today returns the current day in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Of(now.In(loc))
}

// Parse reads "YYYY-MM-DD" or an RFC3339 timestamp. Blank input yields the zero Date.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(layout, s); err == nil {
		return Of(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Of(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// MustParse is Parse for fixed inputs; it panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDue accepts what a user may type into a due-date box: an ISO date or a
// natural language expression such as "tomorrow" or "next friday".
func ParseDue(input string, now time.Time) (Date, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Date{}, nil
	}
	if d, err := Parse(input); err == nil {
		return d, nil
	}
	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dateparser.Future,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		// A bare weekday already resolves forward, so "next friday" is "friday".
		rest, ok := cutPrefixFold(input, "next ")
		if !ok {
			return Date{}, fmt.Errorf("could not parse due date %q", input)
		}
		if result, err = dateparser.Parse(cfg, rest); err != nil {
			return Date{}, fmt.Errorf("could not parse due date %q", input)
		}
	}
	return Of(result.Time), nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}

// IsZero reports whether d holds no date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

// AddDays returns d shifted by n days. The zero Date stays zero.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// String returns "YYYY-MM-DD", or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

// Compare orders dates ascending with missing dates after every present one.
func Compare(a, b Date) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.t.Compare(b.t)
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Of(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	}
	return fmt.Errorf("dates: cannot scan %T", src)
}

func (d *Date) scanString(s string) error {
	if len(s) > len(layout) && s[len(layout)] == ' ' {
		s = s[:len(layout)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType keeps the column a DATE across dialects.
func (Date) GormDataType() string { return "date" }
