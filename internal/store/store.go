// Package store is the record façade the services read and write through.
// Every collection is a Table; a Provider hands out the tables visible to one user.
package store

import (
	"context"
	"errors"

	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrLoginRequired = errors.New("login required")
)

// Filter is an equality predicate on a column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds a Filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a listing by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query selects rows of a table. A nil Order leaves the order to the provider.
type Query struct {
	Filters []Filter
	Order   *Order
}

// Where starts a Query from filters.
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// OrderBy returns q ordered by column.
func (q Query) OrderBy(column string, desc bool) Query {
	q.Order = &Order{Column: column, Desc: desc}
	return q
}

// Table is CRUD over one collection.
type Table[T any] interface {
	List(ctx context.Context, q Query) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, row *T) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Objects stores binary blobs under "{userId}/{fileName}" keys.
type Objects interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (*models.Object, error)
	Remove(ctx context.Context, keys ...string) error
}

// Provider exposes the collections of one user.
type Provider interface {
	Companies() Table[models.Company]
	Tasks() Table[models.Task]
	SelectionSteps() Table[models.SelectionStep]
	EntrySheets() Table[models.EntrySheet]
	Templates() Table[models.Template]
	CustomAnalysisFields() Table[models.CustomAnalysisField]
	CompanyCustomFields() Table[models.CompanyCustomField]
	HiddenAnalysisFields() Table[models.HiddenAnalysisField]
	UserProfiles() Table[models.UserProfile]
	Objects() Objects
}
