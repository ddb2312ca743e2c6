// internal/app/system/paging/paging.go
package paging

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows shown in paged lists.
const PageSize = 20

// MaxPage bounds the page number accepted from query strings so skip
// offsets stay reasonable.
const MaxPage = 500

// Page is a 1-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

// New clamps number into [1, MaxPage] and uses PageSize.
func New(number int) Page {
	return WithSize(number, PageSize)
}

// WithSize is like New with a custom page size.
func WithSize(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPage {
		number = MaxPage
	}
	if size < 1 {
		size = PageSize
	}
	return Page{Number: number, Size: size}
}

// Skip is the number of rows before this page.
func (p Page) Skip() int64 { return int64((p.Number - 1) * p.Size) }

// LimitPlusOne fetches one extra row to detect a following page.
func (p Page) LimitPlusOne() int64 { return int64(p.Size + 1) }

// FindOptions sorts by sort and windows the result to this page plus one
// look-ahead row.
func (p Page) FindOptions(sort bson.D) *options.FindOptions {
	return options.Find().SetSort(sort).SetSkip(p.Skip()).SetLimit(p.LimitPlusOne())
}

// Result holds pagination indicators for the view.
type Result struct {
	Page    int
	HasPrev bool
	HasNext bool
	Prev    int
	Next    int
}

// Trim drops the look-ahead row, if fetched, and reports neighbors.
func Trim[T any](rows *[]T, p Page) Result {
	res := Result{Page: p.Number, HasPrev: p.Number > 1}
	if len(*rows) > p.Size {
		*rows = (*rows)[:p.Size]
		res.HasNext = true
	}
	if res.HasPrev {
		res.Prev = p.Number - 1
	}
	if res.HasNext {
		res.Next = p.Number + 1
	}
	return res
}
