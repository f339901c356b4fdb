// Package repository implements the stateless per-entity operation sets.
// Every function takes an already-scoped tenantdb.Session as its first
// argument and never resolves a tenant itself.
package repository

import (
	"fmt"
	"math"

	"github.com/chatstack/chatroom/internal/errs"
	"gorm.io/gorm"
)

const (
	// DefaultPerPage is used when the caller does not specify a page size.
	DefaultPerPage = 20
	// MaxPerPage caps the page size; larger requests are clamped.
	MaxPerPage = 100
)

// ListParams are the common pagination and sorting inputs. Pages are
// 1-indexed. SortBy is checked against a per-entity allow-list; arbitrary
// column names never reach the storage layer.
type ListParams struct {
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
}

func (p ListParams) normalize(defaultSort string) ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	if p.SortOrder == "" {
		p.SortOrder = "desc"
	}
	return p
}

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
}

// orderClause resolves the sort key through the entity's allow-list and
// builds the ORDER BY expression from the mapped column, never from caller
// input.
func orderClause(allowed map[string]string, p ListParams) (string, error) {
	column, ok := allowed[p.SortBy]
	if !ok {
		return "", errs.Validation("sort_by", fmt.Sprintf("unknown sort column %q", p.SortBy))
	}
	switch p.SortOrder {
	case "asc":
		return column + " ASC", nil
	case "desc":
		return column + " DESC", nil
	default:
		return "", errs.Validation("sort_order", "must be asc or desc")
	}
}

// paginate counts the filtered query, then fetches one page. A page past the
// end yields zero items, not an error.
func paginate[T any](query *gorm.DB, p ListParams, order string) (*Page[T], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	items := []T{}
	err := query.Order(order).
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page[T]{
		Items:       items,
		TotalCount:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(p.PerPage))),
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
	}, nil
}
