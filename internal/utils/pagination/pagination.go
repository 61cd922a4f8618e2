// Package pagination parses page query parameters for list endpoints.
package pagination

import (
	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// New returns the first page with the default size.
func New() *Pagination {
	return &Pagination{Page: DefaultPage, PageSize: DefaultPageSize}
}

// FromQuery binds page and page_size from the request query. Missing
// values fall back to the defaults.
func FromQuery(c *gin.Context) (*Pagination, error) {
	p := New()
	if err := c.ShouldBindQuery(p); err != nil {
		return nil, err
	}
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p, nil
}

// Offset returns the row offset of the page.
func (p *Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the page size clamped to 1..MaxPageSize.
func (p *Pagination) Limit() int {
	switch {
	case p.PageSize < 1:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// PageInfo describes a returned page.
type PageInfo struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasMore  bool  `json:"has_more"`
}

// Info returns the page description for total rows.
func (p *Pagination) Info(total int64) PageInfo {
	page := p.Page
	if page < 1 {
		page = DefaultPage
	}
	return PageInfo{
		Page:     page,
		PageSize: p.Limit(),
		Total:    total,
		HasMore:  int64(p.Offset()+p.Limit()) < total,
	}
}
