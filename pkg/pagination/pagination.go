package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

// PageRequest represents a client request for a page of data with optional search.
type PageRequest struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Search   *string `json:"search,omitempty"`
}

// Normalize adjusts the request to ensure valid pagination values based on the config.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
	if r.Search != nil && strings.TrimSpace(*r.Search) == "" {
		r.Search = nil
	}
}

// Offset calculates the number of records to skip based on page and page size.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery parses pagination parameters from URL query values.
// Supported parameters: page, page_size, search.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("page_size"))

	var search *string
	if s := values.Get("search"); s != "" {
		search = &s
	}

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	}

	req.Normalize(cfg)
	return req
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data" yaml:"data"`
	Total      int `json:"total" yaml:"total"`
	Page       int `json:"page" yaml:"page"`
	PageSize   int `json:"page_size" yaml:"page_size"`
	TotalPages int `json:"total_pages" yaml:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := 1
	if pageSize > 0 {
		totalPages = max((total+pageSize-1)/pageSize, 1)
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
