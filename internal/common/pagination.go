package common

import (
	"net/http"
	"strconv"
)

// Pagination is the metadata block of paginated list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// ParsePagination reads ?page= and ?limit=. Missing or invalid values fall
// back to page 1 and defaultLimit; limit is capped at maxLimit when positive.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	q := r.URL.Query()
	page, limit = 1, defaultLimit
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// NewPagination fills in TotalPages for a page of size limit.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, PerPage: limit, TotalItems: int(total), TotalPages: pages}
}
