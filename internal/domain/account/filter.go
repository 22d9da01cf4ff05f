package account

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxSearchLength = 100
)

// Filter conditions are ANDed. Search matches first name, last name, email,
// hospital name or lab name, case-insensitively.
type Filter struct {
	Role     *Role
	IsActive *bool
	Search   *string
}

type ListQuery struct {
	Filter   Filter
	Page     int
	PageSize int
}

func (q ListQuery) Validate() error {
	v := &ValidationError{}

	if q.Page < 1 {
		v.Add("page", "min", "1", "must be a positive integer")
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		v.Add("limit", "range", "1-"+strconv.Itoa(MaxPageSize), "must be between 1 and "+strconv.Itoa(MaxPageSize))
	}
	if q.Filter.Role != nil {
		checkRole(v, *q.Filter.Role)
	}
	if q.Filter.Search != nil {
		n := utf8.RuneCountInString(strings.TrimSpace(*q.Filter.Search))
		if n < 1 || n > MaxSearchLength {
			v.Add("search", "range", "1-"+strconv.Itoa(MaxSearchLength), "must be between 1 and "+strconv.Itoa(MaxSearchLength)+" characters")
		}
	}

	return v.Err()
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func NewPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

type Page struct {
	Items      []Account
	Pagination Pagination
}

// Stats are aggregate counts. Roles without accounts are absent from CountsByRole.
type Stats struct {
	Total        int          `json:"totalUsers"`
	Active       int          `json:"activeUsers"`
	Inactive     int          `json:"inactiveUsers"`
	CountsByRole map[Role]int `json:"roleStats"`
}

// Matches applies the filter in memory, with the same semantics the SQL stores use.
func (f Filter) Matches(a Account) bool {
	if f.Role != nil && a.Role() != *f.Role {
		return false
	}
	if f.IsActive != nil && a.IsActive != *f.IsActive {
		return false
	}
	if f.Search == nil {
		return true
	}

	needle := strings.ToLower(strings.TrimSpace(*f.Search))
	c := a.Columns()
	haystack := []string{a.FirstName, a.LastName, a.Email, deref(c.HospitalName), deref(c.LabName)}

	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
