package utils

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", strconv.Itoa(defaultLimit)), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Meta renders the pagination block returned next to list data.
func (p Pagination) Meta(total int64) fiber.Map {
	return fiber.Map{
		"current_page":   p.Page,
		"items_per_page": p.Limit,
		"total_items":    total,
	}
}

// ListQuery is a page plus sorting and a free-text filter.
type ListQuery struct {
	Pagination
	Search string
	Column string
	Desc   bool
}

// ParseListQuery reads page, limit, name, column and order. Columns outside
// allowed fall back to "id" so user input never reaches ORDER BY unchecked.
func ParseListQuery(c *fiber.Ctx, allowed ...string) ListQuery {
	q := ListQuery{
		Pagination: ParsePagination(c),
		Search:     strings.TrimSpace(c.Query("name")),
		Column:     "id",
		Desc:       strings.EqualFold(c.Query("order"), "DESC"),
	}

	column := c.Query("column")
	for _, a := range allowed {
		if column == a {
			q.Column = column
			break
		}
	}

	return q
}

// Order returns the ORDER BY clause.
func (q ListQuery) Order() string {
	if q.Desc {
		return q.Column + " DESC"
	}
	return q.Column + " ASC"
}

// Page applies ordering, limit and offset.
func (q ListQuery) Page(db *gorm.DB) *gorm.DB {
	return db.Order(q.Order()).Limit(q.Limit).Offset(q.Offset)
}

// Like returns a LIKE pattern for Search.
func (q ListQuery) Like() string {
	return "%" + q.Search + "%"
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
