package pagination

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"bankcards/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultSize is the default number of items per page
	DefaultSize = 20

	// MaxSize is the maximum number of items per page
	MaxSize = 100
)

// Params represents validated paging and sorting parameters.
// Page is zero-based.
type Params struct {
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	Offset     int    `json:"-"`
	SortColumn string `json:"-"`
	SortDesc   bool   `json:"-"`
}

// Options describes the defaults and sortable fields of one listing
type Options struct {
	DefaultSize      int
	DefaultSortBy    string
	DefaultDirection string
	// SortFields maps accepted sortBy values to column names
	SortFields map[string]string
}

// NewParams validates page and size
func NewParams(page, size int) (*Params, error) {
	if page < 0 {
		return nil, domain.InvalidParameter("page must be greater than or equal to 0")
	}
	if size < 1 || size > MaxSize {
		return nil, domain.InvalidParameter(fmt.Sprintf("size must be between 1 and %d", MaxSize))
	}
	if page > math.MaxInt/size {
		return nil, domain.InvalidParameter("page is too large")
	}

	return &Params{
		Page:   page,
		Size:   size,
		Offset: page * size,
	}, nil
}

// GetParams extracts page, size, sortBy and sortDirection from the query string
func GetParams(c *fiber.Ctx, opts Options) (*Params, error) {
	defaultSize := opts.DefaultSize
	if defaultSize == 0 {
		defaultSize = DefaultSize
	}

	page, err := queryInt(c, "page", 0)
	if err != nil {
		return nil, err
	}
	size, err := queryInt(c, "size", defaultSize)
	if err != nil {
		return nil, err
	}

	params, err := NewParams(page, size)
	if err != nil {
		return nil, err
	}

	if len(opts.SortFields) == 0 {
		return params, nil
	}

	sortBy := c.Query("sortBy", opts.DefaultSortBy)
	column, ok := opts.SortFields[sortBy]
	if !ok {
		return nil, domain.InvalidParameter(fmt.Sprintf(
			"invalid sortBy parameter: %s. Allowed values: %s", sortBy, strings.Join(sortedKeys(opts.SortFields), ", ")))
	}
	params.SortColumn = column

	direction := strings.ToLower(c.Query("sortDirection", opts.DefaultDirection))
	switch direction {
	case "asc":
		params.SortDesc = false
	case "desc":
		params.SortDesc = true
	default:
		return nil, domain.InvalidParameter("invalid sortDirection parameter: must be 'asc' or 'desc'")
	}

	return params, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidParameter(fmt.Sprintf("%s must be an integer", key))
	}
	return v, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Page is the paged response envelope
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
}

// NewPage builds the envelope for one page of results
func NewPage[T any](content []T, params *Params, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := int(total) / params.Size
	if int(total)%params.Size > 0 {
		totalPages++
	}

	return &Page[T]{
		Content:       content,
		Page:          params.Page,
		Size:          params.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          params.Page >= totalPages-1,
	}
}

// Map converts the content of a page, keeping its metadata
func Map[S, T any](p *Page[S], fn func(S) T) *Page[T] {
	content := make([]T, len(p.Content))
	for i, item := range p.Content {
		content[i] = fn(item)
	}

	return &Page[T]{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Last:          p.Last,
	}
}
