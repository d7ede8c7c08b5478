package pagination

import (
	"errors"
	"math"
	"net/http/httptest"
	"testing"

	"bankcards/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardOptions = Options{
	DefaultSize:      20,
	DefaultSortBy:    "id",
	DefaultDirection: "desc",
	SortFields: map[string]string{
		"id":      "id",
		"balance": "balance",
	},
}

// parse runs GetParams inside a real fiber request
func parse(t *testing.T, query string, opts Options) (*Params, error) {
	t.Helper()

	var (
		got    *Params
		gotErr error
	)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got, gotErr = GetParams(c, opts)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	return got, gotErr
}

func TestNewParams(t *testing.T) {
	params, err := NewParams(3, 25)
	require.NoError(t, err)
	assert.Equal(t, 75, params.Offset)

	last := math.MaxInt / MaxSize
	params, err = NewParams(last, MaxSize)
	require.NoError(t, err)
	assert.Equal(t, last*MaxSize, params.Offset)

	for _, page := range []int{last + 1, 1 << 62, math.MaxInt} {
		_, err = NewParams(page, MaxSize)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, page)
	}
}

func TestGetParams(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPage int
		wantSize int
		wantCol  string
		wantDesc bool
		wantErr  bool
	}{
		{name: "defaults", query: "", wantPage: 0, wantSize: 20, wantCol: "id", wantDesc: true},
		{name: "explicit", query: "?page=2&size=5&sortBy=balance&sortDirection=ASC", wantPage: 2, wantSize: 5, wantCol: "balance"},
		{name: "max size", query: "?size=100", wantSize: 100, wantCol: "id", wantDesc: true},
		{name: "size too large", query: "?size=101", wantErr: true},
		{name: "size zero", query: "?size=0", wantErr: true},
		{name: "negative page", query: "?page=-1", wantErr: true},
		{name: "page not a number", query: "?page=abc", wantErr: true},
		{name: "unknown sort field", query: "?sortBy=password", wantErr: true},
		{name: "bad direction", query: "?sortDirection=up", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parse(t, tt.query, cardOptions)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.Size)
			assert.Equal(t, tt.wantPage*tt.wantSize, p.Offset)
			assert.Equal(t, tt.wantCol, p.SortColumn)
			assert.Equal(t, tt.wantDesc, p.SortDesc)
		})
	}
}

func TestGetParams_NoSortFields(t *testing.T) {
	p, err := parse(t, "?size=10&sortBy=anything", Options{DefaultSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, p.Size)
	assert.Empty(t, p.SortColumn)
}

func TestNewPage(t *testing.T) {
	params, err := NewParams(1, 10)
	require.NoError(t, err)

	page := NewPage([]int{11, 12, 13}, params, 23)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(23), page.TotalElements)
	assert.False(t, page.Last)

	params, err = NewParams(2, 10)
	require.NoError(t, err)
	assert.True(t, NewPage([]int{21, 22, 23}, params, 23).Last)

	params, err = NewParams(0, 10)
	require.NoError(t, err)
	empty := NewPage[int](nil, params, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.True(t, empty.Last)
	assert.NotNil(t, empty.Content)
}

func TestMap(t *testing.T) {
	params, err := NewParams(0, 2)
	require.NoError(t, err)

	src := NewPage([]int{1, 2}, params, 5)
	dst := Map(src, func(i int) string { return string(rune('a' + i)) })

	assert.Equal(t, []string{"b", "c"}, dst.Content)
	assert.Equal(t, src.TotalPages, dst.TotalPages)
	assert.Equal(t, src.TotalElements, dst.TotalElements)
}
