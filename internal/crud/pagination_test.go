package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		page        int
		pageSize    int
		totalPages  int
		hasNext     bool
		hasPrevious bool
	}{
		{"empty", 0, 1, 10, 0, false, false},
		{"single partial page", 7, 1, 10, 1, false, false},
		{"exact multiple last page", 20, 2, 10, 2, false, true},
		{"middle page", 25, 2, 10, 3, true, true},
		{"last page with remainder", 25, 3, 10, 3, false, true},
		{"first of many", 100, 1, 10, 10, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPageMeta(tt.total, tt.page, tt.pageSize)
			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.page, meta.Page)
			assert.Equal(t, tt.pageSize, meta.PageSize)
			assert.Equal(t, tt.totalPages, meta.TotalPages)
			assert.Equal(t, tt.hasNext, meta.HasNext)
			assert.Equal(t, tt.hasPrevious, meta.HasPrevious)
		})
	}
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = NormalizePage(-3, 1000)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxPageSize, size)

	page, size = NormalizePage(4, 25)
	assert.Equal(t, 4, page)
	assert.Equal(t, 25, size)
}

func TestVerdictErr(t *testing.T) {
	assert.NoError(t, Authorized.Err())
	assert.ErrorIs(t, Forbidden.Err(), ErrForbidden)
	assert.ErrorIs(t, NotFound.Err(), ErrNotFound)
}
