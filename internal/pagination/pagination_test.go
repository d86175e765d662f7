package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		rawPage  string
		rawSize  string
		count    int64
		wantPage int
		wantSize int
	}{
		{"empty page", "", "", 35, 1, 10},
		{"explicit page", "2", "", 35, 2, 10},
		{"last page", "4", "", 35, 4, 10},
		{"beyond last", "9", "", 35, 4, 10},
		{"zero is out of range", "0", "", 35, 4, 10},
		{"non digit", "abc", "", 35, 1, 10},
		{"negative is not digits", "-1", "", 35, 1, 10},
		{"last keyword is not digits", "last", "", 35, 1, 10},
		{"no rows", "3", "", 0, 1, 10},
		{"custom size", "2", "5", 35, 2, 5},
		{"size clamped", "1", "500", 35, 1, 20},
		{"bad size", "1", "x", 35, 1, 10},
		{"huge page number", "99999999999999999999", "", 35, 4, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Posts.Resolve(tt.rawPage, tt.rawSize, tt.count)
			assert.Equal(t, tt.wantPage, p.Number)
			assert.Equal(t, tt.wantSize, p.Size)
		})
	}
}

func TestPage_Window(t *testing.T) {
	p := Comments.Resolve("3", "", 45)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
	assert.Equal(t, 3, p.LastPage())
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrevious())

	first := Users.Resolve("1", "", 45)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
}

func TestLastPage(t *testing.T) {
	assert.Equal(t, 1, LastPage(0, 10))
	assert.Equal(t, 1, LastPage(10, 10))
	assert.Equal(t, 2, LastPage(11, 10))
	assert.Equal(t, 1, LastPage(5, 0))
}
