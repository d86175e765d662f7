// Package pagination implements page-number pagination with a lenient page
// parameter: garbage falls back to the first page and out-of-range numbers
// land on the last page.
package pagination

import (
	"strconv"
)

// Paginator holds the page size policy of one resource
type Paginator struct {
	PageSize    int
	MaxPageSize int
}

// Sizes used by the resources
var (
	Posts    = Paginator{PageSize: 10, MaxPageSize: 20}
	Tags     = Paginator{PageSize: 20, MaxPageSize: 50}
	Comments = Paginator{PageSize: 20, MaxPageSize: 50}
	Users    = Paginator{PageSize: 10, MaxPageSize: 100}
)

// Page is a resolved window into a result set
type Page struct {
	Number int
	Size   int
	Count  int64
}

// Result is one resolved page of rows
type Result[T any] struct {
	Page
	Items []T
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit returns the page size
func (p Page) Limit() int {
	return p.Size
}

// LastPage returns the number of the last page, never below 1
func (p Page) LastPage() int {
	return LastPage(p.Count, p.Size)
}

// HasNext reports whether a following page exists
func (p Page) HasNext() bool {
	return p.Number < p.LastPage()
}

// HasPrevious reports whether a preceding page exists
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// Size resolves the page_size parameter
func (pg Paginator) Size(raw string) int {
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return pg.PageSize
	}
	if pg.MaxPageSize > 0 && size > pg.MaxPageSize {
		return pg.MaxPageSize
	}
	return size
}

// Resolve turns raw page and page_size parameters into a Page for count rows.
// A page that is not all digits yields page 1; a numeric page outside
// 1..last yields the last page.
func (pg Paginator) Resolve(rawPage, rawSize string, count int64) Page {
	size := pg.Size(rawSize)
	last := LastPage(count, size)

	number := 1
	if isDigits(rawPage) {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 || n > last {
			number = last
		} else {
			number = n
		}
	}

	return Page{Number: number, Size: size, Count: count}
}

// LastPage computes the last page number for count rows of size
func LastPage(count int64, size int) int {
	if count <= 0 || size <= 0 {
		return 1
	}
	return int((count-1)/int64(size)) + 1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
