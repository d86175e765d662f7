package api

import (
	"net/http"
	"strconv"

	"github.com/blog-api/internal/pagination"
	"github.com/gin-gonic/gin"
)

// pageEnvelope is the body of every paginated list
type pageEnvelope struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// renderPage writes results as page p with absolute next/previous links
func renderPage(c *gin.Context, p pagination.Page, results interface{}) {
	env := pageEnvelope{Count: p.Count, Results: results}
	if p.HasNext() {
		next := pageURL(c, p.Number+1)
		env.Next = &next
	}
	if p.HasPrevious() {
		prev := pageURL(c, p.Number-1)
		env.Previous = &prev
	}
	c.JSON(http.StatusOK, env)
}

// pageURL rebuilds the request URL pointing at page n. The first page drops
// the parameter entirely.
func pageURL(c *gin.Context, n int) string {
	u := *c.Request.URL
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	u.Host = c.Request.Host

	q := u.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
