package api

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	htmlPolicy = bluemonday.UGCPolicy().RequireNoReferrerOnLinks(true)
)

// renderMarkdown converts a post body to sanitized HTML
func renderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return htmlPolicy.Sanitize(source)
	}
	return string(htmlPolicy.SanitizeBytes(buf.Bytes()))
}
