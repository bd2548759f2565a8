// Package markup renders generated markdown and builds the front-matter documents
// that are archived and mailed.
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render converts GitHub-flavored markdown to HTML. Raw HTML in the input is omitted.
func Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// FrontMatter prepends a title/date front matter block to body.
func FrontMatter(title string, date time.Time, body string) string {
	return fmt.Sprintf("---\ntitle: %q\ndate: '%s'\n---\n\n%s", title, date.Format("1/2/2006"), body)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and joins its alphanumeric runs with hyphens.
func Slug(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "post"
	}
	return slug
}
