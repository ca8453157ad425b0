package internal

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// RenderFunc turns canonical (markdown) text into the display form
type RenderFunc func(markdown string) string

var markdownConverter = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Substitutions applied in order to the HTML produced by goldmark
var htmlToText = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?s)<h[1-6][^>]*>(.*?)</h[1-6]>`), "$1\n"},
	{regexp.MustCompile(`(?s)<p>(.*?)</p>`), "$1\n\n"},
	{regexp.MustCompile(`(?s)<li>(.*?)</li>`), "• $1\n"},
	{regexp.MustCompile(`(?s)<pre><code[^>]*>(.*?)</code></pre>`), "$1"},
	{regexp.MustCompile(`<code>(.*?)</code>`), "$1"},
	{regexp.MustCompile(`(?s)<a[^>]*>(.*?)</a>`), "$1"},
	{regexp.MustCompile(`(?s)<(?:strong|b)>(.*?)</(?:strong|b)>`), "$1"},
	{regexp.MustCompile(`(?s)<(?:em|i)>(.*?)</(?:em|i)>`), "$1"},
	{regexp.MustCompile(`<[^>]+>`), ""},
}

var (
	extraBlankLines = regexp.MustCompile(`\n\s*\n\s*\n`)
	leadingBullet   = regexp.MustCompile(`(?m)^[\-\*]\s+`)
)

// RenderMarkdown converts a markdown reply to plain display text.
// Conversion failures fall back to the input unchanged.
func RenderMarkdown(markdown string) string {
	var buf bytes.Buffer
	if err := markdownConverter.Convert([]byte(markdown), &buf); err != nil {
		LogDebug("Failed to convert markdown, using raw text: %v", err)
		return strings.TrimSpace(markdown)
	}

	text := buf.String()
	for _, sub := range htmlToText {
		text = sub.re.ReplaceAllString(text, sub.repl)
	}
	text = html.UnescapeString(text)
	text = extraBlankLines.ReplaceAllString(text, "\n\n")
	text = leadingBullet.ReplaceAllString(text, "・")

	return strings.TrimSpace(text)
}
