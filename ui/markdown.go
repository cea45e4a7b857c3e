package ui

import (
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
)

// minRenderWidth keeps the renderer usable on very narrow terminals.
const minRenderWidth = 20

// RenderMarkdown renders content for a terminal of the given width.
// Trailing blank lines are trimmed.
func RenderMarkdown(content string, width int) string {
	if width < minRenderWidth {
		width = minRenderWidth
	}

	// [text](url) → url, so every link shows as a plain URL
	content = mdLinkRegex.ReplaceAllString(content, "$2")

	// Autolink stays off so terminals handle URL detection themselves
	defaultExt := markdown.Extensions()
	customExt := defaultExt &^ parser.Autolink
	p := parser.NewWithExtensions(customExt)
	r := markdown.NewRenderer(width, 0)
	doc := p.Parse([]byte(content))
	rendered := string(gomarkdown.Render(doc, r))

	rendered = fixInlineCode(rendered)
	rendered = colorURLs(rendered)

	return strings.TrimRight(rendered, "\n ")
}

func fixInlineCode(s string) string {
	// Replace: \x1b[44;3m...text...\x1b[0m (Blue BG + Italic)
	// With:    \x1b[31m...text...\x1b[0m (Red text)
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func colorURLs(s string) string {
	return urlRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}
