package article

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// ConclusionHeading titles the conclusion in rendered output.
const ConclusionHeading = "Conclusion"

// Render maps a to Markdown. It is a pure function: equal articles render
// to byte-identical output. Empty blocks are omitted.
func Render(a Article) string {
	var blocks []string

	if t := strings.TrimSpace(a.Intro.Text); t != "" {
		blocks = append(blocks, t)
	}
	for _, s := range a.Sections {
		var b strings.Builder
		if title := strings.TrimSpace(s.Title); title != "" {
			fmt.Fprintf(&b, "## %s", title)
		}
		if p := strings.TrimSpace(s.Paragraph); p != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(p)
		}
		var bullets []string
		for _, item := range s.Bullets {
			if item = strings.TrimSpace(item); item != "" {
				bullets = append(bullets, "- "+item)
			}
		}
		if len(bullets) > 0 {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(strings.Join(bullets, "\n"))
		}
		if b.Len() > 0 {
			blocks = append(blocks, b.String())
		}
	}
	if t := strings.TrimSpace(a.Conclusion.Text); t != "" {
		blocks = append(blocks, fmt.Sprintf("## %s\n\n%s", ConclusionHeading, t))
	}

	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// RenderSources formats source summaries as a Markdown reference list.
func RenderSources(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## References\n\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return b.String()
}

// Raw HTML in model output is escaped, not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// MarkdownToHTML converts Markdown produced by Render (or legacy
// generation) to HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML renders a as HTML.
func RenderHTML(a Article) (string, error) {
	return MarkdownToHTML(Render(a))
}
