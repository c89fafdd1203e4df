package extract

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func init() {
	Register("text/markdown", ExtractorFunc(extractMarkdown))
}

// extractMarkdown parses the source with goldmark and walks the block
// structure, so formatting syntax is dropped but heading boundaries
// survive as sections.
func extractMarkdown(_ context.Context, data []byte) (*Result, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var sections []Section
	var current Section
	flush := func() {
		current.Text = strings.TrimSpace(current.Text)
		if current.Text != "" || current.Title != "" {
			sections = append(sections, current)
		}
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
				current = Section{Title: string(n.Text(reader.Source()))}
				continue
			}
			appendBlock(&current, string(n.Text(reader.Source())))
		case *ast.FencedCodeBlock:
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(reader.Source()))
			}
			appendBlock(&current, strings.TrimRight(sb.String(), "\n"))
		default:
			appendBlock(&current, blockText(node, reader.Source()))
		}
	}
	flush()

	var parts []string
	for _, s := range sections {
		if s.Title != "" {
			parts = append(parts, s.Title)
		}
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return &Result{
		Text:     strings.Join(parts, "\n\n"),
		Sections: sections,
	}, nil
}

func appendBlock(s *Section, txt string) {
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return
	}
	if s.Text != "" {
		s.Text += "\n\n"
	}
	s.Text += txt
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			t := node.(*ast.Text)
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
