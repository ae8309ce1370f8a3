package answer

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"traveldocs-relay/internal/prompt"
)

// Report describes the Markdown structure of a generated answer.
type Report struct {
	// Headings holds every heading text in document order.
	Headings []string
	// Missing holds the required sections that no heading matched, in prompt order.
	Missing []string
}

// Complete reports whether every required section was found.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

// Inspector checks generated answers against the sections the prompt asks for.
// It is safe for concurrent use.
type Inspector struct {
	parser   goldmark.Markdown
	required []string
}

// NewInspector creates an Inspector for prompt.Sections.
func NewInspector() *Inspector {
	return &Inspector{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		required: prompt.Sections,
	}
}

// Inspect parses markdown and reports which required sections are present.
func (i *Inspector) Inspect(markdown string) Report {
	source := []byte(markdown)
	doc := i.parser.Parser().Parse(text.NewReader(source))

	var headings []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			headings = append(headings, nodeText(heading, source))
			return ast.WalkSkipChildren, nil
		}
		// Models often emit "**1. Summary**" paragraphs instead of real headings.
		if para, ok := n.(*ast.Paragraph); ok {
			if strong := boldLead(para); strong != nil {
				headings = append(headings, nodeText(strong, source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	found := make(map[string]bool, len(headings))
	for _, h := range headings {
		found[normalize(h)] = true
	}

	var missing []string
	for _, section := range i.required {
		if !found[normalize(section)] {
			missing = append(missing, section)
		}
	}

	return Report{Headings: headings, Missing: missing}
}

// boldLead returns the emphasis node when a paragraph consists of a single bold span.
func boldLead(para *ast.Paragraph) ast.Node {
	first := para.FirstChild()
	if first == nil || first != para.LastChild() {
		return nil
	}
	if emph, ok := first.(*ast.Emphasis); ok && emph.Level == 2 {
		return emph
	}
	return nil
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// normalize lowercases s and drops numbering, punctuation and spacing, so
// "2. Required documents:" and "Required Documents" compare equal.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
