// ABOUTME: Markdown normalization for republishing: HTML stripping, section
// ABOUTME: extraction via the goldmark AST, and canonical section ordering.

package paper

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// RequiredSections are the level-2 headings every well-formed paper carries,
// in canonical order.
var RequiredSections = []string{
	"Abstract",
	"Introduction",
	"Methodology",
	"Results",
	"Discussion",
	"Conclusion",
	"References",
}

// ErrContentTooShort marks papers whose stripped content is below the
// configured minimum and should be skipped rather than republished.
var ErrContentTooShort = errors.New("paper content too short")

const sectionPlaceholder = "_Not provided._"

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	spaceRunPattern = regexp.MustCompile(`[ \t]{2,}`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes markup that agents leak into paper bodies: tags are
// replaced with spaces, entities unescaped, and whitespace runs collapsed.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// section is one level-2 heading and the byte range of its body.
type section struct {
	title string
	body  string
}

// splitSections parses md and returns its ATX level-2 sections in document
// order. Text before the first heading is not part of any section.
func splitSections(md string) []section {
	src := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type mark struct {
		title     string
		lineStart int // byte offset of the "##" marker
		bodyStart int // byte offset just past the heading text
	}
	var marks []mark

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level != 2 || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(src[:seg.Start], '\n') + 1
		// Setext headings (underlined) are level 2 too; papers use ATX only.
		if lineStart >= len(src) || src[lineStart] != '#' {
			return ast.WalkSkipChildren, nil
		}
		marks = append(marks, mark{
			title:     strings.TrimSpace(string(seg.Value(src))),
			lineStart: lineStart,
			bodyStart: seg.Stop,
		})
		return ast.WalkSkipChildren, nil
	})

	secs := make([]section, 0, len(marks))
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		secs = append(secs, section{
			title: m.title,
			body:  strings.TrimSpace(string(src[m.bodyStart:end])),
		})
	}
	return secs
}

// ExtractSection returns the body of the first level-2 section titled
// heading, or "" when the document has no such section.
func ExtractSection(md, heading string) string {
	for _, sec := range splitSections(md) {
		if sec.title == heading {
			return sec.body
		}
	}
	return ""
}

// MissingSections lists the required sections md does not carry, in
// canonical order. A nil result means the paper is fully sectioned.
func MissingSections(md string) []string {
	present := make(map[string]bool)
	for _, sec := range splitSections(md) {
		present[sec.title] = true
	}
	var missing []string
	for _, name := range RequiredSections {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// Canonicalize rebuilds md with the required sections in canonical order.
// Found section bodies are carried over; missing ones get a placeholder.
// Preamble text before the first heading and unknown sections are dropped.
func Canonicalize(md string) string {
	var b strings.Builder
	for i, name := range RequiredSections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(name)
		b.WriteString("\n\n")
		body := ExtractSection(md, name)
		if body == "" {
			body = sectionPlaceholder
		}
		b.WriteString(body)
	}
	return b.String()
}

// Normalize returns a copy of p with stripped, canonically sectioned
// content. Papers whose stripped content is shorter than minContentLen are
// rejected with ErrContentTooShort.
func Normalize(p Paper, minContentLen int) (Paper, error) {
	content := StripHTML(p.Content)
	if len(content) < minContentLen {
		return Paper{}, fmt.Errorf("%w: %d bytes after stripping", ErrContentTooShort, len(content))
	}
	out := p
	out.Content = Canonicalize(content)
	return out, nil
}
