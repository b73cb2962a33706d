// Package splitter proposes sections for C source without asking the store.
//
// Top-level nodes of the tree-sitter C grammar are classified into section
// kinds. SDCC inline assembly regions (__asm ... __endasm;) are not C and are
// located by line before parsing.
package splitter

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/hay-kot/asmbench/internal/core/section"
)

var (
	asmStart = regexp.MustCompile(`^__asm\b`)
	asmEnd   = regexp.MustCompile(`^__endasm\s*;`)
	asmCall  = regexp.MustCompile(`^(asm|__asm__)\b`)
)

// Splitter proposes sections for C source. It is safe for concurrent use.
type Splitter struct {
	lang *sitter.Language
}

// New returns a C splitter.
func New() *Splitter {
	return &Splitter{lang: c.GetLanguage()}
}

// Split returns non-overlapping sections ordered by start line. FileID is
// left zero. Consecutive directives, declarations or comments on adjacent
// lines merge into one section.
func (s *Splitter) Split(ctx context.Context, src []byte) ([]section.Section, error) {
	regions, masked := asmRegions(src)

	parser := sitter.NewParser()
	parser.SetLanguage(s.lang)
	tree, err := parser.ParseCtx(ctx, nil, masked)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	defer tree.Close()

	var found []section.Section
	root := tree.RootNode()
	for i := range int(root.NamedChildCount()) {
		node := root.NamedChild(i)
		kind, ok := classify(node, masked)
		if !ok {
			continue
		}
		start, end := lines(node)
		found = append(found, section.Section{StartLine: start, EndLine: end, Kind: kind})
	}

	for _, r := range regions {
		if slices.ContainsFunc(found, func(sec section.Section) bool { return sec.Span().Overlaps(r.Span()) }) {
			continue
		}
		found = append(found, r)
	}

	slices.SortStableFunc(found, func(a, b section.Section) int { return a.StartLine - b.StartLine })
	return merge(found), nil
}

func classify(node *sitter.Node, src []byte) (section.Kind, bool) {
	switch node.Type() {
	case "preproc_include", "preproc_def", "preproc_function_def", "preproc_call",
		"preproc_if", "preproc_ifdef":
		return section.KindDirective, true
	case "function_definition":
		return section.KindProcedure, true
	case "declaration":
		if isPrototype(node) {
			return section.KindProcedure, true
		}
		return section.KindVariable, true
	case "type_definition", "struct_specifier", "union_specifier", "enum_specifier":
		return section.KindVariable, true
	case "comment":
		return section.KindComment, true
	case "expression_statement", "ERROR":
		if asmCall.Match(bytes.TrimSpace([]byte(node.Content(src)))) {
			return section.KindAssembly, true
		}
	}
	return "", false
}

// isPrototype reports whether a declaration declares a function.
func isPrototype(node *sitter.Node) bool {
	d := node.ChildByFieldName("declarator")
	for d != nil && d.Type() == "pointer_declarator" {
		d = d.ChildByFieldName("declarator")
	}
	return d != nil && d.Type() == "function_declarator"
}

// lines converts a node to 1-based inclusive lines. Nodes that swallow their
// trailing newline end on the line before.
func lines(node *sitter.Node) (int, int) {
	start, end := node.StartPoint(), node.EndPoint()
	last := int(end.Row) + 1
	if end.Column == 0 && end.Row > start.Row {
		last--
	}
	return int(start.Row) + 1, last
}

// asmRegions finds __asm ... __endasm; regions and returns a copy of src
// with those regions blanked so the C grammar sees only whitespace there.
// An unterminated region runs to the last line.
func asmRegions(src []byte) ([]section.Section, []byte) {
	masked := slices.Clone(src)
	raw := strings.Split(string(src), "\n")
	if n := len(raw); n > 1 && raw[n-1] == "" {
		raw = raw[:n-1]
	}

	var out []section.Section
	open, offset := 0, 0
	for i, line := range raw {
		trimmed := strings.TrimSpace(line)
		if open == 0 && asmStart.MatchString(trimmed) {
			open = i + 1
		}
		if open != 0 {
			for j := offset; j < offset+len(line); j++ {
				masked[j] = ' '
			}
			if asmEnd.MatchString(trimmed) || i == len(raw)-1 {
				out = append(out, section.Section{StartLine: open, EndLine: i + 1, Kind: section.KindAssembly})
				open = 0
			}
		}
		offset += len(line) + 1
	}
	return out, masked
}

func merge(in []section.Section) []section.Section {
	out := make([]section.Section, 0, len(in))
	for _, sec := range in {
		n := len(out)
		if n == 0 {
			out = append(out, sec)
			continue
		}
		prev := &out[n-1]
		switch {
		case sec.StartLine <= prev.EndLine:
			// shares a line with the previous node, e.g. a trailing comment
			prev.EndLine = max(prev.EndLine, sec.EndLine)
		case sec.Kind == prev.Kind && sec.StartLine == prev.EndLine+1 && mergeable(sec.Kind):
			prev.EndLine = sec.EndLine
		default:
			out = append(out, sec)
		}
	}
	return out
}

func mergeable(k section.Kind) bool {
	return k == section.KindDirective || k == section.KindVariable || k == section.KindComment
}
