// Package section maintains the labeled, non-overlapping line-range
// annotations of open source files.
package section

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hay-kot/asmbench/internal/core/errs"
)

// Kind labels what a section of source contains.
type Kind string

const (
	KindDirective Kind = "directive"
	KindVariable  Kind = "variable"
	KindProcedure Kind = "procedure"
	KindComment   Kind = "comment"
	KindAssembly  Kind = "assembly"
)

var kinds = []Kind{KindDirective, KindVariable, KindProcedure, KindComment, KindAssembly}

// Kinds returns all kinds in menu order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

// ParseKind accepts a kind name or its 1-based menu number.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(kinds) {
			return "", errs.Validationf("section kind choice %d out of range 1-%d", n, len(kinds))
		}
		return kinds[n-1], nil
	}
	k := Kind(s)
	if !k.IsValid() {
		return "", errs.Validationf("unknown section kind %q", s)
	}
	return k, nil
}

// Section is a tagged closed interval [StartLine, EndLine] of 1-based lines.
type Section struct {
	FileID    int  `json:"file_id"`
	StartLine int  `json:"start_line"`
	EndLine   int  `json:"end_line"`
	Kind      Kind `json:"kind"`
}

// Span returns the exact-range key of the section.
func (s Section) Span() Span {
	return Span{Start: s.StartLine, End: s.EndLine}
}

// Contains reports whether line falls inside the section.
func (s Section) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Len returns the number of lines covered.
func (s Section) Len() int {
	return s.EndLine - s.StartLine + 1
}

func (s Section) String() string {
	return fmt.Sprintf("%d-%d %s", s.StartLine, s.EndLine, s.Kind)
}

// Span is the exact (start, end) pair used to address a section.
type Span struct {
	Start int
	End   int
}

// Overlaps uses the closed-interval test max(startA,startB) <= min(endA,endB).
func (s Span) Overlaps(o Span) bool {
	return max(s.Start, o.Start) <= min(s.End, o.End)
}

// Document is the line-addressable source of an open file.
type Document struct {
	FileID int      `json:"file_id"`
	Name   string   `json:"name,omitempty"`
	Lines  []string `json:"lines"`
}

// NewDocument splits text into lines. A single trailing newline does not
// produce an extra empty line.
func NewDocument(fileID int, name, text string) Document {
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return Document{FileID: fileID, Name: name, Lines: lines}
}

// LineCount returns the number of lines.
func (d Document) LineCount() int {
	return len(d.Lines)
}

// Line returns the text of a 1-based line.
func (d Document) Line(n int) (string, bool) {
	if n < 1 || n > len(d.Lines) {
		return "", false
	}
	return d.Lines[n-1], true
}

// Text joins the lines back together.
func (d Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

const lineIDPrefix = "source_line_"

// LineID returns the rendered identifier of a 1-based source line.
func LineID(n int) string {
	return lineIDPrefix + strconv.Itoa(n)
}

// ParseLineID resolves a rendered line identifier back to its line number.
// Only the exact form LineID produces is accepted: plain digits, no sign,
// no leading zero.
func ParseLineID(id string) (int, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(id), lineIDPrefix)
	if !ok || !canonicalNumber(raw) {
		return 0, errs.Validationf("selection boundary %q is not a source line", id)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Validationf("selection boundary %q is not a source line", id)
	}
	return n, nil
}

func canonicalNumber(s string) bool {
	if s == "" || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
