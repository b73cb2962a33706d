// Package correlate links source lines to the generated code they produced
// and tracks highlight and collapse state of the generated document.
package correlate

// Role places a generated line inside the block layout.
type Role int

const (
	RolePlain  Role = iota // outside any block, always shown
	RoleHeader             // block banner, always shown
	RoleBody               // collapsible block body
)

func (r Role) String() string {
	switch r {
	case RoleHeader:
		return "header"
	case RoleBody:
		return "body"
	default:
		return "plain"
	}
}

// Line is one line of the generated document.
type Line struct {
	Text       string `json:"code"`
	Role       Role   `json:"role"`
	Block      int    `json:"block,omitempty"`       // owning block id, 0 for plain lines
	SourceLine int    `json:"source_line,omitempty"` // source reference carried by this line
}

// Block is a collapsible region of generated code.
type Block struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Document is the generated output in the order it was received.
type Document struct {
	Lines  []Line  `json:"lines"`
	Blocks []Block `json:"blocks"`
}

// Marker tells where the code for a source line starts in the generated document.
type Marker struct {
	SourceLine int `json:"source_line"`
	Line       int `json:"line"` // 0-based index into Document.Lines
}

// Status summarizes a compilation.
type Status string

const (
	StatusClean    Status = "Compiled without warnings"
	StatusWarnings Status = "Compiled with warnings"
	StatusFailed   Status = "Does not compile"
)

// Diagnostic is a compiler message attributed to a source line.
type Diagnostic struct {
	SourceLine int    `json:"line_id"`
	Text       string `json:"line_content"`
}

// Result is everything a compilation returns for one file.
type Result struct {
	FileID       int          `json:"file_id"`
	Status       Status       `json:"status"`
	Document     Document     `json:"document"`
	Markers      []Marker     `json:"markers"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
	ArtifactName string       `json:"asm_name,omitempty"`
}

// OK reports whether generated code was produced.
func (r Result) OK() bool {
	return r.Status != StatusFailed
}

// Fragment is the run of generated lines [Start, End] produced by one source line.
type Fragment struct {
	SourceLine int `json:"source_line"`
	Block      int `json:"block,omitempty"`
	Start      int `json:"start"`
	End        int `json:"end"`
}

// Len returns the number of generated lines in the fragment.
func (f Fragment) Len() int {
	return f.End - f.Start + 1
}
