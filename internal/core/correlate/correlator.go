package correlate

import (
	"slices"
	"strings"

	"github.com/hay-kot/asmbench/internal/core/errs"
)

// Correlator owns the current compilation result. A new result replaces the
// previous one wholesale.
//
// A source line links to at most one fragment. When the generated document
// refers to the same source line more than once the first marker wins; the
// later runs still resolve back to their source line through SourceFor.
type Correlator struct {
	result      *Result
	links       map[int]Fragment
	owner       []int
	highlighted map[int]bool
	hidden      map[int]bool
	duplicates  int
}

// New returns a correlator with no result.
func New() *Correlator {
	return &Correlator{}
}

// Ingest validates r and replaces all prior correlation state with it.
func (c *Correlator) Ingest(r Result) error {
	lines := r.Document.Lines
	blocks := make(map[int]bool, len(r.Document.Blocks))
	for _, b := range r.Document.Blocks {
		if b.ID <= 0 || blocks[b.ID] {
			return errs.Validationf("block id %d is invalid or repeated", b.ID)
		}
		blocks[b.ID] = true
	}
	for i, l := range lines {
		if l.Role != RolePlain && !blocks[l.Block] {
			return errs.Validationf("generated line %d refers to unknown block %d", i, l.Block)
		}
	}

	markers := slices.Clone(r.Markers)
	for _, m := range markers {
		if m.SourceLine < 1 {
			return errs.Validationf("marker source line %d must be positive", m.SourceLine)
		}
		if m.Line < 0 || m.Line >= len(lines) {
			return errs.Validationf("marker for source line %d points past generated line %d", m.SourceLine, m.Line)
		}
	}
	slices.SortStableFunc(markers, func(a, b Marker) int { return a.Line - b.Line })

	links := make(map[int]Fragment, len(markers))
	owner := make([]int, len(lines))
	duplicates := 0
	for i, m := range markers {
		end := fragmentEnd(lines, m.Line)
		if i+1 < len(markers) && markers[i+1].Line-1 < end {
			end = max(markers[i+1].Line-1, m.Line)
		}
		for n := m.Line; n <= end; n++ {
			owner[n] = m.SourceLine
		}
		if _, ok := links[m.SourceLine]; ok {
			duplicates++
			continue
		}
		links[m.SourceLine] = Fragment{
			SourceLine: m.SourceLine,
			Block:      lines[m.Line].Block,
			Start:      m.Line,
			End:        end,
		}
	}

	r.Markers = markers
	c.result = &r
	c.links = links
	c.owner = owner
	c.highlighted = make(map[int]bool)
	c.hidden = make(map[int]bool)
	c.duplicates = duplicates
	return nil
}

// fragmentEnd returns the last line of the run starting at start that stays
// inside the same block and does not cross a banner.
func fragmentEnd(lines []Line, start int) int {
	block := lines[start].Block
	end := start
	for n := start + 1; n < len(lines); n++ {
		if lines[n].Block != block || lines[n].Role == RoleHeader {
			break
		}
		end = n
	}
	return end
}

// Result returns the current compilation result.
func (c *Correlator) Result() (Result, bool) {
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

// HasResult reports whether a compilation result is held.
func (c *Correlator) HasResult() bool {
	return c.result != nil
}

// FileID returns the file the current result belongs to, or 0.
func (c *Correlator) FileID() int {
	if c.result == nil {
		return 0
	}
	return c.result.FileID
}

// Duplicates returns how many markers repeated an already linked source line.
func (c *Correlator) Duplicates() int {
	return c.duplicates
}

// Discard drops the result if it belongs to fileID.
func (c *Correlator) Discard(fileID int) {
	if c.result != nil && c.result.FileID == fileID {
		*c = Correlator{}
	}
}

// Link returns the fragment produced by a source line.
func (c *Correlator) Link(sourceLine int) (Fragment, bool) {
	f, ok := c.links[sourceLine]
	return f, ok
}

// Links returns every fragment ordered by source line.
func (c *Correlator) Links() []Fragment {
	out := make([]Fragment, 0, len(c.links))
	for _, f := range c.links {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Fragment) int { return a.SourceLine - b.SourceLine })
	return out
}

// SourceFor returns the source line a generated line belongs to.
func (c *Correlator) SourceFor(line int) (int, bool) {
	if line < 0 || line >= len(c.owner) || c.owner[line] == 0 {
		return 0, false
	}
	return c.owner[line], true
}

// ToggleHighlight flips the highlight of a source line's link and returns
// the fragment the view should bring into focus.
func (c *Correlator) ToggleHighlight(sourceLine int) (Fragment, bool, error) {
	f, ok := c.links[sourceLine]
	if !ok {
		return Fragment{}, false, errs.NotFoundf("no generated code for source line %d", sourceLine)
	}
	on := !c.highlighted[sourceLine]
	if on {
		c.highlighted[sourceLine] = true
	} else {
		delete(c.highlighted, sourceLine)
	}
	return f, on, nil
}

// IsHighlighted reports the highlight flag of a source line.
func (c *Correlator) IsHighlighted(sourceLine int) bool {
	return c.highlighted[sourceLine]
}

// Highlighted returns highlighted source lines in ascending order.
func (c *Correlator) Highlighted() []int {
	out := make([]int, 0, len(c.highlighted))
	for n := range c.highlighted {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Blocks returns the collapsible blocks of the current result.
func (c *Correlator) Blocks() []Block {
	if c.result == nil {
		return nil
	}
	return c.result.Document.Blocks
}

// SetBlockVisibility shows or hides the body of one block.
func (c *Correlator) SetBlockVisibility(id int, visible bool) error {
	if !c.hasBlock(id) {
		return errs.NotFoundf("block %d", id)
	}
	if visible {
		delete(c.hidden, id)
	} else {
		c.hidden[id] = true
	}
	return nil
}

// ToggleBlock flips the visibility of one block body and returns the new state.
func (c *Correlator) ToggleBlock(id int) (bool, error) {
	visible := !c.BlockVisible(id)
	if err := c.SetBlockVisibility(id, visible); err != nil {
		return false, err
	}
	return visible, nil
}

// SetAllBlocksVisibility overrides every block body uniformly. Later
// per-block changes start from this state.
func (c *Correlator) SetAllBlocksVisibility(visible bool) {
	if c.result == nil {
		return
	}
	c.hidden = make(map[int]bool)
	if visible {
		return
	}
	for _, b := range c.result.Document.Blocks {
		c.hidden[b.ID] = true
	}
}

// BlockVisible reports whether a block body is shown.
func (c *Correlator) BlockVisible(id int) bool {
	return c.hasBlock(id) && !c.hidden[id]
}

// LineVisible reports whether a generated line is shown under the current
// collapse state.
func (c *Correlator) LineVisible(line int) bool {
	if c.result == nil || line < 0 || line >= len(c.result.Document.Lines) {
		return false
	}
	l := c.result.Document.Lines[line]
	return l.Role != RoleBody || !c.hidden[l.Block]
}

// VisibleLines returns the indices of generated lines currently shown.
func (c *Correlator) VisibleLines() []int {
	if c.result == nil {
		return nil
	}
	out := make([]int, 0, len(c.result.Document.Lines))
	for i := range c.result.Document.Lines {
		if c.LineVisible(i) {
			out = append(out, i)
		}
	}
	return out
}

// ExportText returns every generated line, each followed by a newline, in
// received order. Collapse state is ignored.
func (c *Correlator) ExportText() string {
	if c.result == nil {
		return ""
	}
	var b strings.Builder
	for _, l := range c.result.Document.Lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Correlator) hasBlock(id int) bool {
	if c.result == nil {
		return false
	}
	for _, b := range c.result.Document.Blocks {
		if b.ID == id {
			return true
		}
	}
	return false
}

// State is the serializable form of a correlator.
type State struct {
	Result      *Result `json:"result,omitempty"`
	Highlighted []int   `json:"highlighted,omitempty"`
	Hidden      []int   `json:"hidden,omitempty"`
}

// State captures the correlator for persistence.
func (c *Correlator) State() State {
	s := State{Result: c.result, Highlighted: c.Highlighted()}
	for id := range c.hidden {
		s.Hidden = append(s.Hidden, id)
	}
	slices.Sort(s.Hidden)
	return s
}

// RestoreState rebuilds a correlator from a saved state.
func RestoreState(s State) (*Correlator, error) {
	c := New()
	if s.Result == nil {
		return c, nil
	}
	if err := c.Ingest(*s.Result); err != nil {
		return nil, err
	}
	for _, n := range s.Highlighted {
		if _, ok := c.links[n]; ok {
			c.highlighted[n] = true
		}
	}
	for _, id := range s.Hidden {
		_ = c.SetBlockVisibility(id, false)
	}
	return c, nil
}
