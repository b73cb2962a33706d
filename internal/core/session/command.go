// Package session turns user intents into validated requests against the
// workspace store and compile service, and applies their responses to the
// tree, the section index and the correlator.
package session

import (
	"net/url"

	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/section"
	"github.com/hay-kot/asmbench/internal/core/workspace"
)

// Op names a user action.
type Op string

const (
	OpAddFolder     Op = "add-folder"
	OpDeleteFolder  Op = "delete-folder"
	OpAddFile       Op = "add-file"
	OpDeleteFile    Op = "delete-file"
	OpOpenFile      Op = "open-file"
	OpSplitFile     Op = "split-file"
	OpCreateSection Op = "create-section"
	OpDeleteSection Op = "delete-section"
	OpCompile       Op = "compile"
)

// Command is a user intent. Commands act on the current selection.
type Command interface {
	Op() Op
}

// AddFolder creates a folder under the selected folder, or a root folder
// when Root is set.
type AddFolder struct {
	Name        string
	Description string
	Root        bool
}

// DeleteFolder removes the selected folder and its subtree.
type DeleteFolder struct{}

// AddFile uploads a file into the selected folder.
type AddFile struct {
	Name        string
	Description string
	Content     []byte
}

// DeleteFile removes the selected file.
type DeleteFile struct{}

// OpenFile fetches the Source Document of FileID, or of the selected file
// when FileID is 0.
type OpenFile struct {
	FileID int
}

// SplitFile asks the store to replace the selected file's sections with
// its own splitter's proposal.
type SplitFile struct{}

// Selection is a text selection bounded by two rendered line identifiers,
// in either order.
type Selection struct {
	Anchor string
	Focus  string
}

// LineSelection builds a selection from line numbers.
func LineSelection(start, end int) Selection {
	return Selection{Anchor: section.LineID(start), Focus: section.LineID(end)}
}

// CreateSection tags the selected lines of the selected file.
type CreateSection struct {
	Selection Selection
	Kind      section.Kind
}

// DeleteSection removes the section of the selected file with exactly
// this range.
type DeleteSection struct {
	Start int
	End   int
}

// Compile submits the selected file to the compile service.
type Compile struct {
	Options compiler.Options
}

func (AddFolder) Op() Op     { return OpAddFolder }
func (DeleteFolder) Op() Op  { return OpDeleteFolder }
func (AddFile) Op() Op       { return OpAddFile }
func (DeleteFile) Op() Op    { return OpDeleteFile }
func (OpenFile) Op() Op      { return OpOpenFile }
func (SplitFile) Op() Op     { return OpSplitFile }
func (CreateSection) Op() Op { return OpCreateSection }
func (DeleteSection) Op() Op { return OpDeleteSection }
func (Compile) Op() Op       { return OpCompile }

// TargetKind is the class of object a request is in flight for.
type TargetKind string

const (
	TargetFolder  TargetKind = "folder"
	TargetFile    TargetKind = "file"
	TargetSection TargetKind = "section"
	TargetCompile TargetKind = "compile"
)

// Target identifies what a request mutates. At most one request per target
// may be outstanding.
type Target struct {
	Kind TargetKind
	ID   int
}

// Upload is a file attached to a request.
type Upload struct {
	Field   string
	Name    string
	Content []byte
}

// Request is the outbound exchange a command resolved to.
type Request struct {
	ID     string
	Op     Op
	Target Target

	// Method is the method of the final exchange. Form-backed actions first
	// GET Path to obtain the form, then submit it.
	Method string
	Path   string
	Form   url.Values
	Upload *Upload

	FolderID int
	FileID   int
	FileName string
	Span     section.Span
	Kind     section.Kind
	Options  compiler.Options
}

// Response is what a collaborator returned for a request. Only the fields
// relevant to the request's Op are read.
type Response struct {
	Folder    *workspace.Folder
	File      *workspace.File
	DeletedID int
	Document  *section.Document
	Sections  []section.Section
	Compile   *correlate.Result
}
