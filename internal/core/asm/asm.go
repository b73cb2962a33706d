// Package asm decodes raw compiler output into a Generated Document with
// correlation markers and diagnostics.
package asm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hay-kot/asmbench/internal/core/correlate"
)

// DefaultSourceName is the name the compile service gives the submitted file.
const DefaultSourceName = "source.c"

const banner = ";-----------------"

// Parse splits assembly into lines and recognizes the banner-delimited
// blocks and the source line comments inside block bodies.
//
// A banner opens a header region, the following banner closes it, and the
// body runs until the next banner. Lines before the first banner belong to
// no block.
func Parse(raw, sourceName string) (correlate.Document, []correlate.Marker) {
	marker := markerPattern(sourceName)

	var (
		doc     correlate.Document
		markers []correlate.Marker
		block   int
		header  bool
	)
	for i, text := range splitLines(raw) {
		line := correlate.Line{Text: text, Block: block}
		switch {
		case strings.HasPrefix(text, banner) && !header:
			block++
			header = true
			doc.Blocks = append(doc.Blocks, correlate.Block{ID: block, Title: "block " + strconv.Itoa(block)})
			line.Block = block
			line.Role = correlate.RoleHeader
		case strings.HasPrefix(text, banner):
			header = false
			line.Role = correlate.RoleHeader
		case header:
			line.Role = correlate.RoleHeader
			if title := strings.TrimSpace(strings.TrimLeft(text, ";")); title != "" && isDefaultTitle(doc.Blocks[block-1]) {
				doc.Blocks[block-1].Title = title
			}
		default:
			if block > 0 {
				line.Role = correlate.RoleBody
			}
			if m := marker.FindStringSubmatch(text); m != nil {
				n, err := strconv.Atoi(m[1])
				if err == nil && n > 0 {
					line.SourceLine = n
					markers = append(markers, correlate.Marker{SourceLine: n, Line: i})
				}
			}
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, markers
}

func isDefaultTitle(b correlate.Block) bool {
	return b.Title == "block "+strconv.Itoa(b.ID)
}

// ParseErrors turns compiler stderr into a plain Generated Document whose
// lines carry the source line they complain about.
func ParseErrors(stderr, sourceName string) correlate.Document {
	prefix := regexp.MustCompile("^" + regexp.QuoteMeta(sourceName) + `:(\d+)`)

	var doc correlate.Document
	for _, text := range splitLines(stderr) {
		line := correlate.Line{Text: text}
		if m := prefix.FindStringSubmatch(text); m != nil {
			line.SourceLine, _ = strconv.Atoi(m[1])
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc
}

// Diagnostics extracts one diagnostic per "<sourceName>:<line>" occurrence
// in stderr. Message continuations stay attached to their diagnostic.
func Diagnostics(stderr, sourceName string) []correlate.Diagnostic {
	parts := strings.Split(stderr, sourceName+":")
	if len(parts) < 2 {
		return nil
	}

	var out []correlate.Diagnostic
	for _, part := range parts[1:] {
		digits := leadingDigits(part)
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		out = append(out, correlate.Diagnostic{
			SourceLine: n,
			Text:       strings.TrimRight(sourceName+":"+part, " \t\r\n"),
		})
	}
	return out
}

// StatusOf classifies a compilation by whether assembly was produced and
// whether the compiler complained.
func StatusOf(produced bool, diags []correlate.Diagnostic) correlate.Status {
	switch {
	case !produced:
		return correlate.StatusFailed
	case len(diags) > 0:
		return correlate.StatusWarnings
	default:
		return correlate.StatusClean
	}
}

// Output is the raw outcome of running the compiler on one file.
type Output struct {
	FileID     int
	SourceName string // defaults to DefaultSourceName
	FileName   string // user-facing file name, used for the artifact name
	Asm        string
	Produced   bool // false when no assembly file was written
	Stderr     string
}

// Decode builds the compilation result for out. A failed compilation
// carries the error listing as its document and no markers.
func Decode(out Output) correlate.Result {
	name := out.SourceName
	if name == "" {
		name = DefaultSourceName
	}

	diags := Diagnostics(out.Stderr, name)
	r := correlate.Result{
		FileID:       out.FileID,
		Status:       StatusOf(out.Produced, diags),
		Diagnostics:  diags,
		ArtifactName: ArtifactName(out.FileName),
	}
	if out.Produced {
		r.Document, r.Markers = Parse(out.Asm, name)
	} else {
		r.Document = ParseErrors(out.Stderr, name)
	}
	return r
}

// DefaultArtifactName is used when neither the user nor the server names the export.
const DefaultArtifactName = "compiled.asm"

// ArtifactName proposes "<stem>.asm" for a source file name.
func ArtifactName(fileName string) string {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return DefaultArtifactName
	}
	if i := strings.LastIndexByte(fileName, '.'); i > 0 {
		fileName = fileName[:i]
	}
	return fileName + ".asm"
}

func markerPattern(sourceName string) *regexp.Regexp {
	if sourceName == "" {
		sourceName = DefaultSourceName
	}
	return regexp.MustCompile(`^;\t*\s*` + regexp.QuoteMeta(sourceName) + `:\s*(\d+)`)
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
