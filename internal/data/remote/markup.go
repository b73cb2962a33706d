package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hay-kot/asmbench/internal/core/asm"
	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/section"
)

// Markup hooks of the rendered pages.
const (
	lineIDPrefix      = "source_line_"
	compiledID        = "compiled_code"
	errorID           = "error_code"
	artifactNameID    = "compiled_name"
	codeLineClass     = "code"
	sectionKindAttr   = "data-kind"
	sectionOuterClass = "code-section-outer"
	sectionInnerClass = "code-section-inner"
)

var sectionID = regexp.MustCompile(`^start(\d+)-end(\d+)$`)

// decodeSource reads a rendered Source Document. Lines are the elements with
// a source_line_N id; sections are the elements with a startS-endE id.
func decodeSource(fileID int, body []byte) (Page, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse source page: %w", err)
	}

	lines := map[int]string{}
	var sections []section.Section
	var firstErr error
	each(root, func(n *html.Node) {
		if firstErr != nil {
			return
		}
		id := attr(n, "id")
		if strings.HasPrefix(id, lineIDPrefix) {
			line, err := section.ParseLineID(id)
			if err != nil {
				firstErr = err
				return
			}
			lines[line] = strings.TrimSuffix(text(n), "\n")
			return
		}
		if m := sectionID.FindStringSubmatch(id); m != nil {
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			kind, err := sectionKind(n)
			if err != nil {
				firstErr = fmt.Errorf("section %s: %w", id, err)
				return
			}
			sections = append(sections, section.Section{FileID: fileID, StartLine: start, EndLine: end, Kind: kind})
		}
	})
	if firstErr != nil {
		return Page{}, firstErr
	}

	doc := section.Document{FileID: fileID, Lines: make([]string, len(lines))}
	for n := 1; n <= len(lines); n++ {
		line, ok := lines[n]
		if !ok {
			return Page{}, fmt.Errorf("source page skips line %d", n)
		}
		doc.Lines[n-1] = line
	}
	return Page{Document: doc, Sections: sections}, nil
}

// sectionKind reads the kind from the data-kind attribute or, failing that,
// from a class naming a kind.
func sectionKind(n *html.Node) (section.Kind, error) {
	if v := attr(n, sectionKindAttr); v != "" {
		return section.ParseKind(v)
	}
	for _, cls := range strings.Fields(attr(n, "class")) {
		if cls == sectionOuterClass || cls == sectionInnerClass {
			continue
		}
		if k := section.Kind(cls); k.IsValid() {
			return k, nil
		}
	}
	return "", fmt.Errorf("no section kind in markup")
}

// decodeCompile reads a compile answer. A JSON answer is taken as a ready
// correlation, plain text as a raw assembly listing and markup as the
// compiled or compilation-error page.
func decodeCompile(r reply, fileID int, sourceName, fileName string) (correlate.Result, error) {
	mediaType, _, err := mime.ParseMediaType(r.contentType)
	if err != nil {
		mediaType = "text/html"
	}

	switch mediaType {
	case "application/json":
		var res correlate.Result
		if err := json.Unmarshal(r.body, &res); err != nil {
			return correlate.Result{}, fmt.Errorf("decode compile result: %w", err)
		}
		res.FileID = fileID
		return res, nil
	case "text/plain":
		return asm.Decode(asm.Output{
			FileID:     fileID,
			SourceName: sourceName,
			FileName:   fileName,
			Asm:        string(r.body),
			Produced:   true,
		}), nil
	}

	root, err := html.Parse(bytes.NewReader(r.body))
	if err != nil {
		return correlate.Result{}, fmt.Errorf("parse compile page: %w", err)
	}

	out := asm.Output{FileID: fileID, SourceName: sourceName, FileName: fileName}
	switch {
	case byID(root, compiledID) != nil:
		out.Produced = true
		out.Asm = listing(byID(root, compiledID))
	case byID(root, errorID) != nil:
		out.Stderr = listing(byID(root, errorID))
	default:
		return correlate.Result{}, fmt.Errorf("compile page has neither %s nor %s", compiledID, errorID)
	}

	res := asm.Decode(out)
	if n := byID(root, artifactNameID); n != nil {
		if name := strings.TrimSpace(attr(n, "value")); name != "" {
			res.ArtifactName = name
		}
	}
	return res, nil
}

// listing joins the generated lines under n. Pages render one element of
// class "code" per line; without them the container text is the listing.
func listing(n *html.Node) string {
	var lines []string
	collect(n, func(c *html.Node) bool { return hasClass(c, codeLineClass) }, func(c *html.Node) {
		lines = append(lines, strings.TrimSuffix(text(c), "\n"))
	})
	if len(lines) == 0 {
		return text(n)
	}
	return strings.Join(lines, "\n")
}

type form struct {
	action string
	values url.Values
}

// parseForm returns the first form of a page with its hidden inputs. A page
// without a form yields an empty one.
func parseForm(body []byte) (form, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return form{}, err
	}

	f := form{values: url.Values{}}
	var found *html.Node
	collect(root, func(n *html.Node) bool { return found == nil && isElement(n, "form") }, func(n *html.Node) {
		found = n
	})
	if found == nil {
		return f, nil
	}

	f.action = attr(found, "action")
	each(found, func(n *html.Node) {
		if isElement(n, "input") && strings.EqualFold(attr(n, "type"), "hidden") && attr(n, "name") != "" {
			f.values.Add(attr(n, "name"), attr(n, "value"))
		}
	})
	return f, nil
}

// target resolves the form action against the path the form was served at.
func (f form) target(served string) string {
	if f.action == "" {
		return served
	}
	u, err := url.Parse(f.action)
	if err != nil || u.Path == "" {
		return served
	}
	if strings.HasPrefix(u.Path, "/") {
		return u.Path
	}
	base, _ := url.Parse(served)
	return base.ResolveReference(u).Path
}

func each(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		each(c, fn)
	}
}

// collect calls fn for elements matching pred without descending into them.
func collect(n *html.Node, pred func(*html.Node) bool, fn func(*html.Node)) {
	if n.Type == html.ElementNode && pred(n) {
		fn(n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, pred, fn)
	}
}

func byID(root *html.Node, id string) *html.Node {
	var found *html.Node
	collect(root, func(n *html.Node) bool { return found == nil && attr(n, "id") == id }, func(n *html.Node) {
		found = n
	})
	return found
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, cls string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == cls {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
