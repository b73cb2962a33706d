package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/correlate"
	"github.com/hay-kot/asmbench/internal/core/section"
)

func TestDecodeSource(t *testing.T) {
	body := `<pre>
<div class="code-section-outer procedure" id="start1-end3">
<span id="source_line_1">void main(void)</span>
<div class="code-section-inner" data-kind="4" id="start2-end2"><span id="source_line_2">  // idle</span></div>
<span id="source_line_3">}</span>
</div>
<span id="source_line_4"></span>
</pre>`

	p, err := decodeSource(5, []byte(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"void main(void)", "  // idle", "}", ""}, p.Document.Lines)
	assert.Equal(t, 5, p.Document.FileID)
	assert.Equal(t, []section.Section{
		{FileID: 5, StartLine: 1, EndLine: 3, Kind: section.KindProcedure},
		{FileID: 5, StartLine: 2, EndLine: 2, Kind: section.KindComment},
	}, p.Sections)
}

func TestDecodeSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"gap in lines", `<span id="source_line_1">a</span><span id="source_line_3">c</span>`},
		{"bad line id", `<span id="source_line_x">a</span>`},
		{"section without kind", `<div class="code-section-outer" id="start1-end1"><span id="source_line_1">a</span></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSource(1, []byte(tt.body))
			require.Error(t, err)
		})
	}
}

func TestDecodeSource_Empty(t *testing.T) {
	p, err := decodeSource(1, []byte(`<div id="code"></div>`))
	require.NoError(t, err)
	assert.Zero(t, p.Document.LineCount())
	assert.Empty(t, p.Sections)
}

func TestDecodeCompile_ErrorPage(t *testing.T) {
	body := `<div id="error_code"><div class="code">main.c:4: error 20: Undefined identifier 'x'</div>
<div class="code">main.c:9: warning 85: unreferenced function argument</div></div>`

	res, err := decodeCompile(reply{body: []byte(body), contentType: "text/html; charset=utf-8"}, 2, "main.c", "main.c")
	require.NoError(t, err)

	assert.Equal(t, correlate.StatusFailed, res.Status)
	assert.False(t, res.OK())
	assert.Equal(t, []correlate.Diagnostic{
		{SourceLine: 4, Text: "main.c:4: error 20: Undefined identifier 'x'"},
		{SourceLine: 9, Text: "main.c:9: warning 85: unreferenced function argument"},
	}, res.Diagnostics)
	assert.Len(t, res.Document.Lines, 2)
	assert.Equal(t, "main.asm", res.ArtifactName)
}

func TestDecodeCompile_JSON(t *testing.T) {
	body := `{"status":"Compiled without warnings","document":{"lines":[{"code":"nop"}]}}`

	res, err := decodeCompile(reply{body: []byte(body), contentType: "application/json"}, 3, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.FileID)
	assert.Equal(t, "nop", res.Document.Lines[0].Text)
}

func TestDecodeCompile_UnknownPage(t *testing.T) {
	_, err := decodeCompile(reply{body: []byte(`<p>login required</p>`), contentType: "text/html"}, 1, "", "")
	require.Error(t, err)
}

func TestParseForm(t *testing.T) {
	body := `<form action="/folder/2/delete" method="post">
<input type="hidden" name="csrfmiddlewaretoken" value="abc">
<input type="submit" value="Delete"></form>
<form action="/other"><input type="hidden" name="ignored" value="1"></form>`

	f, err := parseForm([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "/folder/2/delete", f.action)
	assert.Equal(t, "abc", f.values.Get("csrfmiddlewaretoken"))
	assert.Empty(t, f.values.Get("ignored"))
}

func TestFormTarget(t *testing.T) {
	tests := []struct {
		action string
		served string
		want   string
	}{
		{"", "/folder/1/add-folder", "/folder/1/add-folder"},
		{"/file/3/delete", "/file/3/delete", "/file/3/delete"},
		{"delete", "/file/3/confirm", "/file/3/delete"},
		{"?next=1", "/file/3/delete", "/file/3/delete"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, form{action: tt.action}.target(tt.served))
		})
	}
}
