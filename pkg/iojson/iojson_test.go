package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  string `json:"kind"`
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []span{{Start: 1, End: 3, Kind: "<directive>"}}))

	assert.Equal(t, "[\n  {\n    \"start\": 1,\n    \"end\": 3,\n    \"kind\": \"<directive>\"\n  }\n]\n", buf.String())
}

func TestWrite_Unencodable(t *testing.T) {
	err := Write(&bytes.Buffer{}, map[string]any{"f": func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode json")
}

func TestFileReader_Read(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sections.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"start":2,"end":4,"kind":"variable"}]`), 0o644))

	tests := []struct {
		name    string
		path    string
		stdin   string
		want    []span
		wantErr string
	}{
		{
			name: "file",
			path: path,
			want: []span{{Start: 2, End: 4, Kind: "variable"}},
		},
		{
			name:  "stdin dash",
			path:  "-",
			stdin: `[{"start":1,"end":1,"kind":"comment"}]`,
			want:  []span{{Start: 1, End: 1, Kind: "comment"}},
		},
		{
			name:  "stdin default",
			stdin: `[]`,
			want:  []span{},
		},
		{
			name:    "missing file",
			path:    filepath.Join(dir, "nope.json"),
			wantErr: "open file",
		},
		{
			name:    "unknown field",
			stdin:   `[{"start":1,"end":1,"kind":"comment","color":"red"}]`,
			wantErr: "unknown field",
		},
		{
			name:    "trailing data",
			stdin:   `[] []`,
			wantErr: "unexpected data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &FileReader[[]span]{path: tt.path, Stdin: strings.NewReader(tt.stdin)}

			got, err := fr.Read()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileReader_Flag(t *testing.T) {
	fr := &FileReader[[]span]{}
	flag := fr.Flag()

	assert.Equal(t, "file", flag.Name)
	assert.Equal(t, []string{"f"}, flag.Aliases)
	assert.True(t, flag.TakesFile)
}
