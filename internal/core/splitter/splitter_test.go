package splitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/asmbench/internal/core/section"
)

func sec(start, end int, kind section.Kind) section.Section {
	return section.Section{StartLine: start, EndLine: end, Kind: kind}
}

func TestSplit_File(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "blink.c"))
	require.NoError(t, err)

	got, err := New().Split(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []section.Section{
		sec(1, 2, section.KindDirective),
		sec(4, 5, section.KindComment),
		sec(6, 7, section.KindVariable),
		sec(9, 9, section.KindProcedure),
		sec(11, 12, section.KindComment),
		sec(13, 18, section.KindProcedure),
		sec(20, 22, section.KindAssembly),
	}, got)
}

func TestSplit_ProposalsLoadIntoIndex(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "blink.c"))
	require.NoError(t, err)

	got, err := New().Split(context.Background(), src)
	require.NoError(t, err)

	idx := section.NewIndex()
	require.NoError(t, idx.Load(section.NewDocument(1, "blink.c", string(src)), got))
	assert.Len(t, idx.List(1), len(got))
}

func TestSplit_Cases(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []section.Section
	}{
		{
			name: "empty",
			src:  "",
			want: []section.Section{},
		},
		{
			name: "conditional block is one directive",
			src:  "#ifdef DEBUG\n#define LOG 1\n#endif\n",
			want: []section.Section{sec(1, 3, section.KindDirective)},
		},
		{
			name: "blank line splits runs",
			src:  "int a;\n\nint b;\n",
			want: []section.Section{sec(1, 1, section.KindVariable), sec(3, 3, section.KindVariable)},
		},
		{
			name: "trailing comment joins its line",
			src:  "int a; // counter\n",
			want: []section.Section{sec(1, 1, section.KindVariable)},
		},
		{
			name: "assembly inside a procedure stays in it",
			src:  "void isr(void)\n{\n__asm\n  reti\n__endasm;\n}\n",
			want: []section.Section{sec(1, 6, section.KindProcedure)},
		},
		{
			name: "unterminated assembly runs to the end",
			src:  "int a;\n__asm\n  nop\n",
			want: []section.Section{sec(1, 1, section.KindVariable), sec(2, 3, section.KindAssembly)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Split(context.Background(), []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
