package header

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid/gridtest"
)

var suggestionKeys = []Key{
	{Name: "url", Label: "URL"},
	{Name: "theMovieDbId", Label: "TMDB ID"},
	{Name: "title", Label: "Title"},
	{Name: "year", Label: "Year"},
	{Name: "sentAt", Label: "Submitted At"},
	{Name: "sentBy", Label: "Submitted By"},
}

func newSheet(t *testing.T) (*grid.Memory, *grid.Worksheet) {
	t.Helper()
	mem := grid.NewMemory()
	ws, err := mem.ResolveWorksheet(context.Background(), "suggestions", true)
	require.NoError(t, err)
	return mem, ws
}

func writeRow(t *testing.T, port grid.Port, ws *grid.Worksheet, row int, values ...string) {
	t.Helper()
	col := "A"
	for _, v := range values {
		require.NoError(t, port.WriteCell(context.Background(), ws, col, row, grid.String(v)))
		col = string(rune(col[0] + 1))
	}
}

func TestGet_EmptySheetResolvesNothing(t *testing.T) {
	mem, ws := newSheet(t)

	m, err := NewRegistry(mem).Get(context.Background(), ws, suggestionKeys)
	require.NoError(t, err)

	assert.False(t, m.Complete())
	assert.Len(t, m.Missing(), len(suggestionKeys))
	_, ok := m.Column("url")
	assert.False(t, ok)
}

func TestGet_MatchesCaseInsensitively(t *testing.T) {
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "title", "url", " tmdb id ", "YEAR", "Submitted at", "submitted BY")

	m, err := NewRegistry(mem).Get(context.Background(), ws, suggestionKeys)
	require.NoError(t, err)
	require.True(t, m.Complete())

	expected := map[string]string{
		"title":        "A",
		"url":          "B",
		"theMovieDbId": "C",
		"year":         "D",
		"sentAt":       "E",
		"sentBy":       "F",
	}
	for name, col := range expected {
		got, ok := m.Column(name)
		assert.True(t, ok, name)
		assert.Equal(t, col, got, name)
	}
}

func TestGet_UnmatchedKeysResolveToNone(t *testing.T) {
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "URL", "Something Else")

	m, err := NewRegistry(mem).Get(context.Background(), ws, suggestionKeys)
	require.NoError(t, err)

	col, ok := m.Column("url")
	assert.True(t, ok)
	assert.Equal(t, "A", col)
	assert.Len(t, m.Missing(), 5)
}

func TestGet_IgnoresNonTextHeaders(t *testing.T) {
	mem, ws := newSheet(t)
	require.NoError(t, mem.WriteCell(context.Background(), ws, "A", 1, grid.Number(1)))

	m, err := NewRegistry(mem).Get(context.Background(), ws, []Key{{Name: "n", Label: "1"}})
	require.NoError(t, err)
	assert.False(t, m.Complete())
}

func TestGet_RespectsScanWidth(t *testing.T) {
	mem, ws := newSheet(t)
	keys := []Key{{Name: "a", Label: "Alpha"}, {Name: "b", Label: "Beta"}}
	require.NoError(t, mem.WriteCell(context.Background(), ws, "C", 1, grid.String("Beta")))

	reg := &Registry{Port: mem, ScanWidth: 2}
	m, err := reg.Get(context.Background(), ws, keys)
	require.NoError(t, err)
	_, ok := m.Column("b")
	assert.False(t, ok, "C1 is outside a two-cell window")

	reg.ScanWidth = 3
	m, err = reg.Get(context.Background(), ws, keys)
	require.NoError(t, err)
	col, ok := m.Column("b")
	assert.True(t, ok)
	assert.Equal(t, "C", col)
}

func TestCreate_ClearsAndWritesInOrder(t *testing.T) {
	ctx := context.Background()
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "junk")
	writeRow(t, mem, ws, 2, "old", "row")

	m, err := NewRegistry(mem).Create(ctx, ws, suggestionKeys)
	require.NoError(t, err)
	require.True(t, m.Complete())

	for i, col := range []string{"A", "B", "C", "D", "E", "F"} {
		v, err := mem.ReadCell(ctx, ws, col, 1)
		require.NoError(t, err)
		assert.Equal(t, suggestionKeys[i].Label, v.Text())
	}

	v, err := mem.ReadCell(ctx, ws, "A", 2)
	require.NoError(t, err)
	assert.True(t, v.IsEmpty(), "Create must clear existing rows")
}

func TestCreate_PastColumnZ(t *testing.T) {
	ctx := context.Background()
	mem, ws := newSheet(t)

	keys := make([]Key, 28)
	for i := range keys {
		keys[i] = Key{Name: string(rune('a' + i%26)) + string(rune('0'+i/26)), Label: "H" + string(rune('a'+i%26)) + string(rune('0'+i/26))}
	}

	m, err := NewRegistry(mem).Create(ctx, ws, keys)
	require.NoError(t, err)

	col, ok := m.Column(keys[26].Name)
	require.True(t, ok)
	assert.Equal(t, "AA", col)
	col, ok = m.Column(keys[27].Name)
	require.True(t, ok)
	assert.Equal(t, "AB", col)

	// The window widens to cover every key
	again, err := NewRegistry(mem).Get(ctx, ws, keys)
	require.NoError(t, err)
	assert.True(t, again.Complete())
}

func TestEnsure_CompleteHeadersAreUntouched(t *testing.T) {
	ctx := context.Background()
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "URL", "TMDB ID", "Title", "Year", "Submitted At", "Submitted By")
	writeRow(t, mem, ws, 2, "https://example.com", "1", "t", "y", "d", "u")
	faulty := gridtest.NewFaulty(mem)

	m, err := NewRegistry(faulty).Ensure(ctx, ws, suggestionKeys, PolicyRecreate)
	require.NoError(t, err)
	assert.True(t, m.Complete())
	assert.Equal(t, 0, faulty.Writes())
}

func TestEnsure_AppendKeepsData(t *testing.T) {
	ctx := context.Background()
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "URL", "TMDB ID", "Title", "Year", "Submitted At")
	writeRow(t, mem, ws, 2, "https://example.com", "1", "t", "y", "d")

	m, err := NewRegistry(mem).Ensure(ctx, ws, suggestionKeys, PolicyAppend)
	require.NoError(t, err)
	require.True(t, m.Complete())

	col, _ := m.Column("sentBy")
	assert.Equal(t, "F", col)

	v, err := mem.ReadCell(ctx, ws, "F", 1)
	require.NoError(t, err)
	assert.Equal(t, "Submitted By", v.Text())

	v, err = mem.ReadCell(ctx, ws, "B", 2)
	require.NoError(t, err)
	assert.Equal(t, "1", v.Text(), "existing data must survive")
}

func TestEnsure_RecreateDiscardsData(t *testing.T) {
	ctx := context.Background()
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "URL", "TMDB ID")
	writeRow(t, mem, ws, 2, "https://example.com", "1")

	m, err := NewRegistry(mem).Ensure(ctx, ws, suggestionKeys, PolicyRecreate)
	require.NoError(t, err)
	require.True(t, m.Complete())

	v, err := mem.ReadCell(ctx, ws, "B", 2)
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())
}

func TestEnsure_HeaderRowFull(t *testing.T) {
	ctx := context.Background()
	mem, ws := newSheet(t)
	writeRow(t, mem, ws, 1, "x", "y")

	reg := &Registry{Port: mem, ScanWidth: 2}
	_, err := reg.Ensure(ctx, ws, []Key{{Name: "a", Label: "Alpha"}, {Name: "b", Label: "Beta"}}, PolicyAppend)
	assert.ErrorIs(t, err, ErrHeaderRowFull)
}

func TestGet_PropagatesIOError(t *testing.T) {
	mem, ws := newSheet(t)
	faulty := gridtest.NewFaulty(mem)
	faulty.FailReadsAfter(0)

	_, err := NewRegistry(faulty).Get(context.Background(), ws, suggestionKeys)
	require.Error(t, err)
	assert.True(t, grid.IsIOError(err))
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		wantErr  bool
	}{
		{"", PolicyAppend, false},
		{"append", PolicyAppend, false},
		{"Recreate", PolicyRecreate, false},
		{"drop", PolicyAppend, true},
	}

	for _, tt := range tests {
		result, err := ParsePolicy(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, result, tt.input)
	}
}
