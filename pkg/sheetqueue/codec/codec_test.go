package codec_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid/gridtest"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
)

func fightClub() models.MovieSuggestion {
	return models.MovieSuggestion{
		URL:          models.MustParseURL("https://www.themoviedb.org/movie/550-fight-club"),
		TheMovieDbID: "550",
		Title:        "Fight Club",
		Year:         "1999",
		SentAt:       time.Date(2024, time.March, 9, 18, 30, 0, 0, time.UTC),
		SentBy:       "u1",
	}
}

func suggestionSheet(t *testing.T) (*grid.Memory, *grid.Worksheet, header.Map, *codec.Schema) {
	t.Helper()
	ctx := context.Background()
	schema := codec.MustSchema[models.MovieSuggestion]()

	mem := grid.NewMemory()
	ws, err := mem.ResolveWorksheet(ctx, "suggestions", true)
	require.NoError(t, err)
	hm, err := header.NewRegistry(mem).Create(ctx, ws, schema.Keys())
	require.NoError(t, err)
	return mem, ws, hm, schema
}

func TestSchemaOf_MovieSuggestion(t *testing.T) {
	schema, err := codec.SchemaOf[models.MovieSuggestion]()
	require.NoError(t, err)

	var labels []string
	for _, k := range schema.Keys() {
		labels = append(labels, k.Label)
	}
	assert.Equal(t, []string{"URL", "TMDB ID", "Title", "Year", "Submitted At", "Submitted By"}, labels)

	f, ok := schema.Field("URL")
	require.True(t, ok)
	assert.Equal(t, codec.KindText, f.Kind)
	assert.True(t, f.Required)

	f, ok = schema.Field("Year")
	require.True(t, ok)
	assert.Equal(t, codec.KindString, f.Kind)
	assert.False(t, f.Required)
}

func TestSchemaOf_Unsupported(t *testing.T) {
	type noTags struct{ A string }
	type badKind struct {
		C chan int `cell:"C"`
	}
	type duplicate struct {
		A string `cell:"Name"`
		B string `cell:"name"`
	}

	_, err := codec.SchemaOf[noTags]()
	assert.ErrorIs(t, err, codec.ErrUnsupportedType)
	_, err = codec.SchemaOf[badKind]()
	assert.ErrorIs(t, err, codec.ErrUnsupportedType)
	_, err = codec.SchemaOf[duplicate]()
	assert.ErrorIs(t, err, codec.ErrUnsupportedType)
	_, err = codec.SchemaOf[int]()
	assert.ErrorIs(t, err, codec.ErrUnsupportedType)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	schema := codec.MustSchema[models.MovieSuggestion]()

	entities := []models.MovieSuggestion{
		fightClub(),
		{
			URL:          models.MustParseURL("https://www.themoviedb.org/movie/603?language=en"),
			TheMovieDbID: "603",
			Title:        "The Matrix",
			Year:         "",
			SentAt:       time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC),
			SentBy:       "u2",
		},
	}

	for _, e := range entities {
		values, err := schema.EncodeValues(e)
		require.NoError(t, err)

		var back models.MovieSuggestion
		out, err := schema.DecodeValues(2, values, &back)
		require.NoError(t, err)
		require.True(t, out.IsEntity(), out.String())
		assert.Equal(t, e, back)
	}
}

func TestEncodeRow_ThenDecodeRow(t *testing.T) {
	ctx := context.Background()
	mem, ws, hm, schema := suggestionSheet(t)

	require.NoError(t, schema.EncodeRow(ctx, mem, ws, hm, 2, fightClub()))

	v, err := mem.ReadCell(ctx, ws, "E", 2)
	require.NoError(t, err)
	assert.Equal(t, "Sat, 09 Mar 2024 18:30:00 GMT", v.Text())

	var got models.MovieSuggestion
	out, err := schema.DecodeRow(ctx, mem, ws, hm, 2, &got)
	require.NoError(t, err)
	require.True(t, out.IsEntity())
	assert.Equal(t, fightClub(), got)

	out, err = schema.DecodeRow(ctx, mem, ws, hm, 3, &got)
	require.NoError(t, err)
	assert.Equal(t, codec.StateEnd, out.State)
}

func TestDecodeRow_Malformed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		col    string
		value  grid.Value
		field  string
		reason string
	}{
		{"relative url", "A", grid.String("/movie/550"), "URL", "absolute"},
		{"empty sender", "F", grid.Empty(), "Submitted By", "missing value"},
		{"bad date", "E", grid.String("last tuesday"), "Submitted At", "not a date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, ws, hm, schema := suggestionSheet(t)
			require.NoError(t, schema.EncodeRow(ctx, mem, ws, hm, 2, fightClub()))
			require.NoError(t, mem.WriteCell(ctx, ws, tt.col, 2, tt.value))

			var got models.MovieSuggestion
			out, err := schema.DecodeRow(ctx, mem, ws, hm, 2, &got)
			require.NoError(t, err)
			assert.True(t, out.IsMalformed())
			assert.Equal(t, 2, out.Row)
			assert.Equal(t, tt.field, out.Field)
			assert.Contains(t, out.Reason, tt.reason)
			assert.Equal(t, models.MovieSuggestion{}, got, "dst must not be touched")
		})
	}
}

func TestDecodeRow_LenientCells(t *testing.T) {
	ctx := context.Background()
	mem, ws, hm, schema := suggestionSheet(t)
	require.NoError(t, schema.EncodeRow(ctx, mem, ws, hm, 2, fightClub()))

	// Cells edited by hand may hold numbers and other date layouts
	require.NoError(t, mem.WriteCell(ctx, ws, "B", 2, grid.Number(550)))
	require.NoError(t, mem.WriteCell(ctx, ws, "D", 2, grid.Number(1999)))
	require.NoError(t, mem.WriteCell(ctx, ws, "E", 2, grid.String("2024-03-09T18:30:00Z")))

	var got models.MovieSuggestion
	out, err := schema.DecodeRow(ctx, mem, ws, hm, 2, &got)
	require.NoError(t, err)
	require.True(t, out.IsEntity(), out.String())
	assert.Equal(t, fightClub(), got)
}

func TestDecodeRow_SerialDate(t *testing.T) {
	ctx := context.Background()
	mem, ws, hm, schema := suggestionSheet(t)
	require.NoError(t, schema.EncodeRow(ctx, mem, ws, hm, 2, fightClub()))
	// 45360.5 is 2024-03-09 12:00 in the 1900 date system
	require.NoError(t, mem.WriteCell(ctx, ws, "E", 2, grid.Number(45360.5)))

	var got models.MovieSuggestion
	out, err := schema.DecodeRow(ctx, mem, ws, hm, 2, &got)
	require.NoError(t, err)
	require.True(t, out.IsEntity(), out.String())
	assert.Equal(t, time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC), got.SentAt)
}

func TestDecodeRow_MissingHeader(t *testing.T) {
	ctx := context.Background()
	schema := codec.MustSchema[models.MovieSuggestion]()
	mem := grid.NewMemory()
	ws, err := mem.ResolveWorksheet(ctx, "suggestions", true)
	require.NoError(t, err)

	for i, label := range []string{"URL", "TMDB ID", "Title", "Year", "Submitted At"} {
		col := string(rune('A' + i))
		require.NoError(t, mem.WriteCell(ctx, ws, col, 1, grid.String(label)))
	}
	hm, err := header.NewRegistry(mem).Get(ctx, ws, schema.Keys())
	require.NoError(t, err)

	var got models.MovieSuggestion
	out, err := schema.DecodeRow(ctx, mem, ws, hm, 2, &got)
	require.NoError(t, err)
	assert.Equal(t, codec.StateEnd, out.State, "an empty row is the end even without every header")

	require.NoError(t, mem.WriteCell(ctx, ws, "A", 2, grid.String("https://example.com")))
	out, err = schema.DecodeRow(ctx, mem, ws, hm, 2, &got)
	require.NoError(t, err)
	assert.True(t, out.IsMalformed())
	assert.Equal(t, "Submitted By", out.Field)
	assert.Equal(t, "missing header", out.Reason)
}

func TestDecodeRow_IOError(t *testing.T) {
	ctx := context.Background()
	mem, ws, hm, schema := suggestionSheet(t)
	faulty := gridtest.NewFaulty(mem)
	faulty.FailReadsAfter(2)

	var got models.MovieSuggestion
	_, err := schema.DecodeRow(ctx, faulty, ws, hm, 2, &got)
	require.Error(t, err)
	assert.True(t, grid.IsIOError(err))
}

func TestValidate(t *testing.T) {
	schema := codec.MustSchema[models.MovieSuggestion]()

	tests := []struct {
		name   string
		mutate func(*models.MovieSuggestion)
		field  string
	}{
		{"empty id", func(m *models.MovieSuggestion) { m.TheMovieDbID = "" }, "TMDB ID"},
		{"blank title", func(m *models.MovieSuggestion) { m.Title = "  " }, "Title"},
		{"no sender", func(m *models.MovieSuggestion) { m.SentBy = "" }, "Submitted By"},
		{"no url", func(m *models.MovieSuggestion) { m.URL = models.URL{} }, "URL"},
		{"no time", func(m *models.MovieSuggestion) { m.SentAt = time.Time{} }, "Submitted At"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := fightClub()
			tt.mutate(&e)

			err := schema.Validate(e)
			var ve *codec.ValidationError
			require.True(t, errors.As(err, &ve), "expected *ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, codec.IsValidationError(err))
		})
	}

	assert.NoError(t, schema.Validate(fightClub()))
	e := fightClub()
	assert.NoError(t, schema.Validate(&e), "pointers are accepted")
}

func TestEncodeRow_RejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	mem, ws, hm, schema := suggestionSheet(t)
	faulty := gridtest.NewFaulty(mem)

	e := fightClub()
	e.SentBy = ""
	err := schema.EncodeRow(ctx, faulty, ws, hm, 2, e)
	assert.True(t, codec.IsValidationError(err))
	assert.Equal(t, 0, faulty.Writes())
}

func TestEncodeRow_IncompleteHeaders(t *testing.T) {
	ctx := context.Background()
	schema := codec.MustSchema[models.MovieSuggestion]()
	mem := grid.NewMemory()
	ws, err := mem.ResolveWorksheet(ctx, "suggestions", true)
	require.NoError(t, err)
	hm, err := header.NewRegistry(mem).Get(ctx, ws, schema.Keys())
	require.NoError(t, err)

	err = schema.EncodeRow(ctx, mem, ws, hm, 2, fightClub())
	assert.ErrorIs(t, err, codec.ErrIncompleteHeaders)
}

func TestEncodeRow_PartialWrite(t *testing.T) {
	ctx := context.Background()
	mem, ws, hm, schema := suggestionSheet(t)
	faulty := gridtest.NewFaulty(mem)
	faulty.FailWritesAfter(3)

	err := schema.EncodeRow(ctx, faulty, ws, hm, 2, fightClub())
	require.Error(t, err)
	assert.True(t, grid.IsIOError(err))

	// The first three cells landed, the rest did not
	v, err := mem.ReadCell(ctx, ws, "C", 2)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", v.Text())
	v, err = mem.ReadCell(ctx, ws, "D", 2)
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())
}

type scoreRow struct {
	Player string  `cell:"Player,nonempty"`
	Points int     `cell:"Points"`
	Ratio  float64 `cell:"Ratio"`
	Active bool    `cell:"Active"`
	Note   string  `cell:"-"`
}

func TestScalarKinds(t *testing.T) {
	schema := codec.MustSchema[scoreRow]()
	assert.Len(t, schema.Fields(), 4)

	in := scoreRow{Player: "p1", Points: 42, Ratio: 0.75, Active: true}
	values, err := schema.EncodeValues(in)
	require.NoError(t, err)
	assert.Equal(t, []grid.Value{grid.String("p1"), grid.Number(42), grid.Number(0.75), grid.Bool(true)}, values)

	var out scoreRow
	o, err := schema.DecodeValues(5, values, &out)
	require.NoError(t, err)
	require.True(t, o.IsEntity())
	assert.Equal(t, in, out)

	tests := []struct {
		values []grid.Value
		field  string
	}{
		{[]grid.Value{grid.String("p1"), grid.Number(1.5), grid.Empty(), grid.Empty()}, "Points"},
		{[]grid.Value{grid.String("p1"), grid.String("ten"), grid.Empty(), grid.Empty()}, "Points"},
		{[]grid.Value{grid.String("p1"), grid.Empty(), grid.String("x"), grid.Empty()}, "Ratio"},
		{[]grid.Value{grid.String("p1"), grid.Empty(), grid.Empty(), grid.String("maybe")}, "Active"},
	}
	for _, tt := range tests {
		o, err := schema.DecodeValues(5, tt.values, &out)
		require.NoError(t, err)
		assert.True(t, o.IsMalformed())
		assert.Equal(t, tt.field, o.Field)
	}

	// Numeric text is accepted
	o, err = schema.DecodeValues(5, []grid.Value{grid.String("p2"), grid.String(" 7 "), grid.String("1.5"), grid.String("false")}, &out)
	require.NoError(t, err)
	require.True(t, o.IsEntity())
	assert.Equal(t, scoreRow{Player: "p2", Points: 7, Ratio: 1.5}, out)
}

func TestDecodeValues_IntOutOfRange(t *testing.T) {
	schema := codec.MustSchema[scoreRow]()

	for _, num := range []float64{1e20, -1e20, math.Inf(1), 9223372036854775808} {
		var out scoreRow
		o, err := schema.DecodeValues(3, []grid.Value{grid.String("p1"), grid.Number(num), grid.Empty(), grid.Empty()}, &out)
		require.NoError(t, err)
		require.True(t, o.IsMalformed(), "%v", num)
		assert.Equal(t, "Points", o.Field)
		assert.Contains(t, o.Reason, "out of range")
	}

	var out scoreRow
	o, err := schema.DecodeValues(3, []grid.Value{grid.String("p1"), grid.Number(-9223372036854775808), grid.Empty(), grid.Empty()}, &out)
	require.NoError(t, err)
	require.True(t, o.IsEntity())
	assert.Equal(t, math.MinInt64, out.Points)
}

func TestDecodeValues_RequiresPointer(t *testing.T) {
	schema := codec.MustSchema[scoreRow]()
	_, err := schema.DecodeValues(2, make([]grid.Value, 4), scoreRow{})
	assert.ErrorIs(t, err, codec.ErrUnsupportedType)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "row 4 end", codec.End(4).String())
	assert.Equal(t, "row 3 malformed: URL: missing value", codec.Malformed(3, "URL", "missing value").String())
}
