package gridtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// RunConformance checks the behavior every grid.Port backend must share.
// newPort is called once per subtest and must return an empty document.
func RunConformance(t *testing.T, newPort func(t *testing.T) grid.Port) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing worksheet resolves to nil", func(t *testing.T) {
		port := newPort(t)

		ws, err := port.ResolveWorksheet(ctx, "suggestions", false)
		require.NoError(t, err)
		assert.Nil(t, ws)
	})

	t.Run("create then resolve", func(t *testing.T) {
		port := newPort(t)

		created, err := port.ResolveWorksheet(ctx, "config", true)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "config", created.Title)

		again, err := port.ResolveWorksheet(ctx, "config", false)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, "config", again.Title)

		// Creating twice is not an error
		twice, err := port.ResolveWorksheet(ctx, "config", true)
		require.NoError(t, err)
		require.NotNil(t, twice)
	})

	t.Run("unset cell reads empty", func(t *testing.T) {
		port := newPort(t)
		ws := mustCreate(t, port, "suggestions")

		v, err := port.ReadCell(ctx, ws, "C", 42)
		require.NoError(t, err)
		assert.True(t, v.IsEmpty())
	})

	t.Run("scalar round trip", func(t *testing.T) {
		port := newPort(t)
		ws := mustCreate(t, port, "suggestions")

		values := map[string]grid.Value{
			"A": grid.String("https://www.themoviedb.org/movie/550-fight-club"),
			"B": grid.String("550"),
			"C": grid.Number(5),
			"D": grid.Number(2.5),
			"E": grid.Bool(true),
			"AA": grid.String("far column"),
		}
		for col, v := range values {
			require.NoError(t, port.WriteCell(ctx, ws, col, 2, v))
		}
		for col, want := range values {
			got, err := port.ReadCell(ctx, ws, col, 2)
			require.NoError(t, err)
			assert.Equal(t, want, got, "column %s", col)
		}
	})

	t.Run("column labels are case insensitive", func(t *testing.T) {
		port := newPort(t)
		ws := mustCreate(t, port, "suggestions")

		require.NoError(t, port.WriteCell(ctx, ws, "b", 3, grid.String("x")))
		v, err := port.ReadCell(ctx, ws, "B", 3)
		require.NoError(t, err)
		assert.Equal(t, "x", v.Text())
	})

	t.Run("writing empty clears", func(t *testing.T) {
		port := newPort(t)
		ws := mustCreate(t, port, "suggestions")

		require.NoError(t, port.WriteCell(ctx, ws, "A", 1, grid.String("URL")))
		require.NoError(t, port.WriteCell(ctx, ws, "A", 1, grid.Empty()))

		v, err := port.ReadCell(ctx, ws, "A", 1)
		require.NoError(t, err)
		assert.True(t, v.IsEmpty())
	})

	t.Run("clear removes every value", func(t *testing.T) {
		port := newPort(t)
		ws := mustCreate(t, port, "suggestions")
		other := mustCreate(t, port, "config")

		for row := 1; row <= 3; row++ {
			require.NoError(t, port.WriteCell(ctx, ws, "A", row, grid.String("v")))
			require.NoError(t, port.WriteCell(ctx, ws, "B", row, grid.Number(float64(row))))
		}
		require.NoError(t, port.WriteCell(ctx, other, "A", 1, grid.String("keep")))

		require.NoError(t, port.ClearWorksheet(ctx, ws))

		for row := 1; row <= 3; row++ {
			for _, col := range []string{"A", "B"} {
				v, err := port.ReadCell(ctx, ws, col, row)
				require.NoError(t, err)
				assert.True(t, v.IsEmpty(), "%s%d should be empty", col, row)
			}
		}

		// Worksheets are independent
		v, err := port.ReadCell(ctx, other, "A", 1)
		require.NoError(t, err)
		assert.Equal(t, "keep", v.Text())
	})

	t.Run("invalid cell reference", func(t *testing.T) {
		port := newPort(t)
		ws := mustCreate(t, port, "suggestions")

		_, err := port.ReadCell(ctx, ws, "A", 0)
		assert.ErrorIs(t, err, grid.ErrInvalidCell)

		err = port.WriteCell(ctx, ws, "1", 1, grid.String("x"))
		assert.ErrorIs(t, err, grid.ErrInvalidCell)
	})
}

func mustCreate(t *testing.T, port grid.Port, title string) *grid.Worksheet {
	t.Helper()
	ws, err := port.ResolveWorksheet(context.Background(), title, true)
	require.NoError(t, err)
	require.NotNil(t, ws)
	return ws
}
