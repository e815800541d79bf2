package grid_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid/gridtest"
)

func TestMemoryConformance(t *testing.T) {
	gridtest.RunConformance(t, func(t *testing.T) grid.Port {
		return grid.NewMemory()
	})
}

func TestWorkbookConformance(t *testing.T) {
	gridtest.RunConformance(t, func(t *testing.T) grid.Port {
		wb, err := grid.OpenWorkbook(filepath.Join(t.TempDir(), "queue.xlsx"), grid.WorkbookOptions{})
		require.NoError(t, err)
		t.Cleanup(func() { wb.Close() })
		return wb
	})
}

func TestSQLiteConformance(t *testing.T) {
	gridtest.RunConformance(t, func(t *testing.T) grid.Port {
		db, err := grid.OpenSQLite(filepath.Join(t.TempDir(), "queue.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestPostgresConformance(t *testing.T) {
	url := os.Getenv("SHEETQUEUE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SHEETQUEUE_TEST_DATABASE_URL not set")
	}

	gridtest.RunConformance(t, func(t *testing.T) grid.Port {
		pg, err := grid.OpenPostgres(context.Background(), url)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })

		// Start every subtest from an empty document
		for _, title := range []string{"config", "suggestions"} {
			ws, err := pg.ResolveWorksheet(context.Background(), title, true)
			require.NoError(t, err)
			require.NoError(t, pg.ClearWorksheet(context.Background(), ws))
		}
		return &droppingPort{Port: pg}
	})
}

// droppingPort hides worksheets that exist in a shared database but were not
// created by the current subtest.
type droppingPort struct {
	grid.Port
	created map[string]bool
}

func (d *droppingPort) ResolveWorksheet(ctx context.Context, title string, create bool) (*grid.Worksheet, error) {
	if d.created == nil {
		d.created = make(map[string]bool)
	}
	if !create && !d.created[title] {
		return nil, nil
	}
	d.created[title] = true
	return d.Port.ResolveWorksheet(ctx, title, true)
}

func TestWorkbookPersistsEachWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.xlsx")

	wb, err := grid.OpenWorkbook(path, grid.WorkbookOptions{})
	require.NoError(t, err)

	ws, err := wb.ResolveWorksheet(ctx, "suggestions", true)
	require.NoError(t, err)
	require.NoError(t, wb.WriteCell(ctx, ws, "B", 2, grid.String("550")))

	// Saved without Close
	_, err = os.Stat(path)
	require.NoError(t, err, "workbook should be saved after a write")

	reopened, err := grid.OpenWorkbook(path, grid.WorkbookOptions{})
	require.NoError(t, err)
	defer reopened.Close()

	ws2, err := reopened.ResolveWorksheet(ctx, "suggestions", false)
	require.NoError(t, err)
	require.NotNil(t, ws2)

	v, err := reopened.ReadCell(ctx, ws2, "B", 2)
	require.NoError(t, err)
	assert.Equal(t, grid.String("550"), v)

	require.NoError(t, wb.Close())
}

func TestWorkbookWritesOutOfColumnOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.xlsx")

	wb, err := grid.OpenWorkbook(path, grid.WorkbookOptions{})
	require.NoError(t, err)

	ws, err := wb.ResolveWorksheet(ctx, "suggestions", true)
	require.NoError(t, err)
	require.NoError(t, wb.WriteCell(ctx, ws, "C", 2, grid.String("Fight Club")))
	require.NoError(t, wb.WriteCell(ctx, ws, "A", 2, grid.String("https://www.themoviedb.org/movie/550")))
	require.NoError(t, wb.WriteCell(ctx, ws, "B", 2, grid.String("550")))

	want := map[string]grid.Value{
		"A": grid.String("https://www.themoviedb.org/movie/550"),
		"B": grid.String("550"),
		"C": grid.String("Fight Club"),
	}
	for col, v := range want {
		got, err := wb.ReadCell(ctx, ws, col, 2)
		require.NoError(t, err)
		assert.Equal(t, v, got, "cell %s2", col)
	}
	require.NoError(t, wb.Close())

	reopened, err := grid.OpenWorkbook(path, grid.WorkbookOptions{})
	require.NoError(t, err)
	defer reopened.Close()

	ws, err = reopened.ResolveWorksheet(ctx, "suggestions", false)
	require.NoError(t, err)
	require.NotNil(t, ws)
	for col, v := range want {
		got, err := reopened.ReadCell(ctx, ws, col, 2)
		require.NoError(t, err)
		assert.Equal(t, v, got, "cell %s2 after reopen", col)
	}
}

func TestWorkbookWithoutAutoSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.xlsx")
	off := false

	wb, err := grid.OpenWorkbook(path, grid.WorkbookOptions{AutoSave: &off})
	require.NoError(t, err)

	ws, err := wb.ResolveWorksheet(ctx, "config", true)
	require.NoError(t, err)
	require.NoError(t, wb.WriteCell(ctx, ws, "A", 1, grid.String("Blacklisted Users")))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing should be written before Save")

	require.NoError(t, wb.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err, "Close should flush pending changes")
}

func TestClosedBackendReportsIOError(t *testing.T) {
	ctx := context.Background()

	mem := grid.NewMemory()
	ws, err := mem.ResolveWorksheet(ctx, "config", true)
	require.NoError(t, err)
	require.NoError(t, mem.Close())

	_, err = mem.ReadCell(ctx, ws, "A", 1)
	require.Error(t, err)
	assert.True(t, grid.IsIOError(err))
	assert.ErrorIs(t, err, grid.ErrClosed)
}

func TestCanceledContextReportsIOError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wb, err := grid.OpenWorkbook("", grid.WorkbookOptions{})
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.ResolveWorksheet(ctx, "config", true)
	require.Error(t, err)
	assert.True(t, grid.IsIOError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFaultyPort(t *testing.T) {
	ctx := context.Background()
	faulty := gridtest.NewFaulty(grid.NewMemory())

	ws, err := faulty.ResolveWorksheet(ctx, "suggestions", true)
	require.NoError(t, err)

	faulty.FailWritesAfter(1)
	require.NoError(t, faulty.WriteCell(ctx, ws, "A", 1, grid.String("URL")))

	err = faulty.WriteCell(ctx, ws, "B", 1, grid.String("TMDB ID"))
	require.Error(t, err)
	assert.ErrorIs(t, err, gridtest.ErrInjected)

	var ioErr *grid.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
	assert.Equal(t, "B1", ioErr.Cell)
	assert.Equal(t, 1, faulty.Writes())
}

func TestMemoryDump(t *testing.T) {
	ctx := context.Background()
	mem := grid.NewMemory()

	ws, err := mem.ResolveWorksheet(ctx, "config", true)
	require.NoError(t, err)
	require.NoError(t, mem.WriteCell(ctx, ws, "B", 1, grid.String("Submission Max Quantity")))
	require.NoError(t, mem.WriteCell(ctx, ws, "A", 2, grid.String("u1")))
	require.NoError(t, mem.WriteCell(ctx, ws, "A", 1, grid.String("Blacklisted Users")))
	require.NoError(t, mem.WriteCell(ctx, ws, "B", 2, grid.Number(3)))

	want := "A1 = \"Blacklisted Users\"\n" +
		"B1 = \"Submission Max Quantity\"\n" +
		"A2 = \"u1\"\n" +
		"B2 = 3\n"
	assert.Equal(t, want, mem.Dump("config"))
	assert.Equal(t, []string{"config"}, mem.Titles())
}
