package grid

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrInvalidSheetsURL indicates a URL that does not point at a Google Sheets document.
var ErrInvalidSheetsURL = errors.New("not a valid Google Sheets URL")

// ParseSpreadsheetURL extracts the spreadsheet id from a document URL such as
// https://docs.google.com/spreadsheets/d/<id>/edit#gid=0.
func ParseSpreadsheetURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidSheetsURL, raw, err)
	}
	if u.Scheme != "https" || !strings.EqualFold(u.Hostname(), "docs.google.com") {
		return "", fmt.Errorf("%w: %s", ErrInvalidSheetsURL, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "spreadsheets" && parts[i+1] == "d" && parts[i+2] != "" {
			return parts[i+2], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidSheetsURL, raw)
}

// GoogleSheets implements Port on a Google Sheets spreadsheet through the Sheets API v4.
type GoogleSheets struct {
	svc           *sheets.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]int64 // worksheet title -> sheetId, refreshed on miss
}

// OpenGoogleSheets connects to the spreadsheet behind sheetURL.
// Authentication is configured through opts (e.g. option.WithCredentialsFile).
func OpenGoogleSheets(ctx context.Context, sheetURL string, opts ...option.ClientOption) (*GoogleSheets, error) {
	id, err := ParseSpreadsheetURL(sheetURL)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, NewIOError("open", "", "", err)
	}

	return &GoogleSheets{
		svc:           svc,
		spreadsheetID: id,
		titles:        make(map[string]int64),
	}, nil
}

// SpreadsheetID returns the id of the backing spreadsheet.
func (g *GoogleSheets) SpreadsheetID() string {
	return g.spreadsheetID
}

// ResolveWorksheet implements Port.
func (g *GoogleSheets) ResolveWorksheet(ctx context.Context, title string, create bool) (*Worksheet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Another writer may have added or removed sheets, so always reload
	if err := g.loadTitles(ctx); err != nil {
		return nil, NewIOError("resolve", title, "", err)
	}
	if id, ok := g.titles[title]; ok {
		return &Worksheet{Title: title, sheetID: id}, nil
	}
	if !create {
		return nil, nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return nil, NewIOError("resolve", title, "", err)
	}

	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	g.titles[title] = id
	return &Worksheet{Title: title, sheetID: id}, nil
}

// ReadCell implements Port.
func (g *GoogleSheets) ReadCell(ctx context.Context, ws *Worksheet, col string, row int) (Value, error) {
	cell, err := CellName(col, row)
	if err != nil {
		return Value{}, err
	}

	vr, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1Range(ws.Title, cell)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}
	if len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return Empty(), nil
	}
	return FromInterface(vr.Values[0][0]), nil
}

// WriteCell implements Port.
func (g *GoogleSheets) WriteCell(ctx context.Context, ws *Worksheet, col string, row int, v Value) error {
	cell, err := CellName(col, row)
	if err != nil {
		return err
	}

	x := v.Interface()
	if x == nil {
		x = ""
	}
	body := &sheets.ValueRange{Values: [][]interface{}{{x}}}

	_, err = g.svc.Spreadsheets.Values.Update(g.spreadsheetID, a1Range(ws.Title, cell), body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return NewIOError("write", ws.Title, cell, err)
	}
	return nil
}

// ClearWorksheet implements Port.
func (g *GoogleSheets) ClearWorksheet(ctx context.Context, ws *Worksheet) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, quoteTitle(ws.Title), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return NewIOError("clear", ws.Title, "", err)
	}
	return nil
}

// Close implements Port. The HTTP client holds no resources that need releasing.
func (g *GoogleSheets) Close() error {
	return nil
}

func (g *GoogleSheets) loadTitles(ctx context.Context) error {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return err
	}

	titles := make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		titles[sh.Properties.Title] = sh.Properties.SheetId
	}
	g.titles = titles
	return nil
}

// quoteTitle quotes a worksheet title for use in A1 notation ('It''s'!A1).
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func a1Range(title, cell string) string {
	return quoteTitle(title) + "!" + cell
}
