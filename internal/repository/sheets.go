package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsBackend keeps every table in one tab of a Google spreadsheet.
// Row 1 of each tab is the header.
type SheetsBackend struct {
	srv           *sheets.Service
	spreadsheetID string
}

func NewSheetsBackend(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*SheetsBackend, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsBackend{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (b *SheetsBackend) EnsureTable(ctx context.Context, s Schema) error {
	spreadsheet, err := b.srv.Spreadsheets.Get(b.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}

	exists := false
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.Title {
			exists = true
			break
		}
	}

	if !exists {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: s.Title,
						GridProperties: &sheets.GridProperties{
							RowCount:    1000,
							ColumnCount: 20,
						},
					},
				},
			}},
		}
		if _, err := b.srv.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %s: %w", s.Title, err)
		}
	}

	header := make([]interface{}, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c
	}
	_, err = b.srv.Spreadsheets.Values.
		Update(b.spreadsheetID, rowRange(s, 1), &sheets.ValueRange{Values: [][]interface{}{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", s.Title, err)
	}
	return nil
}

func (b *SheetsBackend) Read(ctx context.Context, s Schema) ([][]string, error) {
	// Unformatted so a display format such as "1,500" never reaches the
	// decimal parser. Dates typed by hand still come back as text.
	resp, err := b.srv.Spreadsheets.Values.Get(b.spreadsheetID, fullRange(s)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Title, err)
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

func (b *SheetsBackend) Update(ctx context.Context, s Schema, index int, values []string) error {
	_, err := b.srv.Spreadsheets.Values.
		Update(b.spreadsheetID, rowRange(s, index+2), &sheets.ValueRange{Values: [][]interface{}{toCells(values)}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s row %d: %w", s.Title, index, err)
	}
	return nil
}

func (b *SheetsBackend) Append(ctx context.Context, s Schema, values []string) error {
	_, err := b.srv.Spreadsheets.Values.
		Append(b.spreadsheetID, fullRange(s), &sheets.ValueRange{Values: [][]interface{}{toCells(values)}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", s.Title, err)
	}
	return nil
}

func (b *SheetsBackend) Close() error { return nil }

// cellString renders an unformatted cell. Numbers arrive as float64 and are
// written out in plain notation.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(v)
	}
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// fullRange is e.g. 'eventos'!A:L.
func fullRange(s Schema) string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(s.Title), columnLetter(len(s.Columns)))
}

// rowRange addresses one sheet row (1-based), e.g. 'eventos'!A3:L3.
func rowRange(s Schema, row int) string {
	last := columnLetter(len(s.Columns))
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(s.Title), row, last, row)
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// columnLetter converts a 1-based column number to A1 letters (1=A, 27=AA).
func columnLetter(n int) string {
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}
