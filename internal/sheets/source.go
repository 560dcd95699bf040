package sheets

import (
	"context"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/lavka-group/shop-assistant/internal/model"
)

// Source exposes the two read modes the answer pipeline needs: a sheet as a
// flat text blob, or a sheet as header-keyed records.
type Source struct {
	client *Client
}

// NewSource creates a Source over the given workbook client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// FetchText returns the named sheet as one normalized string: non-empty
// cells space-joined within a row, non-empty rows newline-joined.
func (s *Source) FetchText(ctx context.Context, docID, sheetName string) (string, error) {
	f, err := s.client.Workbook(ctx, docID)
	if err != nil {
		return "", err
	}
	sheet, err := sheetByName(f, sheetName)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, row := range sheet.Rows {
		cells := nonEmptyCells(row)
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n"), nil
}

// FetchRecords returns the named sheet as one record per data row, keyed by
// the header row's column names. Rows with no content are dropped.
func (s *Source) FetchRecords(ctx context.Context, docID, sheetName string) ([]model.CatalogRecord, error) {
	f, err := s.client.Workbook(ctx, docID)
	if err != nil {
		return nil, err
	}
	sheet, err := sheetByName(f, sheetName)
	if err != nil {
		return nil, err
	}

	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowValues(sheet.Rows[0])

	var records []model.CatalogRecord
	for _, row := range sheet.Rows[1:] {
		values := rowValues(row)

		rec := make(model.CatalogRecord, len(header))
		empty := true
		for i, col := range header {
			if col == "" {
				continue
			}
			var v string
			if i < len(values) {
				v = values[i]
			}
			rec[col] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func rowValues(row *xlsx.Row) []string {
	values := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		values[i] = strings.TrimSpace(cell.String())
	}
	return values
}

func nonEmptyCells(row *xlsx.Row) []string {
	var out []string
	for _, cell := range row.Cells {
		if v := strings.TrimSpace(cell.String()); v != "" {
			out = append(out, v)
		}
	}
	return out
}
