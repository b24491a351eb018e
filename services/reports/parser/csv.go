package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

// utf-8 byte order mark, expected by the spreadsheet tools the output
// is opened with
var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteTable writes a BOM-prefixed, comma-delimited CSV with the given
// column order. Cells absent from a row are rendered empty.
func WriteTable(w io.Writer, columns []string, rows []map[string]string) error {
	buffered := bufio.NewWriter(w)
	if _, err := buffered.Write(bom); err != nil {
		return err
	}

	out := csv.NewWriter(buffered)
	if err := out.Write(columns); err != nil {
		return err
	}

	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			cells[i] = row[col]
		}
		if err := out.Write(cells); err != nil {
			return err
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return err
	}
	return buffered.Flush()
}

// ReadTable reads a CSV written by WriteTable (or any CSV with a header
// row), tolerating a leading BOM.
func ReadTable(r io.Reader) ([]string, []map[string]string, error) {
	buffered := bufio.NewReader(r)
	head, err := buffered.Peek(len(bom))
	if err == nil && string(head) == string(bom) {
		buffered.Discard(len(bom))
	}

	in := csv.NewReader(buffered)
	in.FieldsPerRecord = -1

	records, err := in.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	columns := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
