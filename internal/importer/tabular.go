package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Request-level parse failures. These abort the whole call; per-row
// problems never do.
var (
	ErrEmptyFile = errors.New("empty file")
	ErrNoHeader  = errors.New("no data rows after header")
)

// ParseTable parses a tabular upload (header row first) into RawRows.
// Row numbers are 1-indexed counting the header, so the first data row
// reports as row 2, matching what the uploader sees in a spreadsheet.
func ParseTable(data []byte) ([]RawRow, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse tabular file: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	if len(records) < 2 {
		return nil, ErrNoHeader
	}

	header := records[0]
	rows := make([]RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, NewRawRow(header, record, i+2))
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement
// rune. Exports from legacy spreadsheet tools are routinely latin-1.
func sanitizeUTF8(data []byte) []byte {
	// Strip a UTF-8 BOM if present; Excel loves to add one.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
