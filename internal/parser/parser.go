// Package parser turns raw delimited text into a header list and row records.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lead-import-api/internal/models"
)

// Table is the parsed form of an uploaded file
type Table struct {
	Headers  []string        `json:"headers"`
	Rows     []models.RawRow `json:"-"`
	Encoding string          `json:"encoding"`
}

// Preview returns up to n rows for display next to the mapping proposal
func (t *Table) Preview(n int) []models.RawRow {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// Parse reads delimited text with a header row. Header names are trimmed and
// blank-named columns are dropped from both the headers and the rows. Fails with
// *models.ParseError when there are no usable headers or no data rows.
func Parse(data []byte) (*Table, error) {
	decoded, encoding, err := decode(data)
	if err != nil {
		return nil, &models.ParseError{Reason: err.Error()}
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = sniffDelimiter(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.ParseError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, &models.ParseError{Reason: fmt.Sprintf("failed to read header row: %v", err)}
	}

	// Column index -> header name, blank names skipped
	columns := make(map[int]string, len(header))
	seen := make(map[string]int, len(header))
	var headers []string
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s (%d)", name, n+1)
		} else {
			seen[name] = 1
		}
		columns[i] = name
		headers = append(headers, name)
	}
	if len(headers) == 0 {
		return nil, &models.ParseError{Reason: "no column headers found"}
	}

	var rows []models.RawRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &models.ParseError{Reason: fmt.Sprintf("line %d: %v", line, err)}
		}

		row := make(models.RawRow, len(headers))
		for i, name := range columns {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &models.ParseError{Reason: "file has no data rows"}
	}

	return &Table{Headers: headers, Rows: rows, Encoding: encoding}, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the header line
func sniffDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	best, bestCount := ',', bytes.Count(first, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(first, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
