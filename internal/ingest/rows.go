package ingest

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/xuri/excelize/v2"

	"github.com/leadflow/backend/internal/apperr"
)

// RawRow is one decoded input row: header key to cell value. Absent cells
// are absent keys; it never leaves this package.
type RawRow map[string]string

//go:embed rows.schema.json
var rowsSchemaSource string

var rowsSchema = jsonschema.MustCompileString("https://leadflow.dev/schemas/upload-rows.json", rowsSchemaSource)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeRows(kind Kind, data []byte) ([]RawRow, error) {
	switch kind {
	case KindCSV:
		return csvRows(data)
	case KindXLSX:
		return xlsxRows(data)
	case KindJSON:
		return jsonRows(data)
	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedFormat, kind)
	}
}

func csvRows(data []byte) ([]RawRow, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var table [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", apperr.ErrValidation, err)
		}
		table = append(table, rec)
	}
	return tableRows(table), nil
}

func xlsxRows(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", apperr.ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx sheet %q: %v", apperr.ErrValidation, sheets[0], err)
	}
	return tableRows(table), nil
}

// tableRows treats the first row as the header. Rows with no non-blank
// cell are skipped, as are cells under a blank header.
func tableRows(table [][]string) []RawRow {
	if len(table) == 0 {
		return nil
	}
	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
	}
	rows := make([]RawRow, 0, len(table)-1)
	for _, rec := range table[1:] {
		row := RawRow{}
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			// repeated headers: first non-blank cell wins
			if strings.TrimSpace(row[header[i]]) != "" {
				continue
			}
			row[header[i]] = cell
		}
		if row.blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func jsonRows(data []byte) ([]RawRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: json: %v", apperr.ErrValidation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: json: unexpected data after top-level array", apperr.ErrValidation)
	}
	if err := rowsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: json: %v", apperr.ErrValidation, err)
	}

	items, _ := doc.([]any)
	rows := make([]RawRow, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		row := RawRow{}
		for k, v := range obj {
			if s, ok := scalarString(v); ok {
				row[k] = s
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// scalarString renders JSON scalars; null and nested values are dropped.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func (r RawRow) blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
