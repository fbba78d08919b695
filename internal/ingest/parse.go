// Package ingest turns uploaded CSV, spreadsheet and JSON files into
// canonical lead records.
//
// Parsing is a single pass over a fully buffered file: nothing is handed to
// distribution until every row has been decoded and validated, so a bad row
// late in the file can never leave a partially imported batch behind.
package ingest

// Parse decodes data as kind and normalizes every row. An input with no
// data rows yields an empty, non-nil slice.
func Parse(kind Kind, data []byte) ([]Record, error) {
	rows, err := decodeRows(kind, data)
	if err != nil {
		return nil, err
	}
	return Normalize(rows)
}
