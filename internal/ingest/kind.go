package ingest

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/leadflow/backend/internal/apperr"
)

// Kind is the decoded shape of an uploaded file.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
	KindJSON Kind = "json"
)

const (
	MIMECSV       = "text/csv"
	MIMELegacyXLS = "application/vnd.ms-excel"
	MIMEXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEJSON      = "application/json"
)

// AllowedMIMETypes lists the declared content types an upload may carry.
var AllowedMIMETypes = []string{MIMECSV, MIMELegacyXLS, MIMEXLSX, MIMEJSON}

var kindByMIME = map[string]Kind{
	MIMECSV:       KindCSV,
	MIMELegacyXLS: KindCSV,
	MIMEXLSX:      KindXLSX,
	MIMEJSON:      KindJSON,
}

var kindByExt = map[string]Kind{
	".csv":  KindCSV,
	".xls":  KindCSV,
	".xlsx": KindXLSX,
	".json": KindJSON,
}

// DetectKind resolves the declared content type (falling back to the file
// extension when the client sent none or a generic one) and sniffs head to
// reject binary legacy workbooks, which browsers label like CSV files.
func DetectKind(contentType, filename string, head []byte) (Kind, error) {
	declared := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			declared = strings.ToLower(mt)
		}
	}

	kind, ok := kindByMIME[declared]
	if !ok {
		if declared != "" && declared != "application/octet-stream" {
			return "", fmt.Errorf("%w: %q", apperr.ErrUnsupportedFormat, declared)
		}
		kind, ok = kindByExt[strings.ToLower(filepath.Ext(filename))]
		if !ok {
			return "", fmt.Errorf("%w: %q", apperr.ErrUnsupportedFormat, filename)
		}
	}

	if kind == KindCSV && len(head) > 0 && isBinaryWorkbook(head) {
		return "", fmt.Errorf("%w: binary .xls workbooks are not supported, save as .xlsx or .csv", apperr.ErrUnsupportedFormat)
	}
	return kind, nil
}

func isBinaryWorkbook(head []byte) bool {
	mt := mimetype.Detect(head)
	return mt.Is("application/x-ole-storage") || mt.Is(MIMELegacyXLS)
}
