package ingest

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/models"
)

// Record is the canonical lead shape, identical whatever the source format.
type Record struct {
	FirstName string
	Phone     string
	Notes     string
	Status    models.TaskStatus
	Priority  models.TaskPriority
}

// Header aliases in precedence order: an earlier key wins when both carry a value.
var (
	firstNameKeys = []string{"FirstName", "firstName", "first_name", "First Name", "name", "Name"}
	phoneKeys     = []string{"Phone", "phone", "PhoneNumber", "phoneNumber", "mobile", "Mobile"}
	notesKeys     = []string{"Notes", "notes", "Note", "note"}
	statusKeys    = []string{"Status", "status"}
	priorityKeys  = []string{"Priority", "priority"}
)

// Normalize converts decoded rows into canonical records, preserving order.
// Every row lacking a first name or phone is reported in one ErrValidation.
func Normalize(rows []RawRow) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	var invalid []string
	for i, row := range rows {
		rec := Record{
			FirstName: row.lookup(firstNameKeys),
			Phone:     row.lookup(phoneKeys),
			Notes:     row.lookup(notesKeys),
			Status:    models.NormalizeStatus(row.lookup(statusKeys)),
			Priority:  models.NormalizePriority(row.lookup(priorityKeys)),
		}
		var missing []string
		if rec.FirstName == "" {
			missing = append(missing, "firstName")
		}
		if rec.Phone == "" {
			missing = append(missing, "phone")
		}
		if len(missing) > 0 {
			invalid = append(invalid, fmt.Sprintf("row %d missing %s", i+1, strings.Join(missing, ", ")))
			continue
		}
		out = append(out, rec)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(invalid, "; "))
	}
	return out, nil
}

// lookup returns the first non-blank value among keys. Each key is tried as
// an exact header first and then against headers compared without case or
// spacing, so "FIRST NAME" still resolves for "FirstName". Headers are
// visited in sorted order to keep the result deterministic.
func (r RawRow) lookup(keys []string) string {
	var headers []string
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
		if headers == nil {
			headers = slices.Sorted(maps.Keys(r))
		}
		fk := foldKey(k)
		for _, hk := range headers {
			if hk == k || foldKey(hk) != fk {
				continue
			}
			if v := strings.TrimSpace(r[hk]); v != "" {
				return v
			}
		}
	}
	return ""
}

func foldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
