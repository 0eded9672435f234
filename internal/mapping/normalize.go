package mapping

import (
	"strings"

	"github.com/lead-import-api/internal/models"
)

// Normalize applies mappings to every row and returns one candidate contact per
// row, in row order. Values are trimmed; empty values never overwrite a field
// already filled by an earlier column. Email is not validated here.
func Normalize(mappings []models.ColumnMapping, rows []models.RawRow) ([]models.Contact, error) {
	if !HasEmail(mappings) {
		return nil, &models.MappingError{Reason: models.ReasonNoEmailMapped}
	}

	out := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		var c models.Contact
		for _, m := range mappings {
			if m.TargetField == models.DoNotImport {
				continue
			}
			value := strings.TrimSpace(row[m.SourceColumn])
			if value == "" {
				continue
			}
			if m.IsCustom {
				if c.CustomFields == nil {
					c.CustomFields = make(map[string]string)
				}
				if _, set := c.CustomFields[m.TargetField]; !set {
					c.CustomFields[m.TargetField] = value
				}
				continue
			}
			if c.Field(m.TargetField) == "" {
				c.SetField(m.TargetField, value)
			}
		}
		out = append(out, c)
	}
	return out, nil
}
