package mapping

import (
	"strings"

	"github.com/lead-import-api/internal/models"
)

// Set is the editable mapping for one parsed file, keyed by source column.
// Proposals are computed once in NewSet; Override and DeclareCustomField edit
// individual entries and never re-run the heuristics.
type Set struct {
	columns  []string
	byColumn map[string]*models.ColumnMapping
	custom   []string
}

// NewSet proposes a mapping for each header
func NewSet(headers []string) *Set {
	s := &Set{
		columns:  make([]string, 0, len(headers)),
		byColumn: make(map[string]*models.ColumnMapping, len(headers)),
	}
	for _, m := range Propose(headers) {
		m := m
		s.columns = append(s.columns, m.SourceColumn)
		s.byColumn[m.SourceColumn] = &m
	}
	return s
}

// DeclareCustomField registers a user-defined field name. Names are compared
// case-sensitively against earlier declarations only.
func (s *Set) DeclareCustomField(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &models.MappingError{Reason: models.ReasonEmptyCustomField}
	}
	for _, existing := range s.custom {
		if existing == name {
			return &models.MappingError{Reason: models.ReasonDuplicateCustomField, Field: name}
		}
	}
	s.custom = append(s.custom, name)
	return nil
}

// CustomFields returns the declared custom field names in declaration order
func (s *Set) CustomFields() []string {
	out := make([]string, len(s.custom))
	copy(out, s.custom)
	return out
}

func (s *Set) isCustom(name string) bool {
	for _, c := range s.custom {
		if c == name {
			return true
		}
	}
	return false
}

// Override re-targets one source column. A declared custom field takes
// precedence over a canonical field of the same name.
func (s *Set) Override(column, target string) error {
	m, ok := s.byColumn[column]
	if !ok {
		return &models.MappingError{Reason: models.ReasonUnknownColumn, Field: column}
	}

	switch {
	case s.isCustom(target):
		m.TargetField, m.IsCustom = target, true
	case target == models.DoNotImport || models.IsCanonicalField(target):
		m.TargetField, m.IsCustom = target, false
	default:
		return &models.MappingError{Reason: models.ReasonUnknownTarget, Field: target}
	}
	return nil
}

// Apply replays caller edits: custom field declarations first, then overrides
func (s *Set) Apply(in *models.MappingInstructions) error {
	if in == nil {
		return nil
	}
	for _, name := range in.CustomFields {
		if err := s.DeclareCustomField(name); err != nil {
			return err
		}
	}
	for _, o := range in.Overrides {
		if err := s.Override(o.SourceColumn, o.TargetField); err != nil {
			return err
		}
	}
	return nil
}

// Mappings returns a copy of the mappings in source column order
func (s *Set) Mappings() []models.ColumnMapping {
	out := make([]models.ColumnMapping, 0, len(s.columns))
	for _, c := range s.columns {
		out = append(out, *s.byColumn[c])
	}
	return out
}

// Get returns the mapping for a source column
func (s *Set) Get(column string) (models.ColumnMapping, bool) {
	m, ok := s.byColumn[column]
	if !ok {
		return models.ColumnMapping{}, false
	}
	return *m, true
}

// HasEmail reports whether any column is mapped to the canonical email field
func (s *Set) HasEmail() bool {
	return HasEmail(s.Mappings())
}

// HasEmail reports whether any mapping targets the canonical email field
func HasEmail(mappings []models.ColumnMapping) bool {
	for _, m := range mappings {
		if !m.IsCustom && m.TargetField == models.FieldEmail {
			return true
		}
	}
	return false
}

// CanonicalColumnMapping is the {canonical: canonical} summary sent with a bulk import
func CanonicalColumnMapping(mappings []models.ColumnMapping) map[string]string {
	out := make(map[string]string)
	for _, m := range mappings {
		if m.IsCustom || m.TargetField == models.DoNotImport {
			continue
		}
		out[m.TargetField] = m.TargetField
	}
	return out
}
