// Package mapping proposes and edits source-column to contact-field mappings and
// applies them to parsed rows.
package mapping

import (
	"strings"
	"unicode"

	"github.com/lead-import-api/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// rule proposes target when a normalized header satisfies match.
// Rules are evaluated in order and the first match wins.
type rule struct {
	target string
	match  func(h string) bool
}

var rules = []rule{
	{models.FieldEmail, func(h string) bool { return strings.Contains(h, "email") }},
	{models.FieldFirstName, func(h string) bool { return namePart(h, "first") }},
	{models.FieldLastName, func(h string) bool { return namePart(h, "last") }},
	{models.FieldCompanyName, func(h string) bool { return strings.Contains(h, "company") }},
	{models.FieldJobTitle, func(h string) bool {
		return strings.Contains(h, "job") || strings.Contains(h, "title") || strings.Contains(h, "position")
	}},
	{models.FieldPhone, func(h string) bool { return strings.Contains(h, "phone") }},
	{models.FieldWebsite, func(h string) bool { return strings.Contains(h, "website") }},
}

// namePart matches "<part> name" style headers, and a bare "<part>" header
func namePart(h, part string) bool {
	if !strings.Contains(h, part) {
		return false
	}
	return strings.Contains(h, "name") || strings.TrimSpace(h) == part
}

// Suggest returns the heuristic target field for a single header
func Suggest(header string) string {
	h := normalizeHeader(header)
	for _, r := range rules {
		if r.match(h) {
			return r.target
		}
	}
	return models.DoNotImport
}

// Propose returns one mapping per header, in header order
func Propose(headers []string) []models.ColumnMapping {
	out := make([]models.ColumnMapping, 0, len(headers))
	for _, h := range headers {
		out = append(out, models.ColumnMapping{SourceColumn: h, TargetField: Suggest(h)})
	}
	return out
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader folds case, compatibility forms and diacritics so that
// "Ｅｍａｉｌ" and "E-mail Addréss" compare like their ASCII spellings
func normalizeHeader(header string) string {
	folded, _, err := transform.String(stripMarks, header)
	if err != nil {
		folded = header
	}
	folded = strings.ToLower(folded)
	return strings.NewReplacer("-", "", "_", " ").Replace(folded)
}
