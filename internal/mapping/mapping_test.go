package mapping

import (
	"testing"

	"github.com/lead-import-api/internal/models"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Email", models.FieldEmail},
		{"Work EMAIL Address", models.FieldEmail},
		{"E-mail", models.FieldEmail},
		{"ｅｍａｉｌ", models.FieldEmail},
		{"First Name", models.FieldFirstName},
		{"first_name", models.FieldFirstName},
		{"First", models.FieldFirstName},
		{"Last Name", models.FieldLastName},
		{"Last", models.FieldLastName},
		{"Last Contacted", models.DoNotImport},
		{"Company", models.FieldCompanyName},
		{"Company Name", models.FieldCompanyName},
		{"Job Title", models.FieldJobTitle},
		{"Title", models.FieldJobTitle},
		{"Position", models.FieldJobTitle},
		{"Phone Number", models.FieldPhone},
		{"Website", models.FieldWebsite},
		{"Co", models.DoNotImport},
		{"Notes", models.DoNotImport},
		// email rule wins over later rules
		{"Company Email", models.FieldEmail},
		// company rule wins over job title rule
		{"Company Title", models.FieldCompanyName},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Suggest(tt.header); got != tt.want {
				t.Errorf("Suggest(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestPropose_EmailColumnAlwaysMapped(t *testing.T) {
	headerSets := [][]string{
		{"email"},
		{"Name", "EMAIL"},
		{"Primary Email", "Secondary Email", "Phone"},
		{"x", "y", "contact_email_address"},
	}

	for _, headers := range headerSets {
		for _, m := range Propose(headers) {
			if normalizeHeader(m.SourceColumn) != "" && Suggest(m.SourceColumn) != m.TargetField {
				t.Errorf("Propose disagrees with Suggest for %q", m.SourceColumn)
			}
			if containsFold(m.SourceColumn, "email") && m.TargetField != models.FieldEmail {
				t.Errorf("Column %q should map to email, got %q", m.SourceColumn, m.TargetField)
			}
		}
	}
}

func TestPropose_Scenario(t *testing.T) {
	got := Propose([]string{"Email", "First", "Last", "Co"})
	want := []models.ColumnMapping{
		{SourceColumn: "Email", TargetField: models.FieldEmail},
		{SourceColumn: "First", TargetField: models.FieldFirstName},
		{SourceColumn: "Last", TargetField: models.FieldLastName},
		{SourceColumn: "Co", TargetField: models.DoNotImport},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d mappings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Mapping %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSet_Override(t *testing.T) {
	s := NewSet([]string{"Email", "Co", "Notes"})

	if err := s.Override("Co", models.FieldCompanyName); err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	m, _ := s.Get("Co")
	if m.TargetField != models.FieldCompanyName || m.IsCustom {
		t.Errorf("Expected companyName, got %+v", m)
	}

	if err := s.Override("Email", models.DoNotImport); err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	if s.HasEmail() {
		t.Error("HasEmail should be false after unmapping the email column")
	}

	// Proposals are not recomputed after an override
	if m, _ := s.Get("Co"); m.TargetField != models.FieldCompanyName {
		t.Errorf("Override lost: %+v", m)
	}

	err := s.Override("Missing", models.FieldPhone)
	if !models.IsMappingError(err) {
		t.Errorf("Expected MappingError for unknown column, got %v", err)
	}
	err = s.Override("Notes", "notes")
	if !models.IsMappingError(err) {
		t.Errorf("Expected MappingError for undeclared target, got %v", err)
	}
}

func TestSet_CustomFields(t *testing.T) {
	s := NewSet([]string{"Email", "Notes"})

	if err := s.DeclareCustomField("notes"); err != nil {
		t.Fatalf("DeclareCustomField failed: %v", err)
	}

	err := s.DeclareCustomField("notes")
	var me *models.MappingError
	if !asMappingError(err, &me) || me.Reason != models.ReasonDuplicateCustomField {
		t.Fatalf("Expected duplicate custom field error, got %v", err)
	}

	// Case-sensitive comparison
	if err := s.DeclareCustomField("Notes"); err != nil {
		t.Errorf("Differently cased name should be allowed: %v", err)
	}

	// Custom field may shadow a canonical field name
	if err := s.DeclareCustomField(models.FieldPhone); err != nil {
		t.Errorf("Shadowing a canonical name should be allowed: %v", err)
	}

	if err := s.DeclareCustomField("   "); !models.IsMappingError(err) {
		t.Errorf("Expected error for blank name, got %v", err)
	}

	if err := s.Override("Notes", "notes"); err != nil {
		t.Fatalf("Override to custom field failed: %v", err)
	}
	m, _ := s.Get("Notes")
	if !m.IsCustom || m.TargetField != "notes" {
		t.Errorf("Expected custom mapping, got %+v", m)
	}

	if got := s.CustomFields(); len(got) != 3 {
		t.Errorf("Expected 3 custom fields, got %v", got)
	}
}

func TestSet_Apply(t *testing.T) {
	s := NewSet([]string{"Mail", "Industry"})
	err := s.Apply(&models.MappingInstructions{
		CustomFields: []string{"industry"},
		Overrides: []models.ColumnMapping{
			{SourceColumn: "Mail", TargetField: models.FieldEmail},
			{SourceColumn: "Industry", TargetField: "industry"},
		},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !s.HasEmail() {
		t.Error("Expected email mapping after Apply")
	}
	if m, _ := s.Get("Industry"); !m.IsCustom {
		t.Errorf("Expected custom mapping, got %+v", m)
	}

	if err := s.Apply(nil); err != nil {
		t.Errorf("Apply(nil) should be a no-op, got %v", err)
	}
}

func TestCanonicalColumnMapping(t *testing.T) {
	got := CanonicalColumnMapping([]models.ColumnMapping{
		{SourceColumn: "E", TargetField: models.FieldEmail},
		{SourceColumn: "N", TargetField: "notes", IsCustom: true},
		{SourceColumn: "X", TargetField: models.DoNotImport},
		{SourceColumn: "F", TargetField: models.FieldFirstName},
	})
	if len(got) != 2 || got[models.FieldEmail] != models.FieldEmail || got[models.FieldFirstName] != models.FieldFirstName {
		t.Errorf("Unexpected canonical mapping: %v", got)
	}
}
