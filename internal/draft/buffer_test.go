package draft

import (
	"testing"

	"github.com/lead-import-api/internal/models"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	b.Append(models.Contact{Email: "a@b.com"}, models.Contact{Email: "c@d.com"})
	b.Append(models.Contact{Email: "e@f.com"})

	if b.Len() != 3 {
		t.Fatalf("Expected 3 leads, got %d", b.Len())
	}
	leads := b.Leads()
	if leads[0].Email != "a@b.com" || leads[2].Email != "e@f.com" {
		t.Errorf("Insertion order not kept: %+v", leads)
	}

	// Leads returns a copy
	leads[0].Email = "mutated@x.com"
	if b.Leads()[0].Email != "a@b.com" {
		t.Error("Leads must not expose internal storage")
	}

	if n := b.Remove("C@D.com"); n != 1 {
		t.Errorf("Expected 1 removed, got %d", n)
	}
	if b.Len() != 2 {
		t.Errorf("Expected 2 leads after remove, got %d", b.Len())
	}

	b.Replace([]models.Contact{{Email: "only@x.com"}})
	if b.Len() != 1 || b.Emails()[0] != "only@x.com" {
		t.Errorf("Replace failed: %+v", b.Leads())
	}

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d", b.Len())
	}
}
