package draft

import (
	"errors"
	"testing"
	"time"

	"github.com/lead-import-api/internal/models"
	"github.com/lead-import-api/internal/pipeline"
	"github.com/lead-import-api/internal/validation"
)

func newTestSession() *Session {
	return newSession("draft-1", time.Now())
}

func TestSession_FileFlow(t *testing.T) {
	s := newTestSession()

	if err := s.LoadFile("leads.csv", []byte("Mail,First Name,Industry\na@b.com,Jane,SaaS\nA@B.com,Dup,SaaS\n"), pipeline.ResumeMachine); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if s.Snapshot().State != pipeline.StateMapping {
		t.Fatalf("Expected mapping state, got %s", s.Snapshot().State)
	}

	// "Mail" is not recognized; processing must fail recoverably
	_, err := s.ProcessFile()
	var me *models.MappingError
	if !errors.As(err, &me) || me.Reason != models.ReasonNoEmailMapped {
		t.Fatalf("Expected no-email MappingError, got %v", err)
	}
	if s.Snapshot().State != pipeline.StateMapping {
		t.Errorf("Attempt should stay in mapping, got %s", s.Snapshot().State)
	}

	if err := s.OverrideMapping("Mail", models.FieldEmail); err != nil {
		t.Fatalf("OverrideMapping failed: %v", err)
	}
	if err := s.DeclareCustomField("industry"); err != nil {
		t.Fatalf("DeclareCustomField failed: %v", err)
	}
	if err := s.OverrideMapping("Industry", "industry"); err != nil {
		t.Fatalf("OverrideMapping failed: %v", err)
	}

	result, err := s.ProcessFile()
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if result.Total != 2 || result.Added != 1 || len(result.Rejected) != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.Rejected[0].Line != 2 || result.Rejected[0].Message != validation.MsgDuplicateInBatch {
		t.Errorf("Unexpected rejection: %+v", result.Rejected[0])
	}

	lead := s.Buffer.Leads()[0]
	if lead.Email != "a@b.com" || lead.FirstName != "Jane" || lead.CustomFields["industry"] != "SaaS" {
		t.Errorf("Unexpected lead: %+v", lead)
	}

	// The processed attempt no longer accepts mapping edits
	if err := s.OverrideMapping("Mail", models.DoNotImport); !errors.Is(err, ErrNoFile) {
		t.Errorf("Expected ErrNoFile, got %v", err)
	}
}

func TestSession_AddMoreAppendsAndChecksExisting(t *testing.T) {
	s := newTestSession()

	s.LoadFile("one.csv", []byte("email\na@b.com\n"), pipeline.ResumeMachine)
	if _, err := s.ProcessFile(); err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if err := s.LoadFile("two.csv", []byte("email\nA@b.com\nc@d.com\n"), pipeline.ResumeMachine); err != nil {
		t.Fatalf("Second LoadFile failed: %v", err)
	}
	result, err := s.ProcessFile()
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if result.Added != 1 || result.LeadCount != 2 {
		t.Errorf("Expected 1 added and 2 total, got %+v", result)
	}
	if result.Rejected[0].Message != validation.MsgDuplicateExisting {
		t.Errorf("Expected existing-duplicate rejection, got %q", result.Rejected[0].Message)
	}
}

func TestSession_ReuploadWhileMapping(t *testing.T) {
	s := newTestSession()
	s.LoadFile("one.csv", []byte("Name\nJane\n"), pipeline.ResumeMachine)
	machine := s.Attempt.Machine

	if err := s.LoadFile("two.csv", []byte("email\na@b.com\n"), pipeline.ResumeMachine); err != nil {
		t.Fatalf("Re-upload failed: %v", err)
	}
	if s.Attempt.Machine != machine {
		t.Error("Re-upload during mapping should continue the same attempt")
	}
	history := machine.History()
	if history[len(history)-2] != pipeline.StateParsing {
		t.Errorf("Expected mapping -> parsing back-edge, got %v", history)
	}
}

func TestSession_BadFile(t *testing.T) {
	s := newTestSession()
	err := s.LoadFile("empty.csv", []byte(""), pipeline.ResumeMachine)
	if !models.IsParseError(err) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if s.Snapshot().State != pipeline.StateFailed {
		t.Errorf("Expected failed state, got %s", s.Snapshot().State)
	}
	if _, err := s.ProcessFile(); !errors.Is(err, ErrNoFile) {
		t.Errorf("Expected ErrNoFile, got %v", err)
	}
}

func TestSession_ManualAndReplace(t *testing.T) {
	s := newTestSession()

	if verr, _ := s.AddManual(models.Contact{Email: "Jane@Example.com", FirstName: "Jane"}); verr != nil {
		t.Fatalf("AddManual rejected valid contact: %+v", verr)
	}
	verr, _ := s.AddManual(models.Contact{Email: "jane@example.com"})
	if verr == nil || verr.Message != validation.MsgDuplicateExisting {
		t.Errorf("Expected existing-duplicate rejection, got %+v", verr)
	}
	verr, _ = s.AddManual(models.Contact{Email: "nope"})
	if verr == nil || verr.Message != validation.MsgInvalidEmail {
		t.Errorf("Expected invalid email rejection, got %+v", verr)
	}

	rejected := s.ReplaceLeads([]models.Contact{{Email: "x@y.com"}, {Email: "X@Y.com"}, {Email: "z@y.com"}})
	if len(rejected) != 1 || s.Buffer.Len() != 2 {
		t.Errorf("Replace: expected 2 leads and 1 rejection, got %d and %d", s.Buffer.Len(), len(rejected))
	}
}
