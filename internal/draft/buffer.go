// Package draft holds campaign wizard sessions and their in-memory lead lists.
package draft

import (
	"github.com/lead-import-api/internal/models"
)

// Buffer is the ordered lead list of one campaign draft. It is append-only
// apart from explicit remove, replace and clear operations.
type Buffer struct {
	leads []models.Contact
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds contacts to the end of the list
func (b *Buffer) Append(contacts ...models.Contact) {
	b.leads = append(b.leads, contacts...)
}

// Remove drops every lead whose email matches, ignoring case. Returns the number removed.
func (b *Buffer) Remove(email string) int {
	key := models.NormalizeEmail(email)
	kept := b.leads[:0]
	removed := 0
	for _, c := range b.leads {
		if c.Key() == key {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	b.leads = kept
	return removed
}

// Replace swaps the whole list, as when a saved list is loaded
func (b *Buffer) Replace(contacts []models.Contact) {
	b.leads = append([]models.Contact(nil), contacts...)
}

// Clear empties the list
func (b *Buffer) Clear() {
	b.leads = nil
}

// Leads returns a copy of the list in insertion order
func (b *Buffer) Leads() []models.Contact {
	out := make([]models.Contact, len(b.leads))
	copy(out, b.leads)
	return out
}

// Len returns the number of leads
func (b *Buffer) Len() int {
	return len(b.leads)
}

// Emails returns the lead emails, used as the existing set when validating more rows
func (b *Buffer) Emails() []string {
	out := make([]string, 0, len(b.leads))
	for _, c := range b.leads {
		out = append(out, c.Email)
	}
	return out
}
