package model

import (
	"slices"
	"strings"
)

// PendingChange stages field updates for a stored posting until the user
// accepts or rejects them.
type PendingChange struct {
	Origin   string `json:"origin"`
	OriginID string `json:"origin_id"`

	// Proposed holds the "<field>_new" value for every watched field.
	Proposed map[string]string `json:"proposed"`

	// UpdateNotes lists the pending fields as "new <field>," entries.
	UpdateNotes string `json:"update_notes"`
}

// Key returns the natural key of the posting the change applies to.
func (c *PendingChange) Key() Key {
	return Key{Origin: c.Origin, OriginID: c.OriginID}
}

// Fields returns the de-duplicated pending field names in note order.
func (c *PendingChange) Fields() []string {
	return ParseUpdateNotes(c.UpdateNotes)
}

// SetFields recomputes UpdateNotes from the given field names.
func (c *PendingChange) SetFields(fields []string) {
	c.UpdateNotes = FormatUpdateNotes(fields)
}

// NewValue returns the proposed value for field.
func (c *PendingChange) NewValue(field string) string {
	return c.Proposed[field]
}

// ParseUpdateNotes splits a "new a,new b," list into unique field names.
func ParseUpdateNotes(notes string) []string {
	var fields []string
	for _, part := range strings.Split(notes, ",") {
		f := strings.TrimSpace(part)
		f = strings.TrimSpace(strings.TrimPrefix(f, "new "))
		if f == "" || slices.Contains(fields, f) {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// FormatUpdateNotes renders field names as "new a,new b,".
func FormatUpdateNotes(fields []string) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString("new ")
		b.WriteString(f)
		b.WriteString(",")
	}
	return b.String()
}
