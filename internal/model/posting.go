package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Canonical column names.
const (
	ColOrigin            = "origin"
	ColOriginID          = "origin_id"
	ColTitle             = "title"
	ColLocation          = "location"
	ColInstitution       = "institution"
	ColDeadline          = "deadline"
	ColURL               = "url"
	ColSection           = "section"
	ColDivision          = "division"
	ColDepartment        = "department"
	ColKeywords          = "keywords"
	ColFullText          = "full_text"
	ColDateReceived      = "date_received"
	ColReviewed          = "reviewed"
	ColStatus            = "status"
	ColNotes             = "notes"
	ColUpdateNotes       = "update_notes"
	ColUpdated           = "updated"
	ColApplicationStatus = "application_status"
	ColLettersReceived   = "letters_recieved"
	ColLettersStatus     = "letters_status"
	ColOriginalDeadline  = "original_deadline"
)

// RequiredColumns must be present in every normalized batch, either from the
// source file or from a generator.
var RequiredColumns = []string{ColOriginID, ColTitle, ColLocation, ColInstitution, ColDeadline, ColURL}

// OptionalColumns default to the empty string when a source lacks them.
var OptionalColumns = []string{ColSection, ColDivision, ColDepartment, ColKeywords, ColFullText}

// WatchedFields are compared when a source re-delivers a known posting.
var WatchedFields = []string{ColURL, ColTitle, ColSection, ColDivision, ColDeadline, ColInstitution}

// SystemColumns are owned by the tracker and overwritten on ingestion.
var SystemColumns = []string{
	ColOrigin, ColDateReceived, ColReviewed, ColStatus, ColNotes, ColUpdateNotes, ColUpdated,
}

// Key identifies a posting across all sources.
type Key struct {
	Origin   string `json:"origin"`
	OriginID string `json:"origin_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Origin, k.OriginID)
}

// Posting is one row of the posting store.
type Posting struct {
	Origin   string `json:"origin"`
	OriginID string `json:"origin_id"`

	Title       string `json:"title"`
	Location    string `json:"location"`
	Institution string `json:"institution"`
	Deadline    string `json:"deadline"`
	URL         string `json:"url"`

	Section    string `json:"section"`
	Division   string `json:"division"`
	Department string `json:"department"`
	Keywords   string `json:"keywords"`
	FullText   string `json:"full_text"`

	DateReceived string `json:"date_received"`
	Reviewed     bool   `json:"reviewed"`
	Status       Status `json:"status"`
	Notes        string `json:"notes"`
	UpdateNotes  string `json:"update_notes"`
	Updated      bool   `json:"updated"`

	ApplicationStatus ApplicationStatus `json:"application_status,omitempty"`
	LettersReceived   string            `json:"letters_recieved,omitempty"`
	LettersStatus     string            `json:"letters_status,omitempty"`

	// OriginalDeadline is nil until the user first edits the deadline.
	OriginalDeadline *string `json:"original_deadline,omitempty"`

	// Extra holds renamed source columns outside the canonical schema and
	// user-defined custom columns.
	Extra map[string]string `json:"extra,omitempty"`
}

// Key returns the natural key of the posting.
func (p *Posting) Key() Key {
	return Key{Origin: p.Origin, OriginID: p.OriginID}
}

// Get returns the string value of a column and whether the posting has it.
func (p *Posting) Get(col string) (string, bool) {
	switch col {
	case ColOrigin:
		return p.Origin, true
	case ColOriginID:
		return p.OriginID, true
	case ColTitle:
		return p.Title, true
	case ColLocation:
		return p.Location, true
	case ColInstitution:
		return p.Institution, true
	case ColDeadline:
		return p.Deadline, true
	case ColURL:
		return p.URL, true
	case ColSection:
		return p.Section, true
	case ColDivision:
		return p.Division, true
	case ColDepartment:
		return p.Department, true
	case ColKeywords:
		return p.Keywords, true
	case ColFullText:
		return p.FullText, true
	case ColDateReceived:
		return p.DateReceived, true
	case ColReviewed:
		return fmt.Sprint(p.Reviewed), true
	case ColStatus:
		return string(p.Status), true
	case ColNotes:
		return p.Notes, true
	case ColUpdateNotes:
		return p.UpdateNotes, true
	case ColUpdated:
		return fmt.Sprint(p.Updated), true
	case ColApplicationStatus:
		return string(p.ApplicationStatus), true
	case ColLettersReceived:
		return p.LettersReceived, true
	case ColLettersStatus:
		return p.LettersStatus, true
	case ColOriginalDeadline:
		if p.OriginalDeadline == nil {
			return "", false
		}
		return *p.OriginalDeadline, true
	}
	v, ok := p.Extra[col]
	return v, ok
}

// Set assigns a descriptive or extra column. Workflow columns with non-string
// types are rejected so that callers go through the typed fields.
func (p *Posting) Set(col, value string) error {
	switch col {
	case ColOrigin, ColOriginID:
		return eris.Errorf("column %q is part of the posting key", col)
	case ColReviewed, ColUpdated, ColStatus, ColApplicationStatus:
		return eris.Errorf("column %q must be set through its typed field", col)
	case ColTitle:
		p.Title = value
	case ColLocation:
		p.Location = value
	case ColInstitution:
		p.Institution = value
	case ColDeadline:
		p.Deadline = value
	case ColURL:
		p.URL = value
	case ColSection:
		p.Section = value
	case ColDivision:
		p.Division = value
	case ColDepartment:
		p.Department = value
	case ColKeywords:
		p.Keywords = value
	case ColFullText:
		p.FullText = value
	case ColDateReceived:
		p.DateReceived = value
	case ColNotes:
		p.Notes = value
	case ColUpdateNotes:
		p.UpdateNotes = value
	case ColLettersReceived:
		p.LettersReceived = value
	case ColLettersStatus:
		p.LettersStatus = value
	case ColOriginalDeadline:
		v := value
		p.OriginalDeadline = &v
	default:
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		p.Extra[col] = value
	}
	return nil
}

// ExtraColumns returns the sorted names of the posting's extra columns.
func (p *Posting) ExtraColumns() []string {
	cols := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Clone returns a deep copy of the posting.
func (p Posting) Clone() Posting {
	if p.OriginalDeadline != nil {
		v := *p.OriginalDeadline
		p.OriginalDeadline = &v
	}
	if p.Extra != nil {
		extra := make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			extra[k] = v
		}
		p.Extra = extra
	}
	return p
}

// IsCanonicalColumn reports whether col belongs to the fixed posting schema.
func IsCanonicalColumn(col string) bool {
	switch col {
	case ColOrigin, ColOriginID, ColTitle, ColLocation, ColInstitution, ColDeadline,
		ColURL, ColSection, ColDivision, ColDepartment, ColKeywords, ColFullText,
		ColDateReceived, ColReviewed, ColStatus, ColNotes, ColUpdateNotes, ColUpdated,
		ColApplicationStatus, ColLettersReceived, ColLettersStatus, ColOriginalDeadline:
		return true
	}
	return false
}

// Record is one raw row from a source, keyed by column name. An absent key
// and a blank value are both treated as missing.
type Record map[string]string

// Value returns the trimmed value of col and whether it is present.
func (r Record) Value(col string) (string, bool) {
	v, ok := r[col]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

var floatID = regexp.MustCompile(`^(\d+)\.0+$`)

// NormalizeOriginID trims an origin id and drops the ".0" suffix spreadsheet
// readers add to whole numbers.
func NormalizeOriginID(id string) string {
	id = strings.TrimSpace(id)
	if m := floatID.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return id
}
