// Package normalize maps a loaded source table onto the posting schema.
package normalize

import (
	"fmt"
	"time"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/source"
)

// MissingColumnError reports a required column that is neither in the file
// nor produced by a generator.
type MissingColumnError struct {
	Origin string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("The file for %s is missing required column %s and no generator is configured for it. "+
		"The file is likely corrupted or of the wrong kind.", e.Origin, e.Column)
}

// Normalize converts table rows into new postings for cfg.Origin. existing
// is the current posting table (nil before the first run) and is only passed
// to generators. System columns are stamped regardless of the file content.
func Normalize(table source.Table, cfg source.Config, existing []model.Posting, today time.Time) ([]model.Posting, error) {
	generate := make(map[string]source.Generator)
	for _, col := range model.RequiredColumns {
		if table.HasColumn(col) {
			continue
		}
		gen, ok := cfg.Generators[col]
		if !ok {
			return nil, &MissingColumnError{Origin: cfg.Origin, Column: col}
		}
		generate[col] = gen
	}
	for _, col := range model.OptionalColumns {
		if table.HasColumn(col) {
			continue
		}
		if gen, ok := cfg.Generators[col]; ok {
			generate[col] = gen
		}
	}

	received := today.Format(model.DateLayout)
	postings := make([]model.Posting, 0, len(table.Records))
	for _, rec := range table.Records {
		values := make(map[string]string, len(rec)+len(generate))
		for col, v := range rec {
			values[col] = v
		}
		for col, gen := range generate {
			values[col] = gen(rec, existing)
		}

		p := model.Posting{
			Origin:       cfg.Origin,
			OriginID:     model.NormalizeOriginID(values[model.ColOriginID]),
			DateReceived: received,
			Status:       model.StatusNew,
		}
		for col, v := range values {
			if isProtected(col) {
				continue
			}
			// Set only rejects key and typed workflow columns, all protected above.
			_ = p.Set(col, v)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// Columns returns the inspection order of a normalized batch: required, then
// optional, then any extra columns in the table's order.
func Columns(table source.Table) []string {
	cols := append(append([]string{}, model.RequiredColumns...), model.OptionalColumns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, c := range table.Columns {
		if !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	return cols
}

func isProtected(col string) bool {
	switch col {
	case model.ColOrigin, model.ColOriginID, model.ColDateReceived, model.ColReviewed,
		model.ColStatus, model.ColNotes, model.ColUpdateNotes, model.ColUpdated,
		model.ColApplicationStatus, model.ColLettersReceived, model.ColLettersStatus,
		model.ColOriginalDeadline:
		return true
	}
	return false
}
