package source

import (
	"regexp"
	"strings"

	"github.com/sells-group/jmtracker/internal/model"
)

// LocationFromParts joins the non-blank values of cols with ", ".
func LocationFromParts(cols ...string) Generator {
	return func(rec model.Record, _ []model.Posting) string {
		var parts []string
		for _, col := range cols {
			if v, ok := rec.Value(col); ok {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	}
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// URLTemplate fills {column} placeholders from the record. {origin_id} is
// normalized the same way stored ids are.
func URLTemplate(tmpl string) Generator {
	return func(rec model.Record, _ []model.Posting) string {
		return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
			col := m[1 : len(m)-1]
			v, _ := rec.Value(col)
			if col == model.ColOriginID {
				v = model.NormalizeOriginID(v)
			}
			return v
		})
	}
}

// Const always yields v.
func Const(v string) Generator {
	return func(model.Record, []model.Posting) string { return v }
}
