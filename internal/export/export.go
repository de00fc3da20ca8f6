// Package export writes snapshots of posting views to spreadsheets.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/fetcher"
	"github.com/sells-group/jmtracker/internal/model"
)

// DefaultColumns are exported when the caller does not pick columns.
var DefaultColumns = []string{
	model.ColOrigin, model.ColOriginID, model.ColStatus, model.ColInstitution,
	model.ColTitle, model.ColDepartment, model.ColLocation, model.ColDeadline,
	model.ColURL, model.ColApplicationStatus, model.ColLettersStatus, model.ColNotes,
}

// FileName returns the snapshot name for a view taken on day.
func FileName(view string, day time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", view, day.Format(model.DateLayout))
}

// WriteXLSX writes postings to path as a single sheet named after the view.
// Custom columns are appended after columns.
func WriteXLSX(path, view string, postings []model.Posting, columns, custom []string) error {
	if len(postings) == 0 {
		return eris.New("export: nothing to export")
	}
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	header := append(append([]string{}, columns...), custom...)

	rows := make([][]string, 0, len(postings))
	for i := range postings {
		row := make([]string, len(header))
		for j, col := range header {
			row[j], _ = postings[i].Get(col)
		}
		rows = append(rows, row)
	}

	if err := fetcher.WriteXLSX(path, view, header, rows); err != nil {
		return eris.Wrapf(err, "export: write %s", filepath.Base(path))
	}
	zap.L().Info("exported postings", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}
