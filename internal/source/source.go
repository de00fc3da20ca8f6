// Package source describes the job-board exports the tracker ingests and
// turns a raw file into a table of renamed records.
package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
)

// Table is a loaded source file: the column names in file order and one
// record per data row.
type Table struct {
	Columns []string
	Records []model.Record
}

// NewTable builds a Table from a header and positional rows.
func NewTable(header []string, rows [][]string) Table {
	t := Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = trimHeader(h)
	}
	for _, row := range rows {
		rec := make(model.Record, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

// HasColumn reports whether the table carries col.
func (t Table) HasColumn(col string) bool {
	return slices.Contains(t.Columns, col)
}

// Loader reads a file into a Table.
type Loader func(ctx context.Context, path string) (Table, error)

// PathValidator checks the user supplied path before anything is read.
type PathValidator func(path string) (ok bool, message string)

// TableValidator checks a loaded table before renaming.
type TableValidator func(t Table) (ok bool, message string)

// Generator derives a column value for a record that lacks it. existing is
// the current posting table, or nil before the first ingestion.
type Generator func(rec model.Record, existing []model.Posting) string

// Config is the static description of one source.
type Config struct {
	Origin string

	DownloadURL          string
	ExpectedExtension    string
	InputFileName        string
	DownloadInstructions string

	Loader        Loader
	PathValidator PathValidator
	Validator     TableValidator

	// RenamingRules maps source column names to tracker column names.
	RenamingRules map[string]string

	// Generators are keyed by the column they produce.
	Generators map[string]Generator
}

// ValidationError is returned when a file fails a configured check. It
// carries the message shown to the user.
type ValidationError struct {
	Origin  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Load validates, stages and loads the file at path for cfg, then applies
// the renaming rules and drops columns the tracker does not keep. When
// cfg.InputFileName is set the file is first copied into inputDir under that
// name; an empty path loads the staged copy directly.
func Load(ctx context.Context, cfg Config, path, inputDir string) (Table, error) {
	log := zap.L().With(zap.String("origin", cfg.Origin))

	if cfg.Loader == nil {
		return Table{}, eris.Errorf("source %s: no loader configured", cfg.Origin)
	}

	if path != "" && cfg.PathValidator != nil {
		if ok, msg := cfg.PathValidator(path); !ok {
			return Table{}, &ValidationError{Origin: cfg.Origin, Message: msg}
		}
	}

	target := path
	if cfg.InputFileName != "" {
		target = filepath.Join(inputDir, cfg.InputFileName)
		if path != "" && !samePath(path, target) {
			if err := copyFile(path, target); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return Table{}, missingFileError(cfg.Origin)
				}
				return Table{}, eris.Wrapf(err, "source %s: stage input file", cfg.Origin)
			}
			log.Debug("staged input file", zap.String("from", path), zap.String("to", target))
		}
	}

	if target == "" {
		return Table{}, missingFileError(cfg.Origin)
	}
	if info, err := os.Stat(target); err != nil || info.IsDir() {
		return Table{}, missingFileError(cfg.Origin)
	}

	table, err := cfg.Loader(ctx, target)
	if err != nil {
		return Table{}, eris.Wrapf(err, "source %s: load %s", cfg.Origin, target)
	}

	if cfg.Validator != nil {
		if ok, msg := cfg.Validator(table); !ok {
			return Table{}, &ValidationError{Origin: cfg.Origin, Message: msg}
		}
	}

	table = Rename(table, cfg.RenamingRules)
	table = Keep(table, keptColumns(cfg.RenamingRules))

	log.Info("loaded source file",
		zap.String("file", target),
		zap.Int("rows", len(table.Records)),
		zap.Strings("columns", table.Columns),
	)
	return table, nil
}

// Rename applies old to new column renames to the header and every record.
func Rename(t Table, rules map[string]string) Table {
	if len(rules) == 0 {
		return t
	}
	out := Table{Columns: make([]string, len(t.Columns))}
	for i, col := range t.Columns {
		if to, ok := rules[col]; ok {
			col = to
		}
		out.Columns[i] = col
	}
	for _, rec := range t.Records {
		renamed := make(model.Record, len(rec))
		for col, v := range rec {
			if to, ok := rules[col]; ok {
				col = to
			}
			renamed[col] = v
		}
		out.Records = append(out.Records, renamed)
	}
	return out
}

// Keep restricts the table to the allowed columns, preserving file order.
func Keep(t Table, allowed map[string]bool) Table {
	out := Table{}
	for _, col := range t.Columns {
		if allowed[col] && !slices.Contains(out.Columns, col) {
			out.Columns = append(out.Columns, col)
		}
	}
	for _, rec := range t.Records {
		kept := make(model.Record, len(out.Columns))
		for _, col := range out.Columns {
			if v, ok := rec[col]; ok {
				kept[col] = v
			}
		}
		out.Records = append(out.Records, kept)
	}
	return out
}

func keptColumns(rules map[string]string) map[string]bool {
	keep := make(map[string]bool)
	for _, c := range model.RequiredColumns {
		keep[c] = true
	}
	for _, c := range model.OptionalColumns {
		keep[c] = true
	}
	for _, c := range rules {
		keep[c] = true
	}
	return keep
}

func missingFileError(origin string) *ValidationError {
	return &ValidationError{
		Origin: origin,
		Message: "Couldn't locate the " + origin + " file. This can happen if the file was already " +
			"ingested and moved, or if no file was given. Please try again.",
	}
}

func samePath(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	return errA == nil && errB == nil && aa == bb
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return eris.Wrap(err, "open source file")
	}
	defer src.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return eris.Wrap(err, "create input directory")
	}
	dst, err := os.Create(to)
	if err != nil {
		return eris.Wrap(err, "create staged file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close() //nolint:errcheck
		return eris.Wrap(err, "copy file")
	}
	if err := dst.Close(); err != nil {
		return eris.Wrap(err, "close staged file")
	}
	return nil
}
