package tracker

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
)

// AddCustomColumn adds a user-defined column to every posting and to the
// personal settings.
func (s *Service) AddCustomColumn(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return eris.New("column name is empty")
	case model.IsCanonicalColumn(name):
		return eris.Errorf("%q is a built-in posting column", name)
	case s.personal.HasCustomColumn(name):
		return eris.Errorf("custom column %q already exists", name)
	}

	if err := s.eachPosting(ctx, func(p *model.Posting) {
		if _, ok := p.Extra[name]; !ok {
			_ = p.Set(name, "")
		}
	}); err != nil {
		return err
	}

	s.personal.CustomColumns = append(s.personal.CustomColumns, name)
	return s.personal.Save()
}

// RemoveCustomColumn drops a user-defined column from every posting and
// from the personal settings.
func (s *Service) RemoveCustomColumn(ctx context.Context, name string) error {
	if !s.personal.HasCustomColumn(name) {
		return eris.Errorf("custom column %q does not exist", name)
	}
	if err := s.eachPosting(ctx, func(p *model.Posting) {
		delete(p.Extra, name)
	}); err != nil {
		return err
	}

	s.personal.CustomColumns = slices.DeleteFunc(s.personal.CustomColumns, func(c string) bool { return c == name })
	return s.personal.Save()
}

// eachPosting applies fn to every stored posting and saves the table. It
// is a no-op before the first ingestion.
func (s *Service) eachPosting(ctx context.Context, fn func(*model.Posting)) error {
	written, err := s.store.PostingsWritten(ctx)
	if err != nil || !written {
		return err
	}
	postings, err := s.store.LoadPostings(ctx)
	if err != nil {
		return err
	}
	for i := range postings {
		fn(&postings[i])
	}
	return s.store.SavePostings(ctx, postings)
}

// AddWriter adds a letter writer.
func (s *Service) AddWriter(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return eris.New("writer name is empty")
	}
	if s.personal.HasWriter(name) {
		return eris.Errorf("letter writer %q already exists", name)
	}
	s.personal.LetterWriters = append(s.personal.LetterWriters, name)
	return s.personal.Save()
}

// RenameWriter renames a letter writer.
func (s *Service) RenameWriter(from, to string) error {
	to = strings.TrimSpace(to)
	i := slices.Index(s.personal.LetterWriters, from)
	switch {
	case i < 0:
		return eris.Errorf("letter writer %q does not exist", from)
	case to == "":
		return eris.New("writer name is empty")
	case s.personal.HasWriter(to):
		return eris.Errorf("letter writer %q already exists", to)
	}
	s.personal.LetterWriters[i] = to
	return s.personal.Save()
}

// RemoveWriter removes a letter writer.
func (s *Service) RemoveWriter(name string) error {
	i := slices.Index(s.personal.LetterWriters, name)
	if i < 0 {
		return eris.Errorf("letter writer %q does not exist", name)
	}
	s.personal.LetterWriters = slices.Delete(s.personal.LetterWriters, i, i+1)
	return s.personal.Save()
}

// Scaffold copies the scaffolding base directory to a new project directory
// named name inside the scaffolding output directory.
func (s *Service) Scaffold(name string) (string, error) {
	base, out := s.personal.ScaffoldingBaseDir, s.personal.ScaffoldingOutputDir
	if base == "" || out == "" {
		return "", eris.New("scaffolding base and output directories must be configured")
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", eris.Errorf("invalid project name %q", name)
	}

	dest := filepath.Join(out, name)
	if _, err := os.Stat(dest); err == nil {
		return "", eris.Errorf("%s already exists", dest)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", eris.Wrapf(err, "stat %s", dest)
	}

	if err := copyTree(base, dest); err != nil {
		return "", err
	}
	zap.L().Info("scaffolded project", zap.String("path", dest))
	return dest, nil
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return eris.Wrapf(err, "scaffold: base dir %s", src)
	}
	if !info.IsDir() {
		return eris.Errorf("scaffold: %s is not a directory", src)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return eris.Wrapf(err, "scaffold: open %s", from)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(to)
	if err != nil {
		return eris.Wrapf(err, "scaffold: create %s", to)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return eris.Wrapf(err, "scaffold: copy %s", from)
	}
	return out.Close()
}
