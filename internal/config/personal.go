package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PersonalFileName is the settings file kept in the storage directory.
const PersonalFileName = "personal_settings.yaml"

// Personal holds user settings edited from the tracker: letter writers,
// custom posting columns and project scaffolding directories.
type Personal struct {
	LetterWriters        []string `yaml:"letter_writers"`
	CustomColumns        []string `yaml:"custom_columns"`
	ScaffoldingBaseDir   string   `yaml:"scaffolding_base_dir"`
	ScaffoldingOutputDir string   `yaml:"scaffolding_output_dir"`

	path string
}

// LoadPersonal reads the personal settings from dir. A missing file yields
// empty settings that will be created on the first Save.
func LoadPersonal(dir string) (*Personal, error) {
	path := filepath.Join(dir, PersonalFileName)
	p := &Personal{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "config: read personal settings")
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}
	return p, nil
}

// Save writes the settings back to the file they were loaded from.
func (p *Personal) Save() error {
	if p.path == "" {
		return eris.New("config: personal settings have no file")
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "config: marshal personal settings")
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return eris.Wrap(err, "config: create storage dir")
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return eris.Wrap(err, "config: write personal settings")
	}
	return nil
}

// HasWriter reports whether name is a configured letter writer.
func (p *Personal) HasWriter(name string) bool {
	return slices.Contains(p.LetterWriters, name)
}

// HasCustomColumn reports whether name is a configured custom column.
func (p *Personal) HasCustomColumn(name string) bool {
	return slices.Contains(p.CustomColumns, name)
}
