package source

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Spec is the declarative form of a custom source, as read from the
// `sources.custom` list in config.yaml.
type Spec struct {
	Origin               string                   `mapstructure:"origin" yaml:"origin"`
	Loader               string                   `mapstructure:"loader" yaml:"loader"` // csv | xlsx
	HeaderRow            int                      `mapstructure:"header_row" yaml:"header_row"`
	Sheet                string                   `mapstructure:"sheet" yaml:"sheet"`
	DownloadURL          string                   `mapstructure:"download_url" yaml:"download_url"`
	ExpectedExtension    string                   `mapstructure:"expected_extension" yaml:"expected_extension"`
	InputFileName        string                   `mapstructure:"input_file_name" yaml:"input_file_name"`
	DownloadInstructions string                   `mapstructure:"download_instructions" yaml:"download_instructions"`
	UniqueID             string                   `mapstructure:"unique_id" yaml:"unique_id"`
	Renames              map[string]string        `mapstructure:"renames" yaml:"renames"`
	Generators           map[string]GeneratorSpec `mapstructure:"generators" yaml:"generators"`
}

// GeneratorSpec names a generator and its arguments.
type GeneratorSpec struct {
	Kind     string   `mapstructure:"kind" yaml:"kind"` // location | url | const
	Columns  []string `mapstructure:"columns" yaml:"columns"`
	Template string   `mapstructure:"template" yaml:"template"`
	Value    string   `mapstructure:"value" yaml:"value"`
}

// Build turns the source description into a Config.
func (s Spec) Build() (Config, error) {
	origin := strings.TrimSpace(s.Origin)
	if origin == "" {
		return Config{}, eris.New("custom source: origin is required")
	}

	cfg := Config{
		Origin:               origin,
		DownloadURL:          s.DownloadURL,
		ExpectedExtension:    s.ExpectedExtension,
		InputFileName:        s.InputFileName,
		DownloadInstructions: s.DownloadInstructions,
		RenamingRules:        s.Renames,
	}

	switch strings.ToLower(s.Loader) {
	case "", "csv":
		cfg.Loader = CSVLoader(s.HeaderRow)
		if cfg.ExpectedExtension == "" {
			cfg.ExpectedExtension = "csv"
		}
	case "xlsx":
		cfg.Loader = XLSXLoader(s.Sheet, s.HeaderRow)
		if cfg.ExpectedExtension == "" {
			cfg.ExpectedExtension = "xlsx"
		}
	default:
		return Config{}, eris.Errorf("custom source %s: unknown loader %q", origin, s.Loader)
	}

	cfg.PathValidator = Chain[string](origin, ValidateExtension(origin, cfg.ExpectedExtension))
	if s.UniqueID != "" {
		cfg.Validator = Chain[Table](origin, ValidateUniqueID(origin, s.UniqueID))
	}

	if len(s.Generators) > 0 {
		cfg.Generators = make(map[string]Generator, len(s.Generators))
	}
	for col, g := range s.Generators {
		gen, err := g.build()
		if err != nil {
			return Config{}, eris.Wrapf(err, "custom source %s: generator for %s", origin, col)
		}
		cfg.Generators[col] = gen
	}

	return cfg, nil
}

func (g GeneratorSpec) build() (Generator, error) {
	switch strings.ToLower(g.Kind) {
	case "location":
		if len(g.Columns) == 0 {
			return nil, eris.New("location generator needs columns")
		}
		return LocationFromParts(g.Columns...), nil
	case "url":
		if g.Template == "" {
			return nil, eris.New("url generator needs a template")
		}
		return URLTemplate(g.Template), nil
	case "const":
		return Const(g.Value), nil
	}
	return nil, eris.Errorf("unknown generator kind %q", g.Kind)
}
