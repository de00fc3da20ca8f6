package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/jmtracker/internal/source"
)

// Config holds the full application configuration.
type Config struct {
	Dirs    DirsConfig    `yaml:"dirs" mapstructure:"dirs"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Notion  NotionConfig  `yaml:"notion" mapstructure:"notion"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DirsConfig locates the storage, input and output directories.
type DirsConfig struct {
	Storage string `yaml:"storage" mapstructure:"storage"`
	Input   string `yaml:"input" mapstructure:"input"`
	Output  string `yaml:"output" mapstructure:"output"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourcesConfig declares custom sources and how they combine with the
// built-in ones.
type SourcesConfig struct {
	Policy string        `yaml:"policy" mapstructure:"policy"`
	Custom []source.Spec `yaml:"custom" mapstructure:"custom"`
}

// ScrapeConfig configures the AJO scraper.
type ScrapeConfig struct {
	AJOURL      string  `yaml:"ajo_url" mapstructure:"ajo_url"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig configures the full-text index.
type SearchConfig struct {
	IndexPath string `yaml:"index_path" mapstructure:"index_path"`
}

// NotionConfig holds Notion API credentials and the applications database ID.
type NotionConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	DatabaseID   string `yaml:"database_id" mapstructure:"database_id"`
	RateLimitRPS int    `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ServerConfig configures the local API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, the config file and the environment.
func Load() (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".jmtracker"))
	}

	// Environment
	v.SetEnvPrefix("JMTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dirs.storage", "storage")
	v.SetDefault("dirs.input", "input")
	v.SetDefault("dirs.output", "output")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("sources.policy", string(source.PolicyAppend))
	v.SetDefault("scrape.ajo_url", "https://academicjobsonline.org/ajo/econ")
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("scrape.rate_per_sec", 2.0)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.user_agent", "jmtracker/1.0")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("notion.rate_limit_rps", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: load %s", path)
	}
	return nil
}

// DatabasePath returns the SQLite file inside the storage directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Dirs.Storage, "jmtracker.db")
}

// IndexPath returns the search index location, defaulting to the storage
// directory.
func (c *Config) IndexPath() string {
	if c.Search.IndexPath != "" {
		return c.Search.IndexPath
	}
	return filepath.Join(c.Dirs.Storage, "postings.bleve")
}

// Registry builds the source registry from the built-in sources and the
// custom sources declared in the config file.
func (c *Config) Registry() (*source.Registry, error) {
	policy, err := source.ParsePolicy(c.Sources.Policy)
	if err != nil {
		return nil, err
	}
	custom := make([]source.Config, 0, len(c.Sources.Custom))
	for _, spec := range c.Sources.Custom {
		sc, err := spec.Build()
		if err != nil {
			return nil, err
		}
		custom = append(custom, sc)
	}
	return source.NewRegistry(source.Defaults(), custom, policy)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
