package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Executor adapters selectable with Config.Adapter.
const (
	AdapterLocal    = "local"
	AdapterPostgres = "postgres"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProjectPath string
	// PackagesPath is where installed packages are materialized. Defaults to
	// <project>/.gridflow/packages.
	PackagesPath string
	// IndexPath is the package fetch index. Defaults to
	// <project>/.gridflow/packages.db.
	IndexPath string
	// SelectorsPath defaults to <project>/selectors.yml.
	SelectorsPath string

	Select   string
	Exclude  string
	Selector string

	// Workers is the worker pool size. Zero uses the project setting.
	Workers int
	// Retries is the number of extra attempts after a failure. Negative uses
	// the project setting.
	Retries     int
	NodeTimeout time.Duration
	FailOnEmpty bool

	Adapter string
	DSN     string

	ReportPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	StatsdAddr      string

	// WatchURL is the progress endpoint the watch command connects to.
	WatchURL string
}

// NewConfig validates cfg and fills in derived defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WatchURL == "" && cfg.ProjectPath == "" {
		return nil, errors.New("ProjectPath is a required configuration field and cannot be empty")
	}
	if cfg.Selector != "" && (cfg.Select != "" || cfg.Exclude != "") {
		return nil, errors.New("a named selector cannot be combined with select or exclude")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.NodeTimeout < 0 {
		return nil, fmt.Errorf("node timeout must not be negative, got %s", cfg.NodeTimeout)
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	switch cfg.Adapter {
	case "":
		cfg.Adapter = AdapterLocal
	case AdapterLocal:
	case AdapterPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("the postgres adapter requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
	}

	if cfg.ProjectPath != "" {
		state := filepath.Join(cfg.ProjectPath, ".gridflow")
		if cfg.PackagesPath == "" {
			cfg.PackagesPath = filepath.Join(state, "packages")
		}
		if cfg.IndexPath == "" {
			cfg.IndexPath = filepath.Join(state, "packages.db")
		}
		if cfg.SelectorsPath == "" {
			cfg.SelectorsPath = filepath.Join(cfg.ProjectPath, "selectors.yml")
		}
	}
	return &cfg, nil
}
