package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values can use strings like "35s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// D returns the wrapped time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration of one harvest run.
type Config struct {
	Target struct {
		// SearchURL is the public search page whose filter interaction
		// triggers the listing request.
		SearchURL string `yaml:"searchURL" validate:"required,url"`
		// BaseURL resolves relative detail links and synthesized URLs.
		BaseURL string `yaml:"baseURL" validate:"required,url"`
		// Region is the value selected in the autonomous-community
		// filter before searching.
		Region string `yaml:"region" validate:"required"`
	} `yaml:"target"`

	Browser struct {
		// DevToolsURL of a running Chrome instance, e.g. http://127.0.0.1:9222.
		DevToolsURL string `yaml:"devToolsURL" validate:"required,url"`
		UserAgent   string `yaml:"userAgent"`
	} `yaml:"browser"`

	Discovery struct {
		ProbeBudget    int      `yaml:"probeBudget" validate:"min=1"`
		ProbeTimeout   Duration `yaml:"probeTimeout"`
		ObserveWindow  Duration `yaml:"observeWindow"`
		SettleInterval Duration `yaml:"settleInterval"`
	} `yaml:"discovery"`

	Listing struct {
		PageTimeout     Duration `yaml:"pageTimeout"`
		PageDelay       Duration `yaml:"pageDelay"`
		RequestedLength int      `yaml:"requestedLength" validate:"min=1"`
		FingerprintRows int      `yaml:"fingerprintRows" validate:"min=1"`
	} `yaml:"listing"`

	Detail struct {
		Concurrency  int      `yaml:"concurrency" validate:"min=1"`
		BatchSize    int      `yaml:"batchSize" validate:"min=1"`
		BatchDelay   Duration `yaml:"batchDelay"`
		Timeout      Duration `yaml:"timeout"`
		MaxBodyBytes int      `yaml:"maxBodyBytes" validate:"min=1"`
		Retries      int      `yaml:"retries" validate:"min=0,max=3"`
	} `yaml:"detail"`

	Sqlite struct {
		Dsn string `yaml:"dsn"`
	} `yaml:"sqlite"`

	Output struct {
		CSV string `yaml:"csv"`
	} `yaml:"output"`

	Artifacts struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
	} `yaml:"artifacts"`

	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
		File   string   `yaml:"file"`
	} `yaml:"log"`
}

// NewConfig returns the default configuration, tuned for the public
// training-entity registry.
func NewConfig() *Config {
	c := &Config{}

	c.Target.SearchURL = "https://registrosfp.educacion.gob.es/registroestatalentidadesformacion/buscarPublico"
	c.Target.BaseURL = "https://registrosfp.educacion.gob.es"
	c.Target.Region = "ISLAS CANARIAS"

	c.Browser.DevToolsURL = "http://127.0.0.1:9222"
	c.Browser.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	c.Discovery.ProbeBudget = 250
	c.Discovery.ProbeTimeout = Duration(60 * time.Second)
	c.Discovery.ObserveWindow = Duration(18 * time.Second)
	c.Discovery.SettleInterval = Duration(500 * time.Millisecond)

	c.Listing.PageTimeout = Duration(60 * time.Second)
	c.Listing.PageDelay = Duration(120 * time.Millisecond)
	c.Listing.RequestedLength = 500
	c.Listing.FingerprintRows = 10

	c.Detail.Concurrency = 6
	c.Detail.BatchSize = 120
	c.Detail.BatchDelay = Duration(200 * time.Millisecond)
	c.Detail.Timeout = Duration(35 * time.Second)
	c.Detail.MaxBodyBytes = 2_000_000
	c.Detail.Retries = 0

	c.Sqlite.Dsn = "harvest.sqlite3"
	c.Output.CSV = "emails_centros.csv"

	c.Artifacts.Enabled = false
	c.Artifacts.Dir = "debug"

	c.Log.Level = "info"
	c.Log.Writer = []string{"console"}
	c.Log.File = "regharvest.log"

	return c
}

// Load reads path into the defaults and validates the result. An empty
// path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Path resolves the config file location: explicit flag, then the
// REGHARVEST_CONFIG environment variable, then config.yaml in the
// working directory. Returns "" when none exists.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("REGHARVEST_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
