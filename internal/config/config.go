package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "tally.yaml"

// Environment variables that override the config file.
const (
	EnvLedgerPath = "TALLY_LEDGER_PATH"
	EnvLogLevel   = "TALLY_LOG_LEVEL"
	EnvAddr       = "TALLY_ADDR"
	EnvPassword   = "KOREAN_BANK_PASSWORD"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Currency CurrencyConfig `yaml:"currency"`
	Sources  SourcesConfig  `yaml:"sources"`
	Server   ServerConfig   `yaml:"server"`
	Git      GitConfig      `yaml:"git"`
	Log      LogConfig      `yaml:"log"`

	// Password decrypts protected spreadsheets. Only read from the
	// environment, never written to disk.
	Password string `yaml:"-"`

	root string
}

// DataConfig locates the ledger and its side files. Relative paths are
// resolved against Dir, and Dir against the config file's directory.
type DataConfig struct {
	Dir         string `yaml:"dir"`
	LedgerFile  string `yaml:"ledger_file"`
	HistoryFile string `yaml:"history_file"`
}

// CurrencyConfig fixes the reporting currency and conversion rates.
type CurrencyConfig struct {
	Base  string             `yaml:"base"`
	Rates map[string]float64 `yaml:"rates"` // foreign units per one base unit
}

// SourcesConfig names the exports loaded by the bootstrap command.
type SourcesConfig struct {
	MonzoCSV         string `yaml:"monzo_csv"`
	TravelWalletXLSX string `yaml:"travelwallet_xlsx"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	MaxUploadBytes   int64  `yaml:"max_upload_bytes"`
	UploadsPerMinute int    `yaml:"uploads_per_minute"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a tally.yaml file from disk. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.root = filepath.Dir(path)
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default rooted
// at the file's directory.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.root = filepath.Dir(path)
		return cfg, nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir:         "data",
			LedgerFile:  "combined_transactions.csv",
			HistoryFile: "upload_history.json",
		},
		Currency: CurrencyConfig{
			Base:  "GBP",
			Rates: map[string]float64{"KRW": 1750},
		},
		Sources: SourcesConfig{
			MonzoCSV:         "monzo.csv",
			TravelWalletXLSX: "TravelWallet Data Export.xlsx",
		},
		Server: ServerConfig{
			Addr:             ":5001",
			MaxUploadBytes:   16 << 20,
			UploadsPerMinute: 30,
		},
		Git: GitConfig{
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
		Log: LogConfig{
			Level: "info",
		},
		root: ".",
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvLedgerPath)); v != "" {
		if abs, err := filepath.Abs(v); err == nil {
			v = abs
		}
		c.Data.LedgerFile = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Password = v
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Currency.Base) == "" {
		errs = append(errs, errors.New("currency.base is required"))
	}
	for code, rate := range c.Currency.Rates {
		if rate <= 0 {
			errs = append(errs, fmt.Errorf("currency.rates.%s must be positive", code))
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Data.LedgerFile == "" {
		errs = append(errs, errors.New("data.ledger_file is required"))
	}
	return errors.Join(errs...)
}

// Root returns the directory relative paths are resolved against.
func (c *Config) Root() string { return c.root }

// SetRoot changes the directory relative paths are resolved against.
func (c *Config) SetRoot(dir string) { c.root = dir }

// DataDir returns the resolved data directory.
func (c *Config) DataDir() string {
	if filepath.IsAbs(c.Data.Dir) {
		return c.Data.Dir
	}
	return filepath.Join(c.root, c.Data.Dir)
}

// Resolve returns p unchanged if absolute, else joined onto DataDir.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir(), p)
}

// LedgerPath returns the resolved ledger file path.
func (c *Config) LedgerPath() string { return c.Resolve(c.Data.LedgerFile) }

// HistoryPath returns the resolved upload history path.
func (c *Config) HistoryPath() string { return c.Resolve(c.Data.HistoryFile) }
