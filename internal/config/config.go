package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all huntlog configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Parser     ParserConfig     `toml:"parser"`
	Goals      GoalsConfig      `toml:"goals"`
	Appearance AppearanceConfig `toml:"appearance"`
	Items      ItemOverrides    `toml:"items"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	Timezone    string `toml:"timezone,omitempty"`
	ImportDir   string `toml:"import_dir,omitempty"`
	Database    string `toml:"database,omitempty"`
}

// ParserConfig controls how logs are read and parsed.
type ParserConfig struct {
	MaxInputBytes int64  `toml:"max_input_bytes"`
	LabelsFile    string `toml:"labels_file,omitempty"`
}

// GoalsConfig holds balance goal settings.
type GoalsConfig struct {
	MonthlyBalance *int64 `toml:"monthly_balance,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ItemOverrides lets the user set per-unit gold values for items the
// built-in table misses or prices differently.
type ItemOverrides struct {
	Values map[string]int64 `toml:"values,omitempty"`
}

// DefaultMaxInputBytes caps a single pasted or exported log.
const DefaultMaxInputBytes = 1 << 20

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
		},
		Parser: ParserConfig{
			MaxInputBytes: DefaultMaxInputBytes,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "huntlog")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "huntlog")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file in the working directory and HUNTLOG_* variables override
// values from the file.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Missing .env is the common case.
	_ = godotenv.Load()
	applyEnv(&cfg)

	cfg.General.ImportDir = expandHome(cfg.General.ImportDir)
	cfg.Parser.LabelsFile = expandHome(cfg.Parser.LabelsFile)
	if !strings.Contains(cfg.General.Database, "://") {
		cfg.General.Database = expandHome(cfg.General.Database)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.General.DefaultDays = getEnvInt("HUNTLOG_DEFAULT_DAYS", cfg.General.DefaultDays)
	cfg.General.Timezone = getEnv("HUNTLOG_TIMEZONE", cfg.General.Timezone)
	cfg.General.ImportDir = getEnv("HUNTLOG_IMPORT_DIR", cfg.General.ImportDir)
	cfg.General.Database = getEnv("HUNTLOG_DATABASE", cfg.General.Database)
	cfg.Parser.MaxInputBytes = int64(getEnvInt("HUNTLOG_MAX_INPUT_BYTES", int(cfg.Parser.MaxInputBytes)))
	cfg.Parser.LabelsFile = getEnv("HUNTLOG_LABELS_FILE", cfg.Parser.LabelsFile)
	cfg.Appearance.Theme = getEnv("HUNTLOG_THEME", cfg.Appearance.Theme)
	if v := os.Getenv("HUNTLOG_MONTHLY_BALANCE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Goals.MonthlyBalance = &n
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
