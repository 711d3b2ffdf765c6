// Package config loads rowbind settings from config.yaml with viper.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
	fileExt  = "config.yaml"

	KeyDBPath       = "db_path"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
	KeySearchMode   = "search_mode"
	KeySelectedFg   = "theme.selected_fg"
	KeySelectedBg   = "theme.selected_bg"
	KeyEvenBg       = "theme.even_bg"
	KeyOddBg        = "theme.odd_bg"
	defaultDBName   = "rowbind.sqlite"
	defaultLogLevel = "info"
)

const defaultConfigYAML = `# rowbind configuration

# SQLite file holding the entity and relation tables (default: <config dir>/rowbind.sqlite)
# db_path:

log:
  level: info
  # file: /tmp/rowbind.log

# Filter anchoring: anywhere | starts-with | ends-with | exact
search_mode: anywhere

# Row colours (ANSI 256 codes or #rrggbb); empty keeps the adaptive defaults.
theme:
  selected_fg: ""
  selected_bg: ""
  even_bg: ""
  odd_bg: ""
`

type Theme struct {
	SelectedFg string
	SelectedBg string
	EvenBg     string
	OddBg      string
}

type Config struct {
	Dir        string
	DBPath     string
	LogLevel   slog.Level
	LogFile    string
	SearchMode string
	Theme      Theme
}

// DefaultDir is ~/.rowbind, or ./.rowbind when the home dir is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".rowbind"
	}
	return filepath.Join(home, ".rowbind")
}

// Load reads config.yaml from dir, writing a default file on first run.
// A missing file is not an error.
func Load(dir string) (Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultFile(dir); err != nil {
		return Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyDBPath, filepath.Join(dir, defaultDBName))
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeySearchMode, "anywhere")
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix("ROWBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}
	dbPath := v.GetString(KeyDBPath)
	if dbPath == "" {
		dbPath = filepath.Join(dir, defaultDBName)
	}
	return Config{
		Dir:        dir,
		DBPath:     dbPath,
		LogLevel:   level,
		LogFile:    v.GetString(KeyLogFile),
		SearchMode: v.GetString(KeySearchMode),
		Theme: Theme{
			SelectedFg: v.GetString(KeySelectedFg),
			SelectedBg: v.GetString(KeySelectedBg),
			EvenBg:     v.GetString(KeyEvenBg),
			OddBg:      v.GetString(KeyOddBg),
		},
	}, nil
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

func ensureDefaultFile(dir string) error {
	path := filepath.Join(dir, fileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
