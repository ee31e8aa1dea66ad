// Package config loads evalctl settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/itsmostafa/evalctl/internal/engine"
	"github.com/itsmostafa/evalctl/internal/engine/jseval"
	"github.com/itsmostafa/evalctl/internal/engine/luaeval"
	"github.com/itsmostafa/evalctl/internal/engine/tengoeval"
)

// Language selects the engine backend.
type Language string

const (
	LangTengo Language = "tengo"
	LangJS    Language = "js"
	LangLua   Language = "lua"
)

// AppName names the per-user configuration directory.
const AppName = "evalctl"

// Config holds the settings shared by every command.
type Config struct {
	ConfigDir string        `env:"EVALCTL_CONFIG_DIR"`
	Lang      Language      `env:"EVALCTL_LANG"       envDefault:"tengo"`
	LibPath   []string      `env:"EVALCTL_LIB_PATH"   envSeparator:":"`
	HistoryDB string        `env:"EVALCTL_HISTORY_DB"`
	Timeout   time.Duration `env:"EVALCTL_TIMEOUT"    envDefault:"30s"`
	LogLevel  string        `env:"EVALCTL_LOG_LEVEL"  envDefault:"warn"`
	OptLevel  string        `env:"EVALCTL_OPT_LEVEL"`
	NoColor   bool          `env:"EVALCTL_NO_COLOR"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env cannot check by type alone.
func (c Config) Validate() error {
	switch c.Lang {
	case LangTengo, LangJS, LangLua:
	default:
		return fmt.Errorf("invalid language: %q (expected %q, %q or %q)", c.Lang, LangTengo, LangJS, LangLua)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	return nil
}

// Dir returns the configuration directory: ConfigDir when set, otherwise
// evalctl under the user configuration directory. ok is false when
// neither can be determined.
func (c Config) Dir() (string, bool) {
	if c.ConfigDir != "" {
		return c.ConfigDir, true
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(base, AppName), true
}

// LibraryDirs lists the module directories: LibPath first, then lib under
// the configuration directory.
func (c Config) LibraryDirs() []string {
	dirs := make([]string, 0, len(c.LibPath)+1)
	for _, d := range c.LibPath {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	if dir, ok := c.Dir(); ok {
		dirs = append(dirs, filepath.Join(dir, "lib"))
	}
	return dirs
}

// HistoryPath returns where REPL history is stored. An empty result means
// history is kept in memory only.
func (c Config) HistoryPath() string {
	if c.HistoryDB != "" {
		return c.HistoryDB
	}
	if dir, ok := c.Dir(); ok {
		return filepath.Join(dir, "history.db")
	}
	return ""
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level: %q", name)
	}
	return level, nil
}

// NewEngine creates the engine selected by Lang.
func (c Config) NewEngine(logger *slog.Logger) (engine.Engine, error) {
	var (
		eng engine.Engine
		err error
	)
	switch c.Lang {
	case LangJS:
		eng, err = jseval.New(
			jseval.WithLibrary(engine.NewLibrary(jseval.ModuleExt, c.LibraryDirs()...)),
			jseval.WithTimeout(c.Timeout),
			jseval.WithLogger(logger),
		)
	case LangLua:
		eng, err = luaeval.New(
			luaeval.WithLibrary(engine.NewLibrary(luaeval.ModuleExt, c.LibraryDirs()...)),
			luaeval.WithTimeout(c.Timeout),
			luaeval.WithLogger(logger),
		)
	case LangTengo, "":
		eng, err = tengoeval.New(
			tengoeval.WithLibrary(engine.NewLibrary(tengoeval.ModuleExt, c.LibraryDirs()...)),
			tengoeval.WithTimeout(c.Timeout),
			tengoeval.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("invalid language: %q", c.Lang)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s engine: %w", c.Lang, err)
	}

	if c.OptLevel != "" {
		if err := eng.SetOptLevel(c.OptLevel); err != nil {
			_ = eng.Close()
			return nil, err
		}
	}
	return eng, nil
}
