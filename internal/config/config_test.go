package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"EVALCTL_CONFIG_DIR", "EVALCTL_LANG", "EVALCTL_LIB_PATH", "EVALCTL_HISTORY_DB",
		"EVALCTL_TIMEOUT", "EVALCTL_LOG_LEVEL", "EVALCTL_OPT_LEVEL", "EVALCTL_NO_COLOR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Lang != LangTengo {
		t.Errorf("Lang = %q, want %q", cfg.Lang, LangTengo)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("EVALCTL_CONFIG_DIR", "/tmp/evalctl-conf")
	t.Setenv("EVALCTL_LANG", "js")
	t.Setenv("EVALCTL_LIB_PATH", "/a:/b")
	t.Setenv("EVALCTL_TIMEOUT", "5s")
	t.Setenv("EVALCTL_LOG_LEVEL", "debug")
	t.Setenv("EVALCTL_NO_COLOR", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Lang != LangJS || cfg.Timeout != 5*time.Second || !cfg.NoColor {
		t.Errorf("Load() = %+v", cfg)
	}

	dirs := cfg.LibraryDirs()
	want := []string{"/a", "/b", filepath.Join("/tmp/evalctl-conf", "lib")}
	if len(dirs) != len(want) {
		t.Fatalf("LibraryDirs() = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("LibraryDirs()[%d] = %q, want %q", i, dirs[i], want[i])
		}
	}
	if got := cfg.HistoryPath(); got != filepath.Join("/tmp/evalctl-conf", "history.db") {
		t.Errorf("HistoryPath() = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{Lang: LangTengo, LogLevel: "info"}},
		{name: "lua", cfg: Config{Lang: LangLua, LogLevel: "info"}},
		{name: "bad language", cfg: Config{Lang: "ruby", LogLevel: "info"}, wantErr: true},
		{name: "bad level", cfg: Config{Lang: LangJS, LogLevel: "loud"}, wantErr: true},
		{name: "negative timeout", cfg: Config{Lang: LangJS, LogLevel: "info", Timeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	if err != nil || level != slog.LevelDebug {
		t.Errorf("ParseLevel(DEBUG) = %v, %v", level, err)
	}
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		lang    Language
		prelude string
	}{
		{lang: LangTengo, prelude: "prelude.tengo"},
		{lang: LangJS, prelude: "prelude.js"},
		{lang: LangLua, prelude: "prelude.lua"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			cfg := Config{Lang: tt.lang, ConfigDir: t.TempDir(), OptLevel: "3", LogLevel: "info"}
			eng, err := cfg.NewEngine(slog.New(slog.DiscardHandler))
			if err != nil {
				t.Fatalf("NewEngine failed: %v", err)
			}
			defer eng.Close()

			if eng.PreludeFileName() != tt.prelude {
				t.Errorf("PreludeFileName() = %q, want %q", eng.PreludeFileName(), tt.prelude)
			}
			if eng.OptLevel() != "3" {
				t.Errorf("OptLevel() = %q, want 3", eng.OptLevel())
			}
		})
	}

	cfg := Config{Lang: LangTengo, OptLevel: "9"}
	if _, err := cfg.NewEngine(slog.New(slog.DiscardHandler)); err == nil {
		t.Error("NewEngine accepted an invalid opt level")
	}
}
