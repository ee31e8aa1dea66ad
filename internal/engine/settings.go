package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Default knob values shared by every backend.
const (
	DefaultOptLevel     = "2"
	DefaultOutputFormat = "%v"
	DefaultErrorFormat  = "%v"
)

var validOptLevels = []string{"0", "1", "2", "3", "s", "z"}

// Settings holds the configuration knobs common to all backends. Backends
// embed it to satisfy Configurable and read the fields when compiling.
type Settings struct {
	debug               bool
	preserveVarsOnPanic bool
	optLevel            string
	outputFormat        string
	errorFormat         string
	errorCapability     string
	timePasses          bool
	cacheEnabled        bool
	linker              string
	linkers             []string
}

// NewSettings returns Settings with defaults. capability names what an
// error value must be to use the error format; linkers lists the accepted
// linker names, the first being the default.
func NewSettings(capability string, linkers ...string) Settings {
	s := Settings{
		optLevel:        DefaultOptLevel,
		outputFormat:    DefaultOutputFormat,
		errorFormat:     DefaultErrorFormat,
		errorCapability: capability,
		cacheEnabled:    true,
		linkers:         linkers,
	}
	if len(linkers) > 0 {
		s.linker = linkers[0]
	}
	return s
}

func (s *Settings) DebugMode() bool      { return s.debug }
func (s *Settings) SetDebugMode(on bool) { s.debug = on }

func (s *Settings) PreserveVarsOnPanic() bool      { return s.preserveVarsOnPanic }
func (s *Settings) SetPreserveVarsOnPanic(on bool) { s.preserveVarsOnPanic = on }

func (s *Settings) OptLevel() string { return s.optLevel }

// SetOptLevel accepts 0-3, s and z.
func (s *Settings) SetOptLevel(level string) error {
	level = strings.TrimSpace(level)
	if !slices.Contains(validOptLevels, level) {
		return fmt.Errorf("invalid optimization level %q (valid: %s)", level, strings.Join(validOptLevels, ", "))
	}
	s.optLevel = level
	return nil
}

func (s *Settings) OutputFormat() string { return s.outputFormat }

// SetOutputFormat stores format as given; a format that cannot be applied
// shows up in the rendered value the way fmt reports bad verbs.
func (s *Settings) SetOutputFormat(format string) { s.outputFormat = format }

func (s *Settings) ErrorFormat() string           { return s.errorFormat }
func (s *Settings) ErrorFormatCapability() string { return s.errorCapability }

// SetErrorFormat rejects formats that do not contain exactly one verb.
func (s *Settings) SetErrorFormat(format string) error {
	if n := countVerbs(format); n != 1 {
		return fmt.Errorf("error format %q must contain exactly one verb, found %d", format, n)
	}
	s.errorFormat = format
	return nil
}

func (s *Settings) TimePasses() bool      { return s.timePasses }
func (s *Settings) SetTimePasses(on bool) { s.timePasses = on }

func (s *Settings) CacheEnabled() bool { return s.cacheEnabled }

// SetCacheEnabled toggles the compilation cache.
func (s *Settings) SetCacheEnabled(on bool) error {
	s.cacheEnabled = on
	return nil
}

func (s *Settings) Linker() string { return s.linker }

// SetLinker rejects names the backend does not list and leaves the current
// linker in place.
func (s *Settings) SetLinker(name string) error {
	name = strings.TrimSpace(name)
	if len(s.linkers) > 0 && !slices.Contains(s.linkers, name) {
		return fmt.Errorf("unknown linker %q (valid: %s)", name, strings.Join(s.linkers, ", "))
	}
	s.linker = name
	return nil
}

// EffectiveLinker returns the linker used when compiling.
func (s *Settings) EffectiveLinker() string {
	if s.linker == "" && len(s.linkers) > 0 {
		return s.linkers[0]
	}
	return s.linker
}

// countVerbs counts fmt verbs in format, skipping %% escapes.
func countVerbs(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			continue
		}
		// flags, width and precision
		for i < len(format) && strings.IndexByte("+-# 0123456789.", format[i]) >= 0 {
			i++
		}
		if i < len(format) {
			n++
		}
	}
	return n
}
