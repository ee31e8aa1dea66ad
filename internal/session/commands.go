package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/itsmostafa/evalctl/internal/engine"
	"github.com/itsmostafa/evalctl/internal/version"
)

// Command identifies one meta-command. The set is closed.
type Command int

const (
	CmdToggleInternalDebug Command = iota
	CmdLoadConfig
	CmdVersion
	CmdListVars
	CmdPreserveOnPanic
	CmdClear
	CmdAddDependency
	CmdLastCompileDir
	CmdSetOptLevel
	CmdSetOutputFormat
	CmdSetErrorFormat
	CmdQuit
	CmdToggleTiming
	CmdTogglePassTiming
	CmdSetCacheBackend
	CmdSetLinker
	CmdExplainLastError
	CmdLastErrorEncoded
	CmdHelp
)

var canonicalNames = [...]string{
	CmdToggleInternalDebug: ":toggle-internal-debug",
	CmdLoadConfig:          ":load-config",
	CmdVersion:             ":version",
	CmdListVars:            ":list-vars",
	CmdPreserveOnPanic:     ":preserve-on-panic",
	CmdClear:               ":clear",
	CmdAddDependency:       ":add-dependency",
	CmdLastCompileDir:      ":last-compile-dir",
	CmdSetOptLevel:         ":set-opt-level",
	CmdSetOutputFormat:     ":set-output-format",
	CmdSetErrorFormat:      ":set-error-format",
	CmdQuit:                ":quit",
	CmdToggleTiming:        ":toggle-timing",
	CmdTogglePassTiming:    ":toggle-pass-timing",
	CmdSetCacheBackend:     ":set-cache-backend",
	CmdSetLinker:           ":set-linker",
	CmdExplainLastError:    ":explain-last-error",
	CmdLastErrorEncoded:    ":last-error-encoded",
	CmdHelp:                ":help",
}

// Short spellings accepted alongside the canonical names.
var aliases = map[string]Command{
	":internal_debug":         CmdToggleInternalDebug,
	":vars":                   CmdListVars,
	":preserve_vars_on_panic": CmdPreserveOnPanic,
	":dep":                    CmdAddDependency,
	":last_compile_dir":       CmdLastCompileDir,
	":opt":                    CmdSetOptLevel,
	":fmt":                    CmdSetOutputFormat,
	":efmt":                   CmdSetErrorFormat,
	":timing":                 CmdToggleTiming,
	":time_passes":            CmdTogglePassTiming,
	":sccache":                CmdSetCacheBackend,
	":cache":                  CmdSetCacheBackend,
	":linker":                 CmdSetLinker,
	":explain":                CmdExplainLastError,
	":last_error_json":        CmdLastErrorEncoded,
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(canonicalNames)+len(aliases))
	for id, name := range canonicalNames {
		m[name] = Command(id)
	}
	for name, id := range aliases {
		m[name] = id
	}
	return m
}()

// String returns the canonical name of c.
func (c Command) String() string {
	if c < 0 || int(c) >= len(canonicalNames) {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return canonicalNames[c]
}

// LookupCommand resolves a canonical name or alias.
func LookupCommand(name string) (Command, bool) {
	c, ok := commandsByName[name]
	return c, ok
}

// CommandNames returns every accepted spelling, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(commandsByName))
	for name := range commandsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// maxSuggestDistance bounds the edit distance of a typo suggestion.
const maxSuggestDistance = 3

func suggestCommand(name string) string {
	ranks := fuzzy.RankFindFold(strings.TrimPrefix(name, ":"), canonicalNames[:])
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range CommandNames() {
		if d := fuzzy.LevenshteinDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

const helpText = `:list-vars (:vars)                   List bound variables and their types
:set-opt-level [level] (:opt)        Toggle/set optimization level
:set-output-format [fmt] (:fmt)      Set output formatter (default: %v)
:set-error-format [fmt] (:efmt)      Set the formatter for returned errors
:explain-last-error (:explain)       Print explanation of last error
:clear                               Clear all state, keeping compilation cache
:add-dependency (:dep)               Add dependency. e.g. :dep text = "1.0"
:set-cache-backend [0|1] (:cache)    Set whether to use the compilation cache
:set-linker [linker] (:linker)       Set/print linker. Supported: embed, file
:load-config                         Replay the startup file and prelude
:version                             Print version
:quit                                Quit evaluation and exit
:preserve-on-panic [0|1]             Try to keep vars on runtime errors

Mostly for development / debugging purposes:
:last-compile-dir                    Print the directory in which we last compiled
:toggle-timing (:timing)             Toggle printing of how long evaluations take
:last-error-encoded                  Print the last compilation error as JSON
:toggle-pass-timing (:time_passes)   Toggle printing of compiler pass times
:toggle-internal-debug               Toggle various internal debugging code`

// textOutput returns text as a single plain-text line.
func textOutput(text string) engine.Outputs {
	return engine.TextOutputs(text + "\n")
}

func (s *Session) processCommand(name string, args *string) (engine.Outputs, error) {
	cmd, ok := LookupCommand(name)
	if !ok {
		return engine.Outputs{}, &UnknownCommandError{Name: name, Suggestion: suggestCommand(name)}
	}
	s.logger.Debug("dispatching command", "command", cmd.String())

	eng := s.engine
	switch cmd {
	case CmdToggleInternalDebug:
		eng.SetDebugMode(!eng.DebugMode())
		return textOutput(fmt.Sprintf("Internals debugging: %t", eng.DebugMode())), nil

	case CmdLoadConfig:
		return s.loadConfig()

	case CmdVersion:
		return textOutput(version.Version), nil

	case CmdListVars:
		return s.listVars(), nil

	case CmdPreserveOnPanic:
		eng.SetPreserveVarsOnPanic(args != nil && *args == "1")
		return textOutput(fmt.Sprintf("Preserve vars on panic: %t", eng.PreserveVarsOnPanic())), nil

	case CmdClear:
		if err := eng.Clear(); err != nil {
			return engine.Outputs{}, err
		}
		return engine.NewOutputs(), nil

	case CmdAddDependency:
		return s.addDependency(args, engine.Strict)

	case CmdLastCompileDir:
		return textOutput(fmt.Sprintf("%q", eng.LastCompileDir())), nil

	case CmdSetOptLevel:
		level := "2"
		switch {
		case args != nil:
			level = *args
		case eng.OptLevel() == "2":
			level = "0"
		}
		if err := eng.SetOptLevel(level); err != nil {
			return engine.Outputs{}, err
		}
		return textOutput("Optimization: " + eng.OptLevel()), nil

	case CmdSetOutputFormat:
		format := engine.DefaultOutputFormat
		if args != nil {
			format = *args
		}
		eng.SetOutputFormat(format)
		return textOutput("Output format: " + eng.OutputFormat()), nil

	case CmdSetErrorFormat:
		if args != nil {
			if err := eng.SetErrorFormat(*args); err != nil {
				return engine.Outputs{}, err
			}
		}
		return textOutput(fmt.Sprintf("Error format: %s (errors must implement %s)",
			eng.ErrorFormat(), eng.ErrorFormatCapability())), nil

	case CmdQuit:
		return engine.Outputs{}, ErrQuit

	case CmdToggleTiming:
		s.printTimings = !s.printTimings
		return textOutput(fmt.Sprintf("Timing: %t", s.printTimings)), nil

	case CmdTogglePassTiming:
		eng.SetTimePasses(!eng.TimePasses())
		return textOutput(fmt.Sprintf("Time passes: %t", eng.TimePasses())), nil

	case CmdSetCacheBackend:
		if err := eng.SetCacheEnabled(args == nil || *args != "0"); err != nil {
			return engine.Outputs{}, err
		}
		return textOutput(fmt.Sprintf("Compilation cache: %t", eng.CacheEnabled())), nil

	case CmdSetLinker:
		if args != nil {
			if err := eng.SetLinker(*args); err != nil {
				return engine.Outputs{}, err
			}
		}
		return textOutput("linker: " + eng.Linker()), nil

	case CmdExplainLastError:
		return s.explainLastError()

	case CmdLastErrorEncoded:
		var out strings.Builder
		for _, e := range s.lastErrors {
			out.WriteString(e.JSON())
			out.WriteString("\n")
		}
		return engine.Outputs{}, &EncodedDiagnosticsError{JSON: out.String()}

	case CmdHelp:
		return textOutput(helpText), nil
	}

	return engine.Outputs{}, &UnknownCommandError{Name: name}
}

func (s *Session) explainLastError() (engine.Outputs, error) {
	if len(s.lastErrors) == 0 {
		return engine.Outputs{}, ErrNoLastError
	}
	var all strings.Builder
	for _, e := range s.lastErrors {
		explanation, ok := e.Explanation()
		if !ok {
			return engine.Outputs{}, ErrNoExplanation
		}
		all.WriteString(explanation)
	}
	return textOutput(all.String()), nil
}
