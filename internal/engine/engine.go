// Package engine defines the boundary between the session layer and the
// backends that actually compile and run submitted code.
package engine

// ApplyMode controls how strictly a state-changing call is applied.
type ApplyMode int

const (
	// Strict applies the change and reports every failure.
	Strict ApplyMode = iota
	// Advisory applies the change on a best-effort basis for analysis
	// (completion). Backends still return errors; callers decide whether
	// to drop them. A change made in this mode is never rolled back.
	Advisory
)

// String returns the mode name used in logs.
func (m ApplyMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Advisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Variable is one binding in the evaluation state.
type Variable struct {
	Name string
	Type string
}

// Callbacks receive incremental events while code is running.
type Callbacks struct {
	// Print receives text written by the evaluated program.
	Print func(text string)

	// PassTiming receives one event per compiler pass when pass timing
	// is enabled.
	PassTiming func(pass string, elapsedMs float64)
}

// EmitPrint forwards program output to cb. A nil cb discards it.
func (cb *Callbacks) EmitPrint(text string) {
	if cb != nil && cb.Print != nil {
		cb.Print(text)
	}
}

// EmitPassTiming forwards a pass duration to cb. A nil cb discards it.
func (cb *Callbacks) EmitPassTiming(pass string, elapsedMs float64) {
	if cb != nil && cb.PassTiming != nil {
		cb.PassTiming(pass, elapsedMs)
	}
}

// Engine compiles and runs code, persisting variable state across calls.
//
// An Engine is owned by exactly one session and is not safe for
// concurrent use.
type Engine interface {
	// Eval compiles and runs code as one unit. A compile-time failure is
	// reported as CompilationErrors; everything else is a plain error.
	Eval(code string, cb *Callbacks) (Outputs, error)

	// Completions returns candidates for the identifier ending at the
	// byte offset pos in code.
	Completions(code string, pos int) (Completions, error)

	// Clear resets evaluation state but keeps compiled artifacts.
	Clear() error

	// AddDependency registers a dependency for subsequent evaluations.
	AddDependency(name, spec string, mode ApplyMode) error

	// LastCompileDir is the directory the most recent compile ran in.
	LastCompileDir() string

	// Variables returns the current bindings ordered by name.
	Variables() []Variable

	// PreludeFileName is the name of the prelude source file replayed
	// at startup, e.g. "prelude.tengo".
	PreludeFileName() string

	// Close releases on-disk and runtime resources.
	Close() error

	Configurable
}

// Configurable is the set of engine knobs exposed through meta-commands.
type Configurable interface {
	DebugMode() bool
	SetDebugMode(on bool)

	PreserveVarsOnPanic() bool
	SetPreserveVarsOnPanic(on bool)

	OptLevel() string
	SetOptLevel(level string) error

	OutputFormat() string
	SetOutputFormat(format string)

	ErrorFormat() string
	ErrorFormatCapability() string
	SetErrorFormat(format string) error

	TimePasses() bool
	SetTimePasses(on bool)

	CacheEnabled() bool
	SetCacheEnabled(on bool) error

	Linker() string
	SetLinker(name string) error
}
