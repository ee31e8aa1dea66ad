// Package luaeval is the Lua engine backend, built on go-lua. One Lua state
// lives for the whole session: globals persist, locals last one
// submission.
package luaeval

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/itsmostafa/evalctl/internal/engine"
)

const (
	// PreludeFileName is the prelude replayed by :load-config.
	PreludeFileName = "prelude.lua"

	// ModuleExt is the extension of modules in library directories.
	ModuleExt = ".lua"

	LinkerEmbed = "embed"

	defaultTimeout = 30 * time.Second

	// hookInterval is the instruction count between deadline checks.
	hookInterval = 1000

	chunkName = "=main"
)

var errTimedOut = errors.New("execution timed out")

// Engine runs Lua for one session.
type Engine struct {
	engine.Settings

	l         *lua.State
	baseline  map[string]bool
	library   *engine.Library
	workspace *engine.Workspace
	logger    *slog.Logger
	timeout   time.Duration

	manifest engine.Manifest
	sources  map[string][]byte

	deadline time.Time
	timedOut bool

	// cb is set for the duration of Eval; print reads it.
	cb *engine.Callbacks
}

var _ engine.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLibrary sets the directories modules are resolved from.
func WithLibrary(lib *engine.Library) Option {
	return func(e *Engine) {
		e.library = lib
	}
}

// WithTimeout bounds a single run.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine with a fresh state and workspace.
func New(opts ...Option) (*Engine, error) {
	ws, err := engine.NewWorkspace("evalctl-lua-", "main"+ModuleExt)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		Settings:  engine.NewSettings("error", LinkerEmbed),
		library:   engine.NewLibrary(ModuleExt),
		workspace: ws,
		logger:    slog.New(slog.DiscardHandler),
		timeout:   defaultTimeout,
		sources:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.resetState(); err != nil {
		_ = ws.Remove()
		return nil, err
	}
	return e, nil
}

// resetState replaces the Lua state, opens the standard libraries and binds
// every loaded module again.
func (e *Engine) resetState() error {
	l := lua.NewState()
	lua.OpenLibraries(l)
	l.Register("print", e.print)
	lua.SetDebugHook(l, e.checkDeadline, lua.MaskCount, hookInterval)

	e.l = l
	e.baseline = make(map[string]bool)
	for _, g := range e.globals() {
		e.baseline[g.Name] = true
	}
	for _, dep := range e.manifest.List() {
		src, ok := e.sources[dep.Name]
		if !ok {
			continue
		}
		if err := e.bindModule(dep.Name, src); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) print(l *lua.State) int {
	n := l.Top()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = toString(l, i)
	}
	e.cb.EmitPrint(strings.Join(parts, "\t") + "\n")
	return 0
}

func (e *Engine) checkDeadline(l *lua.State, _ lua.Debug) {
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		e.timedOut = true
		lua.Errorf(l, "%s", errTimedOut.Error())
	}
}

// toString renders the value at index the way tostring does.
func toString(l *lua.State, index int) string {
	s, _ := lua.ToStringMeta(l, index)
	l.Pop(1)
	return s
}

// Eval loads and runs code in the session state. When the last line is an
// expression its values are returned.
func (e *Engine) Eval(code string, cb *engine.Callbacks) (engine.Outputs, error) {
	e.cb = cb
	defer func() { e.cb = nil }()

	seq, err := e.workspace.WriteSource([]byte(code))
	if err != nil {
		return engine.Outputs{}, err
	}
	if err := e.workspace.WriteManifest(e.manifest.List()); err != nil {
		return engine.Outputs{}, err
	}

	base := e.l.Top()
	defer e.l.SetTop(base)

	start := time.Now()
	err = e.load(code)
	e.recordCompile(seq, code, err)
	if err != nil {
		return engine.Outputs{}, err
	}
	e.passDone(cb, "compile", start)

	start = time.Now()
	if err := e.run(base); err != nil {
		if !e.PreserveVarsOnPanic() {
			e.logger.Debug("runtime error, resetting state")
			if rerr := e.resetState(); rerr != nil {
				return engine.Outputs{}, errors.Join(err, rerr)
			}
		}
		return engine.Outputs{}, err
	}
	e.passDone(cb, "run", start)

	return e.render(base), nil
}

// load pushes the compiled chunk. The variant returning the last line is
// tried first.
func (e *Engine) load(code string) error {
	if withReturn, ok := returnLastLine(code); ok {
		if lua.LoadBuffer(e.l, withReturn, chunkName, "t") == nil {
			return nil
		}
		e.l.Pop(1)
	}
	if err := lua.LoadBuffer(e.l, code, chunkName, "t"); err != nil {
		msg, _ := e.l.ToString(-1)
		e.l.Pop(1)
		if msg == "" {
			msg = err.Error()
		}
		return diagnose(msg)
	}
	return nil
}

// returnLastLine prefixes the last non-blank line of code with return.
func returnLastLine(code string) (string, bool) {
	trimmed := strings.TrimRight(code, " \t\r\n")
	if trimmed == "" {
		return "", false
	}
	i := strings.LastIndexByte(trimmed, '\n') + 1
	last := trimmed[i:]
	if strings.HasPrefix(strings.TrimSpace(last), "return") {
		return "", false
	}
	return trimmed[:i] + "return " + last, true
}

func (e *Engine) run(base int) error {
	e.timedOut = false
	e.deadline = time.Now().Add(e.timeout)
	defer func() { e.deadline = time.Time{} }()

	err := e.l.ProtectedCall(0, lua.MultipleReturns, 0)
	if err == nil {
		return nil
	}
	if e.timedOut {
		return fmt.Errorf("execution timed out after %s", e.timeout)
	}
	msg := err.Error()
	if e.l.Top() > base {
		if s, ok := e.l.ToString(-1); ok {
			msg = s
		}
	}
	return fmt.Errorf("runtime error: %s", msg)
}

// render formats the values the chunk returned, tab separated.
func (e *Engine) render(base int) engine.Outputs {
	top := e.l.Top()
	if top == base || (top == base+1 && e.l.IsNil(-1)) {
		return engine.NewOutputs()
	}
	parts := make([]string, 0, top-base)
	for i := base + 1; i <= top; i++ {
		parts = append(parts, toString(e.l, i))
	}
	text := fmt.Sprintf(e.OutputFormat(), strings.Join(parts, "\t"))
	return engine.TextOutputs(text + "\n")
}

func (e *Engine) passDone(cb *engine.Callbacks, pass string, start time.Time) {
	if e.TimePasses() {
		cb.EmitPassTiming(pass, float64(time.Since(start).Microseconds())/1000)
	}
}

func (e *Engine) recordCompile(seq int, src string, err error) {
	if !e.DebugMode() {
		return
	}
	rec := engine.CompileRecord{Seq: seq, Source: src}
	if err != nil {
		rec.Error = err.Error()
	}
	if werr := e.workspace.AppendCompileRecord(rec); werr != nil {
		e.logger.Warn("failed to record compile", "err", werr)
	}
}

// Clear starts a new state. Modules stay loaded.
func (e *Engine) Clear() error {
	return e.resetState()
}

func (e *Engine) LastCompileDir() string {
	return e.workspace.Dir()
}

func (e *Engine) PreludeFileName() string {
	return PreludeFileName
}

// Variables returns the globals added by evaluated code.
func (e *Engine) Variables() []engine.Variable {
	var vars []engine.Variable
	for _, g := range e.globals() {
		if e.baseline[g.Name] || e.manifest.Has(g.Name) {
			continue
		}
		vars = append(vars, g)
	}
	return vars
}

// globals lists the string keys of _G with their Lua type names.
func (e *Engine) globals() []engine.Variable {
	l := e.l
	var vars []engine.Variable
	l.PushGlobalTable()
	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) == lua.TypeString {
			name, _ := l.ToString(-2)
			vars = append(vars, engine.Variable{Name: name, Type: lua.TypeNameOf(l, -1)})
		}
		l.Pop(1)
	}
	l.Pop(1)
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// Close drops the state and removes the workspace.
func (e *Engine) Close() error {
	e.l = nil
	return e.workspace.Remove()
}
