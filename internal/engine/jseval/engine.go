// Package jseval is the JavaScript engine backend, built on goja. A single
// runtime lives for the whole session, so globals persist naturally.
package jseval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/itsmostafa/evalctl/internal/engine"
)

const (
	// PreludeFileName is the prelude replayed by :load-config.
	PreludeFileName = "prelude.js"

	// ModuleExt is the extension of modules in library directories.
	ModuleExt = ".js"

	LinkerEmbed = "embed"

	defaultTimeout  = 30 * time.Second
	maxCacheEntries = 256
)

// Engine runs JavaScript for one session.
type Engine struct {
	engine.Settings

	vm        *goja.Runtime
	baseline  map[string]bool
	library   *engine.Library
	workspace *engine.Workspace
	logger    *slog.Logger
	timeout   time.Duration

	manifest engine.Manifest
	sources  map[string][]byte
	cache    map[string]*goja.Program

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

// New creates an Engine with a fresh runtime and workspace.
func New(opts ...Option) (*Engine, error) {
	ws, err := engine.NewWorkspace("evalctl-js-", "main"+ModuleExt)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		Settings:  engine.NewSettings("Error", LinkerEmbed),
		library:   engine.NewLibrary(ModuleExt),
		workspace: ws,
		logger:    slog.New(slog.DiscardHandler),
		timeout:   defaultTimeout,
		sources:   make(map[string][]byte),
		cache:     make(map[string]*goja.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.resetRuntime(); err != nil {
		_ = ws.Remove()
		return nil, err
	}
	return e, nil
}

// resetRuntime replaces the runtime, installs the builtins and binds every
// loaded module again.
func (e *Engine) resetRuntime() error {
	vm := goja.New()
	if err := e.setupEnvironment(vm); err != nil {
		return fmt.Errorf("failed to setup environment: %w", err)
	}
	e.vm = vm
	e.baseline = make(map[string]bool)
	for _, name := range vm.GlobalObject().GetOwnPropertyNames() {
		e.baseline[name] = true
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

// setupEnvironment installs print and console.log.
func (e *Engine) setupEnvironment(vm *goja.Runtime) error {
	printFunc := func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		e.cb.EmitPrint(strings.Join(args, " ") + "\n")
		return goja.Undefined()
	}
	if err := vm.Set("print", printFunc); err != nil {
		return fmt.Errorf("failed to set print: %w", err)
	}

	console := vm.NewObject()
	if err := console.Set("log", printFunc); err != nil {
		return fmt.Errorf("failed to set console.log: %w", err)
	}
	return vm.Set("console", console)
}

// Eval compiles and runs code in the session runtime.
func (e *Engine) Eval(code string, cb *engine.Callbacks) (engine.Outputs, error) {
	e.cb = cb
	defer func() { e.cb = nil }()

	src := hoistLexical(code)
	seq, err := e.workspace.WriteSource([]byte(src))
	if err != nil {
		return engine.Outputs{}, err
	}
	if err := e.workspace.WriteManifest(e.manifest.List()); err != nil {
		return engine.Outputs{}, err
	}

	start := time.Now()
	prg, hit, err := e.compile(src)
	e.recordCompile(seq, src, hit, err)
	if err != nil {
		return engine.Outputs{}, diagnose(err)
	}
	e.passDone(cb, "compile", start)

	start = time.Now()
	val, err := e.run(prg)
	if err != nil {
		if !e.PreserveVarsOnPanic() {
			e.logger.Debug("runtime error, resetting runtime")
			if rerr := e.resetRuntime(); rerr != nil {
				return engine.Outputs{}, errors.Join(err, rerr)
			}
		}
		return engine.Outputs{}, err
	}
	e.passDone(cb, "run", start)

	return e.render(val), nil
}

func (e *Engine) compile(src string) (*goja.Program, bool, error) {
	sum := sha256.Sum256([]byte(src))
	key := hex.EncodeToString(sum[:])
	if prg, ok := e.cache[key]; ok && e.CacheEnabled() {
		e.logger.Debug("compilation cache hit", "key", key[:12])
		return prg, true, nil
	}

	ast, err := parser.ParseFile(nil, "main.js", src, 0)
	if err != nil {
		return nil, false, err
	}
	prg, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, false, err
	}
	if e.CacheEnabled() {
		if len(e.cache) >= maxCacheEntries {
			clear(e.cache)
		}
		e.cache[key] = prg
	}
	return prg, false, nil
}

// run executes prg, interrupting it once the timeout expires.
func (e *Engine) run(prg *goja.Program) (goja.Value, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	done := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-ctx.Done():
			e.vm.Interrupt("execution timed out")
		case <-done:
		}
	}()

	val, err := e.vm.RunProgram(prg)
	close(done)
	<-watcher
	e.vm.ClearInterrupt()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("execution timed out after %s", e.timeout)
		}
		return nil, fmt.Errorf("runtime error: %w", err)
	}
	return val, nil
}

func (e *Engine) render(val goja.Value) engine.Outputs {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return engine.NewOutputs()
	}
	var text string
	if obj, ok := val.(*goja.Object); ok && isErrorObject(obj) {
		text = fmt.Sprintf(e.ErrorFormat(), errors.New(val.String()))
	} else {
		text = fmt.Sprintf(e.OutputFormat(), val.Export())
	}
	return engine.TextOutputs(text + "\n")
}

func isErrorObject(obj *goja.Object) bool {
	return obj.ClassName() == "Error"
}

func (e *Engine) passDone(cb *engine.Callbacks, pass string, start time.Time) {
	if e.TimePasses() {
		cb.EmitPassTiming(pass, float64(time.Since(start).Microseconds())/1000)
	}
}

func (e *Engine) recordCompile(seq int, src string, hit bool, err error) {
	if !e.DebugMode() {
		return
	}
	rec := engine.CompileRecord{Seq: seq, Source: src, CacheHit: hit}
	if err != nil {
		rec.Error = err.Error()
	}
	if werr := e.workspace.AppendCompileRecord(rec); werr != nil {
		e.logger.Warn("failed to record compile", "err", werr)
	}
}

// Clear starts a new runtime. Modules stay loaded and the program cache
// is kept.
func (e *Engine) Clear() error {
	return e.resetRuntime()
}

// SetCacheEnabled empties the cache when it is turned off.
func (e *Engine) SetCacheEnabled(on bool) error {
	if !on {
		clear(e.cache)
	}
	return e.Settings.SetCacheEnabled(on)
}

func (e *Engine) LastCompileDir() string {
	return e.workspace.Dir()
}

func (e *Engine) PreludeFileName() string {
	return PreludeFileName
}

// Variables returns the globals added by evaluated code.
func (e *Engine) Variables() []engine.Variable {
	global := e.vm.GlobalObject()
	var vars []engine.Variable
	for _, name := range global.GetOwnPropertyNames() {
		if e.baseline[name] || e.manifest.Has(name) {
			continue
		}
		vars = append(vars, engine.Variable{Name: name, Type: jsType(global.Get(name))})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// jsType mirrors typeof, with the class name for non-function objects.
func jsType(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}
	if obj, ok := v.(*goja.Object); ok {
		if _, ok := goja.AssertFunction(v); ok {
			return "function"
		}
		return obj.ClassName()
	}
	switch v.Export().(type) {
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "boolean"
	case *goja.Symbol:
		return "symbol"
	default:
		return "bigint"
	}
}

// Close releases the runtime and removes the workspace.
func (e *Engine) Close() error {
	e.vm.Interrupt("closed")
	return e.workspace.Remove()
}
