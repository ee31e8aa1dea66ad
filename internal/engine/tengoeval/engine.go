// Package tengoeval is the default engine backend. It compiles and runs
// Tengo scripts and emulates a persistent global scope across runs.
package tengoeval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/d5/tengo/v2"

	"github.com/itsmostafa/evalctl/internal/engine"
)

const (
	// PreludeFileName is the prelude replayed by :load-config.
	PreludeFileName = "prelude.tengo"

	// ModuleExt is the extension of source modules in library directories.
	ModuleExt = ".tengo"

	LinkerEmbed = "embed"
	LinkerFile  = "file"

	defaultTimeout   = 30 * time.Second
	defaultMaxAllocs = 1000000
	maxCacheEntries  = 256
)

// reserved names are globals the engine injects.
var reserved = map[string]bool{
	resultName: true,
	"print":    true,
	"println":  true,
}

// Engine runs Tengo code for one session.
type Engine struct {
	engine.Settings

	library   *engine.Library
	workspace *engine.Workspace
	logger    *slog.Logger
	timeout   time.Duration
	maxAllocs int64

	globals  map[string]tengo.Object
	types    map[string]string
	items    []item
	manifest engine.Manifest
	sources  map[string][]byte
	cache    map[string]*tengo.Compiled

	// cb is set for the duration of Eval; the print builtins read it.
	cb *engine.Callbacks
}

var _ engine.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLibrary sets the directories source modules are resolved from.
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

// WithMaxAllocs limits object allocations per run. -1 disables the limit.
func WithMaxAllocs(n int64) Option {
	return func(e *Engine) {
		e.maxAllocs = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine with its own workspace directory.
func New(opts ...Option) (*Engine, error) {
	ws, err := engine.NewWorkspace("evalctl-tengo-", "main"+ModuleExt)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		Settings:  engine.NewSettings("error", LinkerEmbed, LinkerFile),
		library:   engine.NewLibrary(ModuleExt),
		workspace: ws,
		logger:    slog.New(slog.DiscardHandler),
		timeout:   defaultTimeout,
		maxAllocs: defaultMaxAllocs,
		globals:   make(map[string]tengo.Object),
		types:     make(map[string]string),
		sources:   make(map[string][]byte),
		cache:     make(map[string]*tengo.Compiled),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Eval compiles code against the current global scope and runs it.
func (e *Engine) Eval(code string, cb *engine.Callbacks) (engine.Outputs, error) {
	e.cb = cb
	defer func() { e.cb = nil }()

	start := time.Now()
	u, err := analyze(code, e.isBound)
	if err != nil {
		return engine.Outputs{}, diagnose(err, position{})
	}
	e.passDone(cb, "parse", start)

	prefix := e.itemSource()
	src := prefix + u.src
	seq, err := e.workspace.WriteSource([]byte(src))
	if err != nil {
		return engine.Outputs{}, err
	}
	if err := e.workspace.WriteManifest(e.manifest.List()); err != nil {
		return engine.Outputs{}, err
	}

	start = time.Now()
	compiled, hit, err := e.compile(src)
	e.recordCompile(seq, src, hit, err)
	if err != nil {
		return engine.Outputs{}, diagnose(err, position{
			prefixLines: strings.Count(prefix, "\n"),
			resultLine:  u.resultLine,
		})
	}
	e.passDone(cb, "compile", start)

	start = time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := compiled.RunContext(ctx); err != nil {
		e.discardAfterPanic()
		if errors.Is(err, context.DeadlineExceeded) {
			return engine.Outputs{}, fmt.Errorf("execution timed out after %s", e.timeout)
		}
		return engine.Outputs{}, fmt.Errorf("runtime error: %w", err)
	}
	e.passDone(cb, "run", start)

	e.commit(u, compiled)
	if u.resultLine == 0 {
		return engine.NewOutputs(), nil
	}
	return e.render(compiled.Get(resultName).Object()), nil
}

// compile returns a runnable copy of the compiled program for src, from
// the cache when possible. The cached master is never run.
func (e *Engine) compile(src string) (*tengo.Compiled, bool, error) {
	names := e.carriedNames()
	key := e.cacheKey(src, names)

	if master, ok := e.cache[key]; ok && e.CacheEnabled() {
		e.logger.Debug("compilation cache hit", "key", key[:12])
		c := master.Clone()
		for _, name := range names {
			if err := c.Set(name, e.globals[name]); err != nil {
				return nil, true, fmt.Errorf("failed to restore %s: %w", name, err)
			}
		}
		return c, true, nil
	}

	script := tengo.NewScript([]byte(src))
	script.SetMaxAllocs(e.maxAllocs)
	script.SetImports(e.modules())
	if e.EffectiveLinker() == LinkerFile {
		script.EnableFileImport(true)
		if dirs := e.library.Dirs(); len(dirs) > 0 {
			if err := script.SetImportDir(dirs[0]); err != nil {
				return nil, false, fmt.Errorf("failed to set import dir: %w", err)
			}
		}
	}
	e.addBuiltinFunctions(script)
	for _, name := range names {
		if err := script.Add(name, e.globals[name]); err != nil {
			return nil, false, fmt.Errorf("failed to add %s: %w", name, err)
		}
	}

	master, err := script.Compile()
	if err != nil {
		return nil, false, err
	}
	if e.CacheEnabled() {
		if len(e.cache) >= maxCacheEntries {
			clear(e.cache)
		}
		e.cache[key] = master
	}
	return master.Clone(), false, nil
}

func (e *Engine) cacheKey(src string, names []string) string {
	h := sha256.New()
	h.Write([]byte(src))
	for _, name := range names {
		h.Write([]byte{0})
		h.Write([]byte(name))
	}
	for _, dep := range e.manifest.List() {
		fmt.Fprintf(h, "\x00dep:%s=%s:%x", dep.Name, dep.Spec, sha256.Sum256(e.sources[dep.Name]))
	}
	fmt.Fprintf(h, "\x00linker:%s\x00opt:%s", e.EffectiveLinker(), e.OptLevel())
	return hex.EncodeToString(h.Sum(nil))
}

// commit folds a successful run into the global scope.
func (e *Engine) commit(u *unit, compiled *tengo.Compiled) {
	for _, name := range u.defines {
		if !u.definesItem(name) {
			e.removeItem(name)
		}
	}
	for _, it := range u.items {
		e.setItem(it)
	}

	globals := make(map[string]tengo.Object)
	types := make(map[string]string)
	for _, v := range compiled.GetAll() {
		name := v.Name()
		if reserved[name] {
			continue
		}
		obj := v.Object()
		if e.isItem(name) {
			types[name] = obj.TypeName()
			continue
		}
		if holdsCompiledCode(obj, 0) {
			e.logger.Debug("dropping variable holding compiled functions", "name", name)
			continue
		}
		types[name] = obj.TypeName()
		globals[name] = obj
	}
	e.globals = globals
	e.types = types
}

func (e *Engine) discardAfterPanic() {
	if e.PreserveVarsOnPanic() {
		return
	}
	e.logger.Debug("runtime error, discarding variables", "count", len(e.globals))
	for name := range e.globals {
		delete(e.types, name)
	}
	e.globals = make(map[string]tengo.Object)
}

func (e *Engine) render(obj tengo.Object) engine.Outputs {
	if _, ok := obj.(*tengo.Undefined); ok || obj == nil {
		return engine.NewOutputs()
	}
	var text string
	if errObj, ok := obj.(*tengo.Error); ok {
		text = fmt.Sprintf(e.ErrorFormat(), errors.New(objectToString(errObj.Value)))
	} else {
		text = fmt.Sprintf(e.OutputFormat(), tengo.ToInterface(obj))
	}
	return engine.TextOutputs(text + "\n")
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

func (e *Engine) isBound(name string) bool {
	_, ok := e.globals[name]
	return ok || e.isItem(name)
}

func (e *Engine) isItem(name string) bool {
	return slices.ContainsFunc(e.items, func(it item) bool { return it.name == name })
}

func (e *Engine) setItem(it item) {
	for i := range e.items {
		if e.items[i].name == it.name {
			e.items[i] = it
			return
		}
	}
	e.items = append(e.items, it)
}

func (e *Engine) removeItem(name string) {
	e.items = slices.DeleteFunc(e.items, func(it item) bool { return it.name == name })
}

func (e *Engine) itemSource() string {
	var b strings.Builder
	for _, it := range e.items {
		b.WriteString(it.src)
	}
	return b.String()
}

func (e *Engine) carriedNames() []string {
	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops every variable and definition. Dependencies and the
// compilation cache are kept.
func (e *Engine) Clear() error {
	e.globals = make(map[string]tengo.Object)
	e.types = make(map[string]string)
	e.items = nil
	return nil
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

// Variables returns every global with its Tengo type name.
func (e *Engine) Variables() []engine.Variable {
	vars := make([]engine.Variable, 0, len(e.types))
	for name, typ := range e.types {
		vars = append(vars, engine.Variable{Name: name, Type: typ})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// Close removes the workspace.
func (e *Engine) Close() error {
	return e.workspace.Remove()
}
