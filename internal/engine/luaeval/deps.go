package luaeval

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// standardLibraries are opened in every state and need no loading.
var standardLibraries = []string{"bit32", "coroutine", "debug", "io", "math", "os", "package", "string", "table"}

// AddDependency runs <name>.lua, or the file named by spec when it ends in
// .lua, and binds the value it returns to the global name. Standard
// library names are only recorded. In Advisory mode the name is recorded
// even when loading fails.
func (e *Engine) AddDependency(name, spec string, mode engine.ApplyMode) error {
	dep := engine.Dependency{Name: name, Spec: spec}
	if slices.Contains(standardLibraries, name) {
		e.manifest.Add(dep)
		return nil
	}

	src, err := e.loadModule(name, spec)
	if err == nil {
		err = e.bindModule(name, src)
	}
	if err != nil {
		if mode == engine.Advisory {
			e.manifest.Add(dep)
		}
		return err
	}
	e.sources[name] = src
	e.manifest.Add(dep)
	e.logger.Debug("module loaded", "name", name, "bytes", len(src))
	return nil
}

func (e *Engine) loadModule(name, spec string) ([]byte, error) {
	if strings.HasSuffix(spec, ModuleExt) {
		src, err := os.ReadFile(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to read module %s: %w", name, err)
		}
		return src, nil
	}
	return e.library.Load(name)
}

// bindModule runs src and stores its first result as a global. A module
// returning nothing is bound to true.
func (e *Engine) bindModule(name string, src []byte) error {
	l := e.l
	base := l.Top()
	defer l.SetTop(base)

	if err := lua.LoadBuffer(l, string(src), "="+name, "t"); err != nil {
		msg, _ := l.ToString(-1)
		return fmt.Errorf("failed to compile module %s: %s", name, msg)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		msg, ok := l.ToString(-1)
		if !ok {
			msg = err.Error()
		}
		return fmt.Errorf("failed to load module %s: %s", name, msg)
	}
	if l.IsNil(-1) {
		l.Pop(1)
		l.PushBoolean(true)
	}
	l.SetGlobal(name)
	return nil
}
