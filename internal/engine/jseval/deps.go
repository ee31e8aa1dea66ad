package jseval

import (
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// AddDependency loads <name>.js, or the file named by spec when it ends in
// .js, runs it as a CommonJS module and binds module.exports to the global
// name. In Advisory mode the name is recorded even when loading fails.
func (e *Engine) AddDependency(name, spec string, mode engine.ApplyMode) error {
	dep := engine.Dependency{Name: name, Spec: spec}

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

func (e *Engine) bindModule(name string, src []byte) error {
	wrapped := "(function(module, exports) {\n" + string(src) + "\n})"
	prg, err := goja.Compile(name+ModuleExt, wrapped, false)
	if err != nil {
		return fmt.Errorf("failed to compile module %s: %w", name, err)
	}
	fnVal, err := e.vm.RunProgram(prg)
	if err != nil {
		return fmt.Errorf("failed to load module %s: %w", name, err)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return fmt.Errorf("module %s did not compile to a function", name)
	}

	module := e.vm.NewObject()
	exports := e.vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return err
	}
	if _, err := fn(goja.Undefined(), module, exports); err != nil {
		return fmt.Errorf("failed to initialise module %s: %w", name, err)
	}
	return e.vm.Set(name, module.Get("exports"))
}
