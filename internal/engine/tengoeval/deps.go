package tengoeval

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/itsmostafa/evalctl/internal/engine"
)

var stdlibModules = stdlib.AllModuleNames()

// AddDependency declares a module for import(). Standard library modules
// are always importable, so declaring one only records it. Other names are
// loaded from spec when it is a path to a .tengo file, or from the library
// directories. In Advisory mode the name is recorded even when its source
// cannot be found.
func (e *Engine) AddDependency(name, spec string, mode engine.ApplyMode) error {
	dep := engine.Dependency{Name: name, Spec: spec}
	if slices.Contains(stdlibModules, name) {
		e.manifest.Add(dep)
		return nil
	}

	src, err := e.loadModule(name, spec)
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

// modules returns the import table for one compilation. The file linker
// leaves library modules to file imports.
func (e *Engine) modules() *tengo.ModuleMap {
	mods := stdlib.GetModuleMap(stdlibModules...)
	embed := e.EffectiveLinker() != LinkerFile
	for _, dep := range e.manifest.List() {
		src, ok := e.sources[dep.Name]
		if !ok {
			continue
		}
		if embed || strings.HasSuffix(dep.Spec, ModuleExt) {
			mods.AddSourceModule(dep.Name, src)
		}
	}
	return mods
}
