package jseval

import (
	"regexp"

	"github.com/dop251/goja"

	"github.com/itsmostafa/evalctl/internal/engine"
)

var keywords = []string{
	"async", "await", "break", "case", "catch", "class", "const", "continue",
	"default", "delete", "do", "else", "false", "finally", "for", "function",
	"if", "in", "instanceof", "let", "new", "null", "return", "switch", "this",
	"throw", "true", "try", "typeof", "undefined", "var", "void", "while",
}

var declPattern = regexp.MustCompile(`\b(?:let|const|var|function|class)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

// Completions offers global properties, declarations in code and keywords.
// After "name." it offers the own properties of the global object name.
func (e *Engine) Completions(code string, pos int) (engine.Completions, error) {
	start, _ := engine.WordBefore(code, pos)
	if start > 0 && code[start-1] == '.' {
		_, recv := engine.WordBefore(code, start-1)
		return engine.RankCandidates(code, pos, e.members(recv)), nil
	}

	names := e.vm.GlobalObject().GetOwnPropertyNames()
	for _, dep := range e.manifest.List() {
		names = append(names, dep.Name)
	}
	for _, m := range declPattern.FindAllStringSubmatch(code, -1) {
		names = append(names, m[1])
	}
	names = append(names, keywords...)
	return engine.RankCandidates(code, pos, names), nil
}

func (e *Engine) members(recv string) []string {
	if recv == "" {
		return nil
	}
	obj, ok := e.vm.GlobalObject().Get(recv).(*goja.Object)
	if !ok {
		return nil
	}
	names := obj.GetOwnPropertyNames()
	if proto := obj.Prototype(); proto != nil && proto != e.objectPrototype() {
		names = append(names, proto.GetOwnPropertyNames()...)
	}
	return names
}

func (e *Engine) objectPrototype() *goja.Object {
	if ctor, ok := e.vm.Get("Object").(*goja.Object); ok {
		if proto, ok := ctor.Get("prototype").(*goja.Object); ok {
			return proto
		}
	}
	return nil
}
