package tengoeval

import (
	"regexp"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/itsmostafa/evalctl/internal/engine"
)

var keywords = []string{
	"break", "continue", "else", "error", "export", "false", "for", "func",
	"if", "immutable", "import", "in", "return", "true", "undefined",
}

var definePattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*:=`)

// Completions offers globals, definitions in code, declared modules,
// keywords and builtins. After "name." it offers the attributes of the
// map or standard library module bound to name.
func (e *Engine) Completions(code string, pos int) (engine.Completions, error) {
	start, _ := engine.WordBefore(code, pos)
	if start > 0 && code[start-1] == '.' {
		_, recv := engine.WordBefore(code, start-1)
		return engine.RankCandidates(code, pos, e.members(code, recv)), nil
	}
	return engine.RankCandidates(code, pos, e.names(code)), nil
}

func (e *Engine) names(code string) []string {
	var names []string
	for name := range e.types {
		names = append(names, name)
	}
	for _, dep := range e.manifest.List() {
		names = append(names, dep.Name)
	}
	for _, m := range definePattern.FindAllStringSubmatch(code, -1) {
		names = append(names, m[1])
	}
	for _, fn := range tengo.GetAllBuiltinFunctions() {
		names = append(names, fn.Name)
	}
	names = append(names, "print", "println")
	return append(names, keywords...)
}

func (e *Engine) members(code, recv string) []string {
	if recv == "" {
		return nil
	}
	var attrs []string
	switch v := e.globals[recv].(type) {
	case *tengo.Map:
		for k := range v.Value {
			attrs = append(attrs, k)
		}
		return attrs
	case *tengo.ImmutableMap:
		for k := range v.Value {
			attrs = append(attrs, k)
		}
		return attrs
	}

	importOf := regexp.MustCompile(`\b` + regexp.QuoteMeta(recv) + `\s*:?=\s*import\(\s*"([^"]+)"\s*\)`)
	m := importOf.FindStringSubmatch(e.itemSource() + code)
	if m == nil {
		return nil
	}
	for k := range stdlib.BuiltinModules[m[1]] {
		attrs = append(attrs, k)
	}
	return attrs
}
