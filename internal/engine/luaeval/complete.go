package luaeval

import (
	"regexp"

	"github.com/Shopify/go-lua"

	"github.com/itsmostafa/evalctl/internal/engine"
)

var keywords = []string{
	"and", "break", "do", "else", "elseif", "end", "false", "for", "function",
	"goto", "if", "in", "local", "nil", "not", "or", "repeat", "return", "then",
	"true", "until", "while",
}

var definePattern = regexp.MustCompile(`(?:function\s+|local\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*(?:=[^=]|\()`)

// Completions offers globals, names assigned in code, declared modules and
// keywords. After "name." or "name:" it offers the keys of the table bound
// to name.
func (e *Engine) Completions(code string, pos int) (engine.Completions, error) {
	start, _ := engine.WordBefore(code, pos)
	if start > 0 && (code[start-1] == '.' || code[start-1] == ':') {
		_, recv := engine.WordBefore(code, start-1)
		return engine.RankCandidates(code, pos, e.members(recv)), nil
	}

	var names []string
	for _, g := range e.globals() {
		names = append(names, g.Name)
	}
	for _, dep := range e.manifest.List() {
		names = append(names, dep.Name)
	}
	for _, m := range definePattern.FindAllStringSubmatch(code, -1) {
		names = append(names, m[1])
	}
	names = append(names, keywords...)
	return engine.RankCandidates(code, pos, names), nil
}

func (e *Engine) members(recv string) []string {
	if recv == "" {
		return nil
	}
	l := e.l
	base := l.Top()
	defer l.SetTop(base)

	l.Global(recv)
	if l.TypeOf(-1) != lua.TypeTable {
		return nil
	}
	var keys []string
	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			keys = append(keys, key)
		}
		l.Pop(1)
	}
	return keys
}
