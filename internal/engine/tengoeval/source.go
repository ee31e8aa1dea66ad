package tengoeval

import (
	"strings"

	"github.com/d5/tengo/v2/parser"
	"github.com/d5/tengo/v2/token"
)

// resultName holds the value of a trailing expression statement.
const resultName = "__result__"

// item is a top-level definition replayed as source on every run:
// functions and imports cannot be carried across compilations as values.
type item struct {
	name string
	src  string
}

// unit is one submission prepared for compilation.
type unit struct {
	// src is the code with redefinitions of bound names turned into
	// assignments and the trailing expression captured in resultName.
	src string

	defines []string
	items   []item

	// resultLine is the 1-based line the captured expression starts on,
	// or 0 when there is none. The capture moves the expression one line
	// down.
	resultLine int
}

func (u *unit) definesItem(name string) bool {
	for _, it := range u.items {
		if it.name == name {
			return true
		}
	}
	return false
}

// analyze parses code and prepares it for compilation on top of the
// existing global scope. bound reports whether a name already exists
// there.
func analyze(code string, bound func(string) bool) (*unit, error) {
	fileSet := parser.NewFileSet()
	srcFile := fileSet.AddFile("(main)", -1, len(code))
	p := parser.NewParser(srcFile, []byte(code), nil)
	file, err := p.ParseFile()
	if err != nil {
		return nil, err
	}

	offset := func(pos parser.Pos) int { return int(pos) - srcFile.Base }
	src := []byte(code)
	u := &unit{}

	for _, stmt := range file.Stmts {
		assign, ok := stmt.(*parser.AssignStmt)
		if !ok || assign.Token != token.Define || len(assign.LHS) != 1 {
			continue
		}
		ident, ok := assign.LHS[0].(*parser.Ident)
		if !ok {
			continue
		}
		u.defines = append(u.defines, ident.Name)
		if len(assign.RHS) == 1 && isItem(assign.RHS[0]) {
			u.items = append(u.items, item{
				name: ident.Name,
				src:  code[offset(assign.Pos()):offset(assign.End())] + "\n",
			})
		}
		if bound(ident.Name) {
			// ":=" and " =" have the same width, so later offsets hold.
			at := offset(assign.TokenPos)
			copy(src[at:at+2], " =")
		}
	}

	u.src = string(src)
	if n := len(file.Stmts); n > 0 {
		if last, ok := file.Stmts[n-1].(*parser.ExprStmt); ok {
			start, end := offset(last.Pos()), offset(last.End())
			lineStart := strings.LastIndexByte(u.src[:start], '\n') + 1
			u.resultLine = strings.Count(u.src[:start], "\n") + 1
			u.src = u.src[:start] + resultName + " := (\n" +
				strings.Repeat(" ", start-lineStart) + u.src[start:end] + ")" + u.src[end:]
		}
	}
	return u, nil
}

func isItem(expr parser.Expr) bool {
	switch expr.(type) {
	case *parser.FuncLit, *parser.ImportExpr:
		return true
	}
	return false
}
