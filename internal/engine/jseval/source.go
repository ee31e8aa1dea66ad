package jseval

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/dop251/goja/token"
)

// hoistLexical rewrites top-level let and const declarations to var so a
// later submission can redeclare them and so they show up as global
// properties. The keyword is replaced in place, padded to the same width,
// so offsets in diagnostics still match the submitted code. Code that does
// not parse is returned unchanged for the compiler to report.
func hoistLexical(code string) string {
	prg, err := parser.ParseFile(nil, "", code, 0)
	if err != nil {
		return code
	}

	var src []byte
	for _, stmt := range prg.Body {
		decl, ok := stmt.(*ast.LexicalDeclaration)
		if !ok {
			continue
		}
		// Without a file set the parser numbers bytes from 1.
		off := int(decl.Idx) - 1
		var keyword string
		switch decl.Token {
		case token.LET:
			keyword = "let"
		case token.CONST:
			keyword = "const"
		default:
			continue
		}
		if off < 0 || off+len(keyword) > len(code) || code[off:off+len(keyword)] != keyword {
			continue
		}
		if src == nil {
			src = []byte(code)
		}
		copy(src[off:], "var  "[:len(keyword)])
	}
	if src == nil {
		return code
	}
	return string(src)
}
