package jseval

import (
	"errors"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/itsmostafa/evalctl/internal/engine"
)

var explanations = map[string]string{
	"Unexpected end of input": "The code stopped in the middle of an expression or block. " +
		"Check for a missing closing bracket, brace or parenthesis.\n",
	"Unexpected token": "The parser found a token it did not expect here. " +
		"Look for a missing operator, comma or semicolon just before it.\n",
	"Invalid left-hand side in assignment": "Only variables, properties and " +
		"destructuring patterns can be assigned to.\n",
	"already been declared": "A let, const or class binding with this name already " +
		"exists in the same scope. Use assignment, or a different name.\n",
}

func explain(message string) string {
	for fragment, text := range explanations {
		if strings.Contains(message, fragment) {
			return text
		}
	}
	return ""
}

// diagnose converts syntax errors into CompilationErrors. Other errors are
// returned unchanged.
func diagnose(err error) error {
	var list parser.ErrorList
	if errors.As(err, &list) {
		out := make(engine.CompilationErrors, 0, len(list))
		for _, pe := range list {
			out = append(out, engine.NewCompilationError("syntax", pe.Message,
				pe.Position.Line, pe.Position.Column, explain(pe.Message)))
		}
		return out
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return engine.CompilationErrors{compilerDiagnostic("syntax", syntax.CompilerError)}
	}
	var reference *goja.CompilerReferenceError
	if errors.As(err, &reference) {
		return engine.CompilationErrors{compilerDiagnostic("reference", reference.CompilerError)}
	}
	return err
}

func compilerDiagnostic(kind string, ce goja.CompilerError) engine.CompilationError {
	line, column := 0, 0
	if ce.File != nil {
		pos := ce.File.Position(ce.Offset)
		line, column = pos.Line, pos.Column
	}
	return engine.NewCompilationError(kind, ce.Message, line, column, explain(ce.Message))
}
