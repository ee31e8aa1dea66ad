package tengoeval

import (
	"errors"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/parser"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// explanations maps a fragment of a compiler message to its long form.
var explanations = []struct {
	fragment string
	text     string
}{
	{
		fragment: "unresolved reference",
		text: "The name is not defined in this session. Define it with := first, " +
			"or check the spelling. Variables are lost after :clear and after a " +
			"runtime error unless :preserve-on-panic is enabled.\n",
	},
	{
		fragment: "not found",
		text: "import() only sees the standard library and modules declared with " +
			":add-dependency. Declare the module, then check that <name>.tengo " +
			"exists in one of the library directories.\n",
	},
	{
		fragment: "redeclared",
		text: "A name can only be defined once per block. Assign to it with = " +
			"instead of defining it again with :=.\n",
	},
	{
		fragment: "not allowed",
		text: "The statement is only valid inside a function or loop body.\n",
	},
	{
		fragment: "cannot assign to",
		text: "Only variables, map keys and array elements can be assigned to. " +
			"Values created with immutable() cannot be changed.\n",
	},
	{
		fragment: "expected",
		text: "The parser found a token it did not expect. Look for a missing " +
			"operand, an unbalanced bracket or a stray keyword near the reported " +
			"position.\n",
	},
}

func explain(message string) string {
	for _, e := range explanations {
		if strings.Contains(message, e.fragment) {
			return e.text
		}
	}
	return ""
}

// position maps a line in the compiled source back to the submitted code.
type position struct {
	prefixLines int
	resultLine  int
}

func (p position) line(compiled int) int {
	line := compiled - p.prefixLines
	if line <= 0 {
		// inside replayed definitions
		return 0
	}
	if p.resultLine > 0 && line > p.resultLine {
		line--
	}
	return line
}

// diagnose converts parser and compiler failures into CompilationErrors.
// Other errors are returned unchanged.
func diagnose(err error, pos position) error {
	var list parser.ErrorList
	if errors.As(err, &list) {
		out := make(engine.CompilationErrors, 0, len(list))
		for _, pe := range list {
			out = append(out, engine.NewCompilationError("parse", pe.Msg,
				pos.line(pe.Pos.Line), pe.Pos.Column, explain(pe.Msg)))
		}
		return out
	}

	var ce *tengo.CompilerError
	if errors.As(err, &ce) {
		msg := ce.Err.Error()
		line, column := 0, 0
		if ce.FileSet != nil && ce.Node != nil {
			p := ce.FileSet.Position(ce.Node.Pos())
			line, column = pos.line(p.Line), p.Column
		}
		return engine.CompilationErrors{
			engine.NewCompilationError("compile", msg, line, column, explain(msg)),
		}
	}
	return err
}
