package luaeval

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// Load errors read "<chunk>:<line>: <message>".
var locationPattern = regexp.MustCompile(`^[^:]*:(\d+): (.*)$`)

var explanations = map[string]string{
	"unexpected symbol": "The parser found a token that cannot start or continue " +
		"a statement here. Lua does not accept a bare expression as a statement " +
		"except on the last line.\n",
	"'end' expected": "A function, if, for or while block is missing its closing end.\n",
	"unfinished string": "A string literal is missing its closing quote.\n",
	"malformed number": "A numeric literal has characters that do not belong to " +
		"any number format.\n",
	"'=' expected": "A name at the start of a statement must be followed by an " +
		"assignment or a call.\n",
}

func explain(message string) string {
	for fragment, text := range explanations {
		if strings.Contains(message, fragment) {
			return text
		}
	}
	return ""
}

// diagnose turns a load error message into CompilationErrors.
func diagnose(msg string) engine.CompilationErrors {
	line := 0
	if m := locationPattern.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		msg = m[2]
	}
	return engine.CompilationErrors{engine.NewCompilationError("syntax", msg, line, 0, explain(msg))}
}
