package engine

import (
	"encoding/json"
	"strings"
)

// CompilationError is one compiler diagnostic. It is immutable once built.
type CompilationError struct {
	Message string
	Line    int
	Column  int
	Kind    string

	explanation string
	json        string
}

// NewCompilationError builds a diagnostic and its encoded form. An empty
// explanation means none is available.
func NewCompilationError(kind, message string, line, column int, explanation string) CompilationError {
	ce := CompilationError{
		Message:     message,
		Line:        line,
		Column:      column,
		Kind:        kind,
		explanation: explanation,
	}
	ce.json = ce.encode()
	return ce
}

// Explanation returns the long-form description of the diagnostic, if any.
func (e CompilationError) Explanation() (string, bool) {
	return e.explanation, e.explanation != ""
}

// JSON returns the machine-readable form of the diagnostic.
func (e CompilationError) JSON() string {
	return e.json
}

func (e CompilationError) encode() string {
	data, err := json.Marshal(struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Line    int    `json:"line,omitempty"`
		Column  int    `json:"column,omitempty"`
	}{e.Kind, e.Message, e.Line, e.Column})
	if err != nil {
		return ""
	}
	return string(data)
}

// CompilationErrors is returned by Engine.Eval when the submitted code does
// not compile.
type CompilationErrors []CompilationError

func (errs CompilationErrors) Error() string {
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.Message)
	}
	return b.String()
}
