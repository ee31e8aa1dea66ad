package session

import (
	"strings"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// varsAsText renders one "name: type" line per variable.
func varsAsText(vars []engine.Variable) string {
	var out strings.Builder
	for _, v := range vars {
		out.WriteString(v.Name)
		out.WriteString(": ")
		out.WriteString(v.Type)
		out.WriteString("\n")
	}
	return out.String()
}

// varsAsHTML renders the same variables as an HTML table.
func varsAsHTML(vars []engine.Variable) string {
	var out strings.Builder
	out.WriteString("<table><tr><th>Variable</th><th>Type</th></tr>")
	for _, v := range vars {
		out.WriteString("<tr><td>")
		htmlEscape(&out, v.Name)
		out.WriteString("</td><td>")
		htmlEscape(&out, v.Type)
		out.WriteString("</td></tr>")
	}
	out.WriteString("</table>")
	return out.String()
}

// htmlEscape escapes angle brackets only; that is enough to keep a name
// or type from injecting markup into the table.
func htmlEscape(out *strings.Builder, s string) {
	for _, ch := range s {
		switch ch {
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		default:
			out.WriteRune(ch)
		}
	}
}

func (s *Session) listVars() engine.Outputs {
	vars := s.engine.Variables()
	out := engine.NewOutputs()
	out.ContentByMIME[engine.MIMEText] = varsAsText(vars)
	out.ContentByMIME[engine.MIMEHTML] = varsAsHTML(vars)
	return out
}
