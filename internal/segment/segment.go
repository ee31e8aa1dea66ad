// Package segment splits raw REPL input into code and meta-command
// fragments.
package segment

import (
	"strings"
	"unicode"
)

// Kind classifies a Segment.
type Kind int

const (
	// Code is source text for the evaluation engine.
	Code Kind = iota
	// Command is a single meta-command line.
	Command
)

// Marker starts every meta-command.
const Marker = ":"

// CommandCall is a meta-command name (including Marker) and the rest of
// its line. Args is nil when nothing followed the name.
type CommandCall struct {
	Name string
	Args *string
}

// Segment is one classified unit of input. Start and End are the byte
// offsets of the segment in the segmented text.
type Segment struct {
	Kind    Kind
	Code    string
	Command CommandCall
	Start   int
	End     int
}

// Segmenter produces the ordered segments of a block of input.
type Segmenter interface {
	Segment(text string) []Segment
}

// Lines is the default Segmenter. A line whose first non-blank character
// is Marker followed by a letter is a command; runs of other lines form
// one code segment each. Lines inside a back-quoted raw string are always
// code.
type Lines struct{}

// Segment implements Segmenter.
func (Lines) Segment(text string) []Segment {
	var (
		segments  []Segment
		code      strings.Builder
		codeStart int
		offset    int
		inRaw     bool
	)
	flush := func() {
		if code.Len() > 0 {
			segments = append(segments, Segment{
				Kind:  Code,
				Code:  code.String(),
				Start: codeStart,
				End:   codeStart + code.Len(),
			})
			code.Reset()
		}
	}

	for line := range strings.Lines(text) {
		start := offset
		offset += len(line)
		if !inRaw {
			if call, ok := parseCommand(line); ok {
				flush()
				segments = append(segments, Segment{Kind: Command, Command: call, Start: start, End: offset})
				continue
			}
		}
		inRaw = rawAfter(line, inRaw)
		if code.Len() == 0 {
			codeStart = start
		}
		code.WriteString(line)
	}
	flush()
	return segments
}

// rawAfter reports whether a back-quoted raw string is still open at the
// end of line. Back quotes inside quoted literals and after // are not
// delimiters.
func rawAfter(line string, inRaw bool) bool {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inRaw {
			if c == '`' {
				inRaw = false
			}
			continue
		}
		switch c {
		case '`':
			inRaw = true
		case '\'', '"':
			i = skipQuoted(line, i)
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return false
			}
		}
	}
	return inRaw
}

// skipQuoted returns the index of the quote closing the literal opened at
// line[open], or the last index when it is not closed on this line.
func skipQuoted(line string, open int) int {
	quote := line[open]
	for i := open + 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(line) - 1
}

func parseCommand(line string) (CommandCall, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, Marker) || len(trimmed) < 2 {
		return CommandCall{}, false
	}
	first := []rune(trimmed[len(Marker):])[0]
	if !unicode.IsLetter(first) {
		return CommandCall{}, false
	}

	name, rest := trimmed, ""
	if i := strings.IndexFunc(trimmed, unicode.IsSpace); i >= 0 {
		name, rest = trimmed[:i], trimmed[i:]
	}
	call := CommandCall{Name: name}
	if rest = strings.TrimSpace(rest); rest != "" {
		call.Args = &rest
	}
	return call, true
}
