// Package session turns a block of REPL input into a sequence of effects
// against an evaluation engine: meta-commands run as they are found, code
// is collected and evaluated once, and every result is merged into one
// engine.Outputs.
package session

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/evalctl/internal/engine"
	"github.com/itsmostafa/evalctl/internal/segment"
)

// ConfigDirFunc resolves the configuration directory. ok is false when
// there is none.
type ConfigDirFunc func() (dir string, ok bool)

// Session is a REPL session bound to one engine.
//
// A Session is not safe for concurrent use: a call must return before the
// next one starts. Hosts that accept input from several goroutines have
// to serialise access.
type Session struct {
	id           string
	engine       engine.Engine
	segmenter    segment.Segmenter
	configDir    ConfigDirFunc
	startupFile  string
	logger       *slog.Logger
	printTimings bool
	lastErrors   []engine.CompilationError
}

// Option configures a Session.
type Option func(*Session)

// WithSegmenter replaces the default line segmenter.
func WithSegmenter(seg segment.Segmenter) Option {
	return func(s *Session) {
		s.segmenter = seg
	}
}

// WithConfigDir sets the resolver used by :load-config.
func WithConfigDir(fn ConfigDirFunc) Option {
	return func(s *Session) {
		s.configDir = fn
	}
}

// WithStartupFileName overrides DefaultStartupFileName.
func WithStartupFileName(name string) Option {
	return func(s *Session) {
		s.startupFile = name
	}
}

// WithLogger sets the logger for session diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a Session that takes ownership of eng.
func New(eng engine.Engine, opts ...Option) *Session {
	s := &Session{
		id:          uuid.New().String(),
		engine:      eng,
		segmenter:   segment.Lines{},
		startupFile: DefaultStartupFileName,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Close releases the engine.
func (s *Session) Close() error {
	return s.engine.Close()
}

// Execute runs text with no callbacks.
func (s *Session) Execute(text string) (engine.Outputs, error) {
	return s.ExecuteWithCallbacks(text, nil)
}

// ExecuteWithCallbacks runs every meta-command in text immediately, in
// the order written, then evaluates all code fragments of text as one
// unit. Command outputs are merged first and the evaluation output last,
// whatever the interleaving in text. On error nothing is returned: the
// call either fully succeeds or fails.
//
// A compilation failure replaces the recorded last failure before it is
// returned. Successful calls leave the record untouched.
func (s *Session) ExecuteWithCallbacks(text string, cb *engine.Callbacks) (engine.Outputs, error) {
	start := time.Now()
	outputs := engine.NewOutputs()

	var code strings.Builder
	for _, seg := range s.segmenter.Segment(text) {
		if seg.Kind == segment.Command {
			out, err := s.processCommand(seg.Command.Name, seg.Command.Args)
			if err != nil {
				return engine.Outputs{}, err
			}
			outputs.Merge(out)
			continue
		}
		code.WriteString(seg.Code)
	}

	result := engine.NewOutputs()
	if code.Len() > 0 {
		var err error
		result, err = s.engine.Eval(code.String(), cb)
		if err != nil {
			var compErrs engine.CompilationErrors
			if errors.As(err, &compErrs) {
				s.lastErrors = slices.Clone(compErrs)
				s.logger.Debug("compilation failed", "diagnostics", len(compErrs))
			}
			return engine.Outputs{}, err
		}
	}
	elapsed := time.Since(start)

	outputs.Merge(result)
	if s.printTimings {
		outputs.Timing = &elapsed
	}
	return outputs, nil
}

// SetOptLevel sets the engine optimization level.
func (s *Session) SetOptLevel(level string) error {
	return s.engine.SetOptLevel(level)
}

// LastErrors returns the most recent compilation failure. It may be stale:
// it is only replaced by the next compilation failure.
func (s *Session) LastErrors() []engine.CompilationError {
	return slices.Clone(s.lastErrors)
}

// Completions returns candidates at the byte offset pos of src.
//
// Dependency declarations in src are applied to the engine in advisory
// mode so that code referring to them can be analysed. This changes the
// session: failures are ignored and successful declarations stay in
// effect afterwards. Other meta-commands are not run. When pos falls on a
// meta-command name, command names are completed instead.
func (s *Session) Completions(src string, pos int) (engine.Completions, error) {
	var (
		code      strings.Builder
		codePos   = -1
		shift     int
		onCommand *segment.Segment
	)
	for _, seg := range s.segmenter.Segment(src) {
		if seg.Kind == segment.Command {
			if cmd, ok := LookupCommand(seg.Command.Name); ok && cmd == CmdAddDependency {
				s.applyAdvisoryDependency(seg.Command.Args)
			}
			if pos >= seg.Start && pos <= seg.End {
				onCommand = &seg
			}
			continue
		}
		if codePos < 0 && pos >= seg.Start && pos <= seg.End {
			codePos = code.Len() + (pos - seg.Start)
			shift = seg.Start - code.Len()
		}
		code.WriteString(seg.Code)
	}

	if onCommand != nil && codePos < 0 {
		return completeCommandName(src, pos, *onCommand), nil
	}
	if codePos < 0 {
		codePos = code.Len()
		shift = len(src) - code.Len()
	}

	completions, err := s.engine.Completions(code.String(), codePos)
	if err != nil {
		return engine.Completions{}, err
	}
	completions.StartOffset += shift
	completions.EndOffset += shift
	return completions, nil
}

// applyAdvisoryDependency is the only place the session drops an error:
// completion is advisory and must not fail because a declaration does.
func (s *Session) applyAdvisoryDependency(args *string) {
	if _, err := s.addDependency(args, engine.Advisory); err != nil {
		s.logger.Debug("ignoring dependency error during completion", "err", err)
	}
}

func completeCommandName(src string, pos int, seg segment.Segment) engine.Completions {
	line := src[seg.Start:seg.End]
	nameStart := seg.Start + strings.Index(line, seg.Command.Name)
	nameEnd := nameStart + len(seg.Command.Name)
	if pos < nameStart || pos > nameEnd {
		return engine.Completions{StartOffset: pos, EndOffset: pos}
	}

	prefix := src[nameStart:pos]
	out := engine.Completions{StartOffset: nameStart, EndOffset: nameEnd}
	for _, name := range CommandNames() {
		if strings.HasPrefix(name, prefix) {
			out.Items = append(out.Items, engine.Completion{Code: name})
		}
	}
	return out
}
