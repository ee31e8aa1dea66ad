package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// fakeEngine records what the session asks of it.
type fakeEngine struct {
	engine.Settings

	events      []string
	evals       []string
	deps        []engine.Dependency
	vars        []engine.Variable
	evalOutput  engine.Outputs
	evalErr     error
	clearErr    error
	depErr      error
	completeErr error
	cleared     int
	lastPos     int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{Settings: engine.NewSettings("error", "embed", "file")}
}

func (f *fakeEngine) Eval(code string, cb *engine.Callbacks) (engine.Outputs, error) {
	f.events = append(f.events, "eval")
	f.evals = append(f.evals, code)
	if f.evalErr != nil {
		return engine.Outputs{}, f.evalErr
	}
	for _, line := range strings.Split(code, "\n") {
		if ref, ok := strings.CutPrefix(strings.TrimSpace(line), "use "); ok && !f.hasDep(ref) {
			return engine.Outputs{}, engine.CompilationErrors{
				engine.NewCompilationError("compile", "module '"+ref+"' not found", 1, 1, ""),
			}
		}
	}
	if f.evalOutput.ContentByMIME != nil {
		return f.evalOutput, nil
	}
	return engine.NewOutputs(), nil
}

func (f *fakeEngine) hasDep(name string) bool {
	for _, d := range f.deps {
		if d.Name == name {
			return true
		}
	}
	return false
}

func (f *fakeEngine) Completions(code string, pos int) (engine.Completions, error) {
	f.lastPos = pos
	if f.completeErr != nil {
		return engine.Completions{}, f.completeErr
	}
	var names []string
	for _, d := range f.deps {
		names = append(names, d.Name)
	}
	return engine.RankCandidates(code, pos, names), nil
}

func (f *fakeEngine) Clear() error {
	f.events = append(f.events, "clear")
	f.cleared++
	return f.clearErr
}

func (f *fakeEngine) AddDependency(name, spec string, mode engine.ApplyMode) error {
	f.events = append(f.events, "dep:"+name+":"+mode.String())
	if f.depErr != nil {
		return f.depErr
	}
	f.deps = append(f.deps, engine.Dependency{Name: name, Spec: spec})
	return nil
}

func (f *fakeEngine) SetTimePasses(on bool) {
	f.events = append(f.events, fmt.Sprintf("time-passes:%t", on))
	f.Settings.SetTimePasses(on)
}

func (f *fakeEngine) LastCompileDir() string { return "/tmp/evalctl-work" }
func (f *fakeEngine) Variables() []engine.Variable { return f.vars }
func (f *fakeEngine) PreludeFileName() string { return "prelude.tengo" }
func (f *fakeEngine) Close() error { return nil }

func plainText(t *testing.T, out engine.Outputs) string {
	t.Helper()
	text, ok := out.Get(engine.MIMEText)
	if !ok {
		t.Fatalf("expected text/plain output, got %v", out.ContentByMIME)
	}
	return text
}

func TestExecute_CodeOnly(t *testing.T) {
	eng := newFakeEngine()
	eng.evalOutput = engine.TextOutputs("42\n")
	s := New(eng)

	out, err := s.Execute("x := 40 + 2\nx\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plainText(t, out); got != "42\n" {
		t.Errorf("output = %q, want %q", got, "42\n")
	}
	if out.Timing != nil {
		t.Error("timing attached while timing is disabled")
	}
	if len(eng.evals) != 1 || eng.evals[0] != "x := 40 + 2\nx\n" {
		t.Errorf("evals = %q", eng.evals)
	}
}

func TestExecute_EmptyInputSkipsEngine(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	out, err := s.Execute("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsEmpty() {
		t.Errorf("expected empty outputs, got %v", out.ContentByMIME)
	}
	if len(eng.evals) != 0 {
		t.Errorf("engine evaluated %d times for empty input", len(eng.evals))
	}
}

func TestExecute_CommandsRunBeforeCode(t *testing.T) {
	eng := newFakeEngine()
	eng.evalOutput = engine.TextOutputs("eval\n")
	s := New(eng)

	input := "a := 1\n:toggle-pass-timing\nb := 2\n:toggle-pass-timing\nc := 3\n"
	out, err := s.Execute(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"time-passes:true", "time-passes:false", "eval"}
	if strings.Join(eng.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", eng.events, want)
	}
	if len(eng.evals) != 1 || eng.evals[0] != "a := 1\nb := 2\nc := 3\n" {
		t.Errorf("evals = %q, want the code fragments joined in order", eng.evals)
	}
	// The evaluation result is merged last and wins the text/plain key.
	if got := plainText(t, out); got != "eval\n" {
		t.Errorf("output = %q, want evaluation output", got)
	}
}

func TestExecute_LaterCommandOverwritesEarlier(t *testing.T) {
	s := New(newFakeEngine())

	out, err := s.Execute(":toggle-timing\n:toggle-timing\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plainText(t, out); got != "Timing: false\n" {
		t.Errorf("output = %q, want last command's status", got)
	}
}

func TestExecute_Timing(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	if _, err := s.Execute(":timing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Execute("x := 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Timing == nil {
		t.Fatal("expected timing once enabled")
	}
	if *out.Timing < 0 {
		t.Errorf("negative timing %v", *out.Timing)
	}
}

func TestExecute_NonCompilationErrorIsAtomic(t *testing.T) {
	eng := newFakeEngine()
	eng.evalErr = errors.New("disk full")
	s := New(eng)

	out, err := s.Execute(":timing\nx := 1\n")
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("err = %v, want disk full", err)
	}
	if !out.IsEmpty() {
		t.Errorf("expected no outputs on failure, got %v", out.ContentByMIME)
	}
	if len(s.LastErrors()) != 0 {
		t.Error("non-compilation error must not be recorded")
	}
}

func TestExecute_CommandErrorStopsInput(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	_, err := s.Execute(":toggle-pass-timing\n:nosuch\n:toggle-pass-timing\nx := 1\n")
	var unknown *UnknownCommandError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
	if unknown.Name != ":nosuch" {
		t.Errorf("Name = %q, want :nosuch", unknown.Name)
	}
	if len(eng.events) != 1 {
		t.Errorf("events = %v, want only the first command", eng.events)
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	s := New(newFakeEngine())

	_, err := s.Execute(":explian-last-error")
	var unknown *UnknownCommandError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
	if unknown.Suggestion != ":explain-last-error" {
		t.Errorf("Suggestion = %q, want :explain-last-error", unknown.Suggestion)
	}
	if !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error %q does not carry the suggestion", err)
	}
}

func TestQuit(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	_, err := s.Execute(":quit\n:toggle-pass-timing\n")
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("err = %v, want ErrQuit", err)
	}
	if len(eng.events) != 0 {
		t.Errorf("commands after :quit ran: %v", eng.events)
	}
}

func TestLastFailureLifecycle(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	_, err := s.Execute(":explain-last-error")
	if !errors.Is(err, ErrNoLastError) {
		t.Fatalf("err = %v, want ErrNoLastError", err)
	}

	_, err = s.Execute("use missing\n")
	var compErrs engine.CompilationErrors
	if !errors.As(err, &compErrs) {
		t.Fatalf("err = %v, want CompilationErrors", err)
	}

	_, err = s.Execute(":explain")
	if !errors.Is(err, ErrNoExplanation) {
		t.Fatalf("err = %v, want ErrNoExplanation", err)
	}

	// A later success leaves the record in place.
	if _, err := s.Execute("x := 1\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.LastErrors()) != 1 {
		t.Fatalf("LastErrors() = %d records, want 1", len(s.LastErrors()))
	}

	// Other failures leave it in place too.
	eng.evalErr = errors.New("io")
	_, _ = s.Execute("x := 1\n")
	if got := s.LastErrors()[0].Message; got != "module 'missing' not found" {
		t.Errorf("last error = %q", got)
	}
}

func TestExplainLastError(t *testing.T) {
	eng := newFakeEngine()
	eng.evalErr = engine.CompilationErrors{
		engine.NewCompilationError("parse", "expected ';'", 1, 3, "A statement ended early.\n"),
		engine.NewCompilationError("parse", "unexpected EOF", 2, 1, "Input ended inside a block.\n"),
	}
	s := New(eng)
	_, _ = s.Execute("broken(\n")

	out, err := s.Execute(":explain-last-error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "A statement ended early.\nInput ended inside a block.\n\n"
	if got := plainText(t, out); got != want {
		t.Errorf("explanation = %q, want %q", got, want)
	}
}

func TestLastErrorEncoded(t *testing.T) {
	eng := newFakeEngine()
	first := engine.NewCompilationError("parse", "expected ';'", 1, 3, "")
	second := engine.NewCompilationError("compile", "unresolved reference 'y'", 2, 1, "")
	eng.evalErr = engine.CompilationErrors{first, second}
	s := New(eng)
	_, _ = s.Execute("x := \ny\n")

	_, err := s.Execute(":last-error-encoded")
	var encoded *EncodedDiagnosticsError
	if !errors.As(err, &encoded) {
		t.Fatalf("err = %v, want EncodedDiagnosticsError", err)
	}
	want := first.JSON() + "\n" + second.JSON() + "\n"
	if encoded.JSON != want {
		t.Errorf("encoded = %q, want %q", encoded.JSON, want)
	}
}

func TestOptLevelToggle(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)
	original := eng.OptLevel()

	out, err := s.Execute(":set-opt-level")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plainText(t, out); got != "Optimization: 0\n" {
		t.Errorf("first toggle = %q", got)
	}
	if _, err := s.Execute(":opt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.OptLevel() != original {
		t.Errorf("two toggles gave %q, want %q", eng.OptLevel(), original)
	}

	if _, err := s.Execute(":opt 7"); err == nil {
		t.Error("expected invalid level to fail")
	}
	if err := s.SetOptLevel("1"); err != nil || eng.OptLevel() != "1" {
		t.Errorf("SetOptLevel(1) = %v, level %q", err, eng.OptLevel())
	}
}

func TestStatusCommands(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{":toggle-internal-debug", "Internals debugging: true\n"},
		{":preserve-on-panic 1", "Preserve vars on panic: true\n"},
		{":preserve-on-panic yes", "Preserve vars on panic: false\n"},
		{":preserve_vars_on_panic", "Preserve vars on panic: false\n"},
		{":last-compile-dir", "\"/tmp/evalctl-work\"\n"},
		{":set-output-format %q", "Output format: %q\n"},
		{":fmt", "Output format: %v\n"},
		{":set-error-format", "Error format: %v (errors must implement error)\n"},
		{":efmt failed: %v", "Error format: failed: %v (errors must implement error)\n"},
		{":toggle-timing", "Timing: true\n"},
		{":set-cache-backend 0", "Compilation cache: false\n"},
		{":sccache", "Compilation cache: true\n"},
		{":set-linker file", "linker: file\n"},
		{":linker", "linker: embed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := New(newFakeEngine())
			out, err := s.Execute(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := plainText(t, out); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetErrorFormatRejected(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	if _, err := s.Execute(":set-error-format no verb"); err == nil {
		t.Fatal("expected a format without a verb to be rejected")
	}
	if eng.ErrorFormat() != engine.DefaultErrorFormat {
		t.Errorf("rejected format changed state to %q", eng.ErrorFormat())
	}
}

func TestSetLinkerRejectsUnknown(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	if _, err := s.Execute(":set-linker zzz"); err == nil {
		t.Fatal("expected an unknown linker to be rejected")
	}
	if eng.Linker() != "embed" {
		t.Errorf("rejected linker changed state to %q", eng.Linker())
	}

	out, err := s.Execute(":set-linker file")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plainText(t, out); got != "linker: file\n" {
		t.Errorf("output = %q", got)
	}
	if eng.EffectiveLinker() != "file" {
		t.Errorf("effective linker = %q, want file", eng.EffectiveLinker())
	}
}

func TestVersionAndHelp(t *testing.T) {
	s := New(newFakeEngine())

	out, err := s.Execute(":version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plainText(t, out); got == "" || !strings.HasSuffix(got, "\n") {
		t.Errorf("version output = %q", got)
	}

	out, err = s.Execute(":help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(plainText(t, out), ":list-vars") {
		t.Error("help does not list :list-vars")
	}
}

func TestClear(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	out, err := s.Execute(":clear")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsEmpty() || eng.cleared != 1 {
		t.Errorf("clear: outputs %v, cleared %d", out.ContentByMIME, eng.cleared)
	}

	eng.clearErr = errors.New("cannot reset")
	if _, err := s.Execute(":clear"); err == nil {
		t.Error("expected engine reset failure to propagate")
	}
}

func TestListVars(t *testing.T) {
	eng := newFakeEngine()
	eng.vars = []engine.Variable{
		{Name: "count", Type: "int"},
		{Name: "items", Type: "array<map>"},
	}
	s := New(eng)

	out, err := s.Execute(":vars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantText := "count: int\nitems: array<map>\n"
	if got := plainText(t, out); got != wantText {
		t.Errorf("text = %q, want %q", got, wantText)
	}
	html, ok := out.Get(engine.MIMEHTML)
	if !ok {
		t.Fatal("expected text/html output")
	}
	wantHTML := "<table><tr><th>Variable</th><th>Type</th></tr>" +
		"<tr><td>count</td><td>int</td></tr>" +
		"<tr><td>items</td><td>array&lt;map&gt;</td></tr>" +
		"</table>"
	if html != wantHTML {
		t.Errorf("html = %q, want %q", html, wantHTML)
	}
}

func TestParseDependency(t *testing.T) {
	tests := []struct {
		name     string
		args     *string
		wantName string
		wantSpec string
		wantErr  bool
	}{
		{name: "quoted spec", args: ptr(`foo = "1.0"`), wantName: "foo", wantSpec: "1.0"},
		{name: "bare spec", args: ptr("foo=1.0"), wantName: "foo", wantSpec: "1.0"},
		{name: "name only", args: ptr("foo"), wantName: "foo", wantSpec: "*"},
		{name: "table spec", args: ptr(`foo = { path = "../foo" }`), wantName: "foo", wantSpec: `{ path = "../foo" }`},
		{name: "missing", args: nil, wantErr: true},
		{name: "two names", args: ptr("foo bar"), wantErr: true},
		{name: "empty spec", args: ptr("foo ="), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, err := ParseDependency(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDependency() expected error, got %+v", dep)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDependency() unexpected error: %v", err)
			}
			if dep.Name != tt.wantName || dep.Spec != tt.wantSpec {
				t.Errorf("ParseDependency() = (%q, %q), want (%q, %q)", dep.Name, dep.Spec, tt.wantName, tt.wantSpec)
			}
		})
	}
}

func TestAddDependencyCommand(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	if _, err := s.Execute(`:add-dependency foo = "1.0"`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eng.deps) != 1 || eng.deps[0] != (engine.Dependency{Name: "foo", Spec: "1.0"}) {
		t.Errorf("deps = %+v", eng.deps)
	}
	if eng.events[0] != "dep:foo:strict" {
		t.Errorf("event = %q, want strict application", eng.events[0])
	}

	if _, err := s.Execute(":dep"); err == nil {
		t.Error("expected :dep without arguments to fail")
	}
}

func TestLoadConfigOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultStartupFileName), ":dep foo\n:timing\n")
	writeFile(t, filepath.Join(dir, "prelude.tengo"), "use foo\nx := 1\n")

	eng := newFakeEngine()
	s := New(eng, WithConfigDir(func() (string, bool) { return dir, true }))

	out, err := s.Execute(":load-config")
	if err != nil {
		t.Fatalf("load-config failed: %v", err)
	}
	if !eng.hasDep("foo") {
		t.Error("dependency from startup file was not applied")
	}
	if len(eng.evals) != 1 || eng.evals[0] != "use foo\nx := 1\n" {
		t.Errorf("evals = %q, want the prelude once", eng.evals)
	}
	if got := plainText(t, out); got != "Timing: true\n" {
		t.Errorf("output = %q", got)
	}
}

func TestLoadConfigTimingFollowsOuterCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultStartupFileName), "x := 1\n:timing\n")

	s := New(newFakeEngine(), WithConfigDir(func() (string, bool) { return dir, true }))
	if _, err := s.Execute(":timing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := s.Execute(":load-config")
	if err != nil {
		t.Fatalf("load-config failed: %v", err)
	}
	if out.Timing != nil {
		t.Errorf("timing = %v after the startup file turned it off", *out.Timing)
	}
}

func TestLoadConfigAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultStartupFileName), ":nosuch\n")
	writeFile(t, filepath.Join(dir, "prelude.tengo"), "x := 1\n")

	eng := newFakeEngine()
	s := New(eng, WithConfigDir(func() (string, bool) { return dir, true }))

	if _, err := s.Execute(":load-config"); err == nil {
		t.Fatal("expected startup failure to propagate")
	}
	if len(eng.evals) != 0 {
		t.Error("prelude ran after a failing startup file")
	}
}

func TestLoadConfigWithoutDir(t *testing.T) {
	s := New(newFakeEngine(), WithConfigDir(func() (string, bool) { return "", false }))

	out, err := s.Execute(":load-config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsEmpty() {
		t.Errorf("expected no output, got %v", out.ContentByMIME)
	}
}

func TestLoadConfigPreludeOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prelude.tengo"), "use bar\n")

	s := New(newFakeEngine(), WithConfigDir(func() (string, bool) { return dir, true }))

	_, err := s.Execute(":load-config")
	var compErrs engine.CompilationErrors
	if !errors.As(err, &compErrs) {
		t.Fatalf("err = %v, want the prelude's compilation failure", err)
	}
	if len(s.LastErrors()) != 1 {
		t.Error("prelude compilation failure was not recorded")
	}
}

func TestCompletionsAppliesDependenciesAdvisory(t *testing.T) {
	eng := newFakeEngine()
	s := New(eng)

	src := ":dep fooba\nx := foo"
	got, err := s.Completions(src, len(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.events[0] != "dep:fooba:advisory" {
		t.Errorf("events = %v, want advisory dependency", eng.events)
	}
	if len(got.Items) != 1 || got.Items[0].Code != "fooba" {
		t.Errorf("items = %+v", got.Items)
	}
	if src[got.StartOffset:got.EndOffset] != "foo" {
		t.Errorf("offsets [%d,%d) select %q, want foo", got.StartOffset, got.EndOffset, src[got.StartOffset:got.EndOffset])
	}
	if len(eng.evals) != 0 {
		t.Error("completion must not evaluate code")
	}
	// The declaration outlives the query.
	if !eng.hasDep("fooba") {
		t.Error("advisory dependency was rolled back")
	}
}

func TestCompletionsIgnoresDependencyFailure(t *testing.T) {
	eng := newFakeEngine()
	eng.depErr = errors.New("registry unreachable")
	s := New(eng)

	if _, err := s.Completions(":dep foo\n:dep\nfo", 16); err != nil {
		t.Fatalf("dependency failure leaked from completion: %v", err)
	}
	if _, err := s.Completions(":timing\nx", 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.printTimings {
		t.Error("completion ran a non-dependency command")
	}
}

func TestCompletionsCommandNames(t *testing.T) {
	s := New(newFakeEngine())

	got, err := s.Completions("x := 1\n:tog", 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) == 0 {
		t.Fatal("expected command name candidates")
	}
	for _, item := range got.Items {
		if !strings.HasPrefix(item.Code, ":tog") {
			t.Errorf("candidate %q does not extend :tog", item.Code)
		}
	}
	if got.StartOffset != 7 || got.EndOffset != 11 {
		t.Errorf("offsets = [%d,%d), want [7,11)", got.StartOffset, got.EndOffset)
	}
}

func TestCompletionsEngineError(t *testing.T) {
	eng := newFakeEngine()
	eng.completeErr = errors.New("analysis failed")
	s := New(eng)

	if _, err := s.Completions("x", 1); err == nil {
		t.Error("expected engine completion error to propagate")
	}
}

func TestCommandTableIsClosed(t *testing.T) {
	for c := CmdToggleInternalDebug; c <= CmdHelp; c++ {
		got, ok := LookupCommand(c.String())
		if !ok || got != c {
			t.Errorf("LookupCommand(%q) = %v, %v", c.String(), got, ok)
		}
	}
	for alias, c := range aliases {
		if got, ok := LookupCommand(alias); !ok || got != c {
			t.Errorf("alias %s resolves to %v", alias, got)
		}
	}
}

func ptr(s string) *string { return &s }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
