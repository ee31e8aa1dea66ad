package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itsmostafa/evalctl/internal/engine/tengoeval"
	"github.com/itsmostafa/evalctl/internal/history"
	"github.com/itsmostafa/evalctl/internal/render"
	"github.com/itsmostafa/evalctl/internal/session"
)

func newTestRepl(t *testing.T, startup string) (*repl, *history.Memory, *bytes.Buffer) {
	t.Helper()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, session.DefaultStartupFileName), []byte(startup), 0644); err != nil {
		t.Fatalf("failed to write startup file: %v", err)
	}
	eng, err := tengoeval.New()
	if err != nil {
		t.Fatalf("tengoeval.New failed: %v", err)
	}
	sess := session.New(eng, session.WithConfigDir(func() (string, bool) { return dir, true }))
	t.Cleanup(func() { sess.Close() })

	var out, errOut bytes.Buffer
	store := history.NewMemory()
	return newRepl(sess, render.New(&out, &errOut, false), store), store, &errOut
}

func TestReload(t *testing.T) {
	tests := []struct {
		name        string
		startup     string
		wantStopped bool
		wantErrOut  string
		wantEntries int
	}{
		{name: "replayed quit stops the loop", startup: ":quit\n", wantStopped: true},
		{name: "failure keeps the loop running", startup: ":nosuch\n", wantErrOut: "nosuch", wantEntries: 1},
		{name: "clean replay", startup: ":timing\n", wantEntries: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, store, errOut := newTestRepl(t, tt.startup)

			rp.reload()
			if rp.stopped() != tt.wantStopped {
				t.Errorf("stopped() = %v, want %v", rp.stopped(), tt.wantStopped)
			}
			if tt.wantErrOut != "" && !strings.Contains(errOut.String(), tt.wantErrOut) {
				t.Errorf("stderr = %q, want it to mention %q", errOut.String(), tt.wantErrOut)
			}

			if err := runBasicRepl(rp, strings.NewReader("x := 1\n")); err != nil {
				t.Fatalf("runBasicRepl failed: %v", err)
			}
			entries, _ := store.Recent(0)
			if len(entries) != tt.wantEntries {
				t.Errorf("history has %d entries, want %d", len(entries), tt.wantEntries)
			}
		})
	}
}
