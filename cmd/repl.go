package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/itsmostafa/evalctl/internal/configwatch"
	"github.com/itsmostafa/evalctl/internal/engine"
	"github.com/itsmostafa/evalctl/internal/history"
	"github.com/itsmostafa/evalctl/internal/render"
	"github.com/itsmostafa/evalctl/internal/session"
	"github.com/itsmostafa/evalctl/internal/version"
)

const (
	promptMain = "evalctl> "
	promptCont = "...      "

	// historyLimit is how many past inputs are loaded into the line editor.
	historyLimit = 1000
)

var (
	replLoadConfig bool
	replWatch      bool
	replNoHistory  bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Start an interactive session. A line ending in '\' continues on the next
line; the lines are submitted together.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	addReplFlags(replCmd)
	rootCmd.AddCommand(replCmd)
}

func addReplFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&replLoadConfig, "load-config", false, "Run :load-config before the first prompt")
	cmd.Flags().BoolVar(&replWatch, "watch", false, "Replay startup files whenever they change")
	cmd.Flags().BoolVar(&replNoHistory, "no-history", false, "Do not read or write the history database")
}

// repl serialises the prompt loop and the config watcher over one session.
type repl struct {
	mu      sync.Mutex
	sess    *session.Session
	r       *render.Renderer
	history history.Store

	// prompting is set while liner owns the terminal.
	prompting bool
	quit      chan struct{}
	quitOnce  sync.Once
}

func newRepl(sess *session.Session, r *render.Renderer, store history.Store) *repl {
	return &repl{sess: sess, r: r, history: store, quit: make(chan struct{})}
}

// stop makes the prompt loop return before its next submission.
func (rp *repl) stop() { rp.quitOnce.Do(func() { close(rp.quit) }) }

func (rp *repl) stopped() bool {
	select {
	case <-rp.quit:
		return true
	default:
		return false
	}
}

func (rp *repl) submit(input string) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	err := submit(rp.sess, rp.r, input)
	outcome := history.OutcomeOK
	if err != nil {
		outcome = history.OutcomeError
	}
	if herr := rp.history.Append(history.NewEntry(rp.sess.ID(), input, outcome)); herr != nil {
		logger.Warn("failed to record history", "err", herr)
	}
	return err
}

func (rp *repl) complete(line string, pos int) (string, []string, string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	// liner positions count runes; completion offsets count bytes.
	bytePos := len(string([]rune(line)[:pos]))
	c, err := rp.sess.Completions(line, bytePos)
	if err != nil {
		logger.Debug("completion failed", "err", err)
		return line[:bytePos], nil, line[bytePos:]
	}
	if c.StartOffset < 0 || c.StartOffset > c.EndOffset || c.EndOffset > len(line) {
		return line[:bytePos], nil, line[bytePos:]
	}
	items := make([]string, len(c.Items))
	for i, item := range c.Items {
		items[i] = item.Code
	}
	return line[:c.StartOffset], items, line[c.EndOffset:]
}

func (rp *repl) reload() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	logger.Info("startup files changed, replaying")
	if rp.prompting {
		// Move off the pending prompt line.
		rp.r.Print("\n")
	}
	err := submit(rp.sess, rp.r, ":load-config")
	switch {
	case errors.Is(err, session.ErrQuit):
		logger.Info("replayed startup file quit the session")
		rp.stop()
	case err != nil:
		logger.Debug("replay failed", "err", err)
	}
}

func runRepl(cmd *cobra.Command, _ []string) error {
	sess, eng, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	rp := newRepl(sess, newRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr()), openHistory())
	defer rp.history.Close()

	if replLoadConfig {
		if err := rp.submit(":load-config"); err != nil {
			return errors.Join(errReported, err)
		}
	}

	if replWatch {
		if w := startWatcher(cmd.Context(), rp, eng); w != nil {
			defer w.Close()
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runBasicRepl(rp, cmd.InOrStdin())
	}
	return runLinerRepl(rp, string(cfg.Lang))
}

func startWatcher(ctx context.Context, rp *repl, eng engine.Engine) *configwatch.Watcher {
	dir, ok := cfg.Dir()
	if !ok {
		return nil
	}
	names := []string{session.DefaultStartupFileName, eng.PreludeFileName()}
	w, err := configwatch.Start(ctx, dir, names, rp.reload, configwatch.WithLogger(logger))
	if err != nil {
		logger.Warn("config watcher disabled", "err", err)
		return nil
	}
	return w
}

// openHistory opens the history database, falling back to memory.
func openHistory() history.Store {
	path := cfg.HistoryPath()
	if replNoHistory || path == "" {
		return history.NewMemory()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Warn("history kept in memory", "err", err)
		return history.NewMemory()
	}
	store, err := history.NewSQLite(path)
	if err != nil {
		logger.Warn("history kept in memory", "path", path, "err", err)
		return history.NewMemory()
	}
	return store
}

func runLinerRepl(rp *repl, lang string) error {
	rp.r.Banner(lang, version.Version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)
	ln.SetWordCompleter(rp.complete)

	past, err := rp.history.Recent(historyLimit)
	if err != nil {
		logger.Warn("failed to load history", "err", err)
	}
	for _, e := range past {
		ln.AppendHistory(strings.ReplaceAll(e.Input, "\n", " "))
	}

	rp.mu.Lock()
	rp.prompting = true
	rp.mu.Unlock()

	for {
		input, err := readSubmission(ln)
		if rp.stopped() {
			return nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		if err := rp.submit(input); errors.Is(err, session.ErrQuit) {
			return nil
		}
	}
}

// readSubmission reads lines until one does not end in a backslash.
func readSubmission(ln *liner.State) (string, error) {
	var b strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			return "", err
		}
		cont := strings.HasSuffix(line, `\`)
		if cont {
			line = strings.TrimSuffix(line, `\`)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !cont {
			return b.String(), nil
		}
		prompt = promptCont
	}
}

// runBasicRepl handles piped input: no prompt, no line editing.
func runBasicRepl(rp *repl, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasSuffix(line, `\`) {
			b.WriteString(strings.TrimSuffix(line, `\`))
			b.WriteByte('\n')
			continue
		}
		if rp.stopped() {
			return nil
		}
		b.WriteString(line)
		input := b.String()
		b.Reset()
		if strings.TrimSpace(input) == "" {
			continue
		}
		if err := rp.submit(input); errors.Is(err, session.ErrQuit) {
			return nil
		}
	}
	return scanner.Err()
}
