package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/itsmostafa/evalctl/internal/engine"
	"github.com/itsmostafa/evalctl/internal/render"
	"github.com/itsmostafa/evalctl/internal/session"
)

// newSession creates the configured engine and a session that owns it.
func newSession() (*session.Session, engine.Engine, error) {
	eng, err := cfg.NewEngine(logger)
	if err != nil {
		return nil, nil, err
	}
	sess := session.New(eng,
		session.WithConfigDir(cfg.Dir),
		session.WithLogger(logger),
	)
	return sess, eng, nil
}

// newRenderer styles output only when out is a terminal and color is on.
func newRenderer(out, errOut io.Writer) *render.Renderer {
	color := !cfg.NoColor
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		color = false
	}
	return render.New(out, errOut, color)
}

// submit runs input and renders its result. It returns the session error
// unchanged so callers can react to session.ErrQuit.
func submit(sess *session.Session, r *render.Renderer, input string) error {
	outputs, err := sess.ExecuteWithCallbacks(input, r.Callbacks())
	if err != nil {
		if !errors.Is(err, session.ErrQuit) {
			r.Error(err)
		}
		return err
	}
	r.Outputs(outputs)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return d, nil
}
