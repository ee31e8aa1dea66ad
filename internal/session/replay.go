package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// DefaultStartupFileName is the line-oriented startup file looked up in
// the config directory.
const DefaultStartupFileName = "init.evalctl"

// loadConfig replays the startup file line by line, then the prelude as
// a single unit. The prelude runs second so it can use dependencies and
// settings declared by the startup file. The first failure aborts the
// replay.
func (s *Session) loadConfig() (engine.Outputs, error) {
	outputs := engine.NewOutputs()
	if s.configDir == nil {
		return outputs, nil
	}
	dir, ok := s.configDir()
	if !ok {
		return outputs, nil
	}

	startup := filepath.Join(dir, s.startupFile)
	exists, err := fileExists(startup)
	if err != nil {
		return engine.Outputs{}, err
	}
	if exists {
		s.logger.Info("loading startup commands", "path", startup)
		contents, err := os.ReadFile(startup)
		if err != nil {
			return engine.Outputs{}, fmt.Errorf("failed to read startup file: %w", err)
		}
		for line := range strings.Lines(string(contents)) {
			out, err := s.Execute(line)
			if err != nil {
				return engine.Outputs{}, err
			}
			outputs.Merge(out)
		}
	}

	prelude := filepath.Join(dir, s.engine.PreludeFileName())
	exists, err = fileExists(prelude)
	if err != nil {
		return engine.Outputs{}, err
	}
	if exists {
		s.logger.Info("executing prelude", "path", prelude)
		contents, err := os.ReadFile(prelude)
		if err != nil {
			return engine.Outputs{}, fmt.Errorf("failed to read prelude: %w", err)
		}
		out, err := s.Execute(string(contents))
		if err != nil {
			return engine.Outputs{}, err
		}
		outputs.Merge(out)
	}

	return outputs, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}
