package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CompileRecord is one line of the compile log kept in debug mode.
type CompileRecord struct {
	Seq       int       `json:"seq"`
	Source    string    `json:"source"`
	CacheHit  bool      `json:"cache_hit"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Workspace is the on-disk directory a backend compiles in. It holds the
// last compiled source, the dependency manifest and, in debug mode, a log
// of every compile.
type Workspace struct {
	dir     string
	srcName string
	seq     int
}

// NewWorkspace creates a fresh temporary directory. srcName is the file
// name the compiled source is written to.
func NewWorkspace(prefix, srcName string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir, srcName: srcName}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// WriteSource stores src as the current compilation unit and returns the
// compile sequence number.
func (w *Workspace) WriteSource(src []byte) (int, error) {
	w.seq++
	path := filepath.Join(w.dir, w.srcName)
	if err := os.WriteFile(path, src, 0644); err != nil {
		return w.seq, fmt.Errorf("failed to write source: %w", err)
	}
	return w.seq, nil
}

// WriteManifest stores the dependency list as deps.json.
func (w *Workspace) WriteManifest(deps []Dependency) error {
	if deps == nil {
		deps = []Dependency{}
	}
	data, err := json.MarshalIndent(deps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "deps.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// AppendCompileRecord appends rec to compiles.jsonl.
func (w *Workspace) AppendCompileRecord(rec CompileRecord) error {
	rec.Timestamp = time.Now()
	path := filepath.Join(w.dir, "compiles.jsonl")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open compile log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal compile record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write compile record: %w", err)
	}
	return nil
}

// Remove deletes the workspace directory.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}
