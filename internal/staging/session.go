package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	stagedInputName  = "source.jpg"
	stagedOutputName = "optimized.jpg"
)

// Session owns one uniquely named staging directory. The directory holds the
// intermediate file handed to the optimizer and the optimized file it writes
// back. Two sessions never share a directory, so concurrent runs cannot
// collide.
type Session struct {
	id   string
	root string
	dir  string
}

// NewSession creates a fresh session directory under root, creating root
// itself when missing.
func NewSession(root string) (*Session, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("staging root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging root: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Session{id: id, root: root, dir: dir}, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Dir returns the session directory path.
func (s *Session) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// InputPath is where the staged source bitstream is written.
func (s *Session) InputPath() string {
	if s == nil {
		return ""
	}
	return filepath.Join(s.dir, stagedInputName)
}

// OutputPath is where the optimizer writes its result.
func (s *Session) OutputPath() string {
	if s == nil {
		return ""
	}
	return filepath.Join(s.dir, stagedOutputName)
}

// Cleanup removes the session directory and everything in it. Calling it
// again after a successful removal is a no-op.
func (s *Session) Cleanup() error {
	if s == nil || s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove session directory: %w", err)
	}
	return nil
}
