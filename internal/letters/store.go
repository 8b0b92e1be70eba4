// Package letters resolves pre-authored letter bodies and assembles the
// structured mail payload for a matched template.
package letters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pmartynov/otvet/internal/apperr"
)

// Letter is the raw content of one stored letter file.
type Letter struct {
	To      string `yaml:"to"`
	CC      string `yaml:"cc"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// Store loads letter bodies by file reference.
type Store interface {
	// Load returns the letter stored under ref. A missing or corrupt file
	// yields apperr.ErrLetterNotFound.
	Load(ref string) (*Letter, error)
}

// FS implements Store over a directory of YAML letter files.
type FS struct {
	root string // absolute path to the letters directory
}

// Compile-time check.
var _ Store = (*FS)(nil)

// NewFS creates a store rooted at the given directory, which must exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("letters: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("letters: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("letters: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safePath resolves ref against the store root and rejects any result that
// escapes it (directory traversal).
func (f *FS) safePath(ref string) (string, error) {
	cleaned := filepath.Clean(ref)
	if cleaned == "" || cleaned == "." || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("letters: invalid reference: %q", ref)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("letters: resolve reference: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("letters: reference escapes store root: %q", ref)
	}
	return abs, nil
}

// Load reads and parses the letter file at ref.
func (f *FS) Load(ref string) (*Letter, error) {
	abs, err := f.safePath(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrLetterNotFound, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrLetterNotFound, ref)
	}
	var l Letter
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", apperr.ErrLetterNotFound, ref, err)
	}
	return &l, nil
}
