// Package cache manages the on-disk checkout directory for package sources
// and the ledger recording the outcome of past builds.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidName is returned for package names that would escape the root.
var ErrInvalidName = errors.New("invalid package name")

// CacheError reports a filesystem failure with the offending path.
type CacheError struct {
	Op   string
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// Manager resolves package checkouts under a single root directory.
// Every path for a package is built through Path so presence checks and
// clone targets always agree.
type Manager struct {
	root string
}

// NewManager returns a Manager rooted at root. The root should already be
// absolute; it is cleaned but not otherwise resolved.
func NewManager(root string) *Manager {
	return &Manager{root: filepath.Clean(root)}
}

// Root returns the cache root directory.
func (m *Manager) Root() string {
	return m.root
}

// Path returns <root>/<name>.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.root, name)
}

// Exists reports whether the checkout for name exists as a directory.
// A missing entry is not an error; any other stat failure is.
func (m *Manager) Exists(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	path := m.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &CacheError{Op: "stat", Path: path, Err: err}
	}
	return info.IsDir(), nil
}

// Purge removes the checkout for name. Purging a missing checkout succeeds.
func (m *Manager) Purge(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	path := m.Path(name)
	if err := os.RemoveAll(path); err != nil {
		return &CacheError{Op: "purge", Path: path, Err: err}
	}
	return nil
}

// EnsureRoot creates the root directory if needed.
func (m *Manager) EnsureRoot() error {
	if err := os.MkdirAll(m.root, 0755); err != nil {
		return &CacheError{Op: "mkdir", Path: m.root, Err: err}
	}
	return nil
}

// List returns the names of all checkouts under the root, sorted.
// A missing root yields an empty list.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &CacheError{Op: "list", Path: m.root, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
