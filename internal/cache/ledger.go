package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var (
	// ErrLedgerCorrupted is returned when the state file cannot be parsed
	ErrLedgerCorrupted = errors.New("build ledger is corrupted")
	// ErrInvalidStatus is returned when recording an unknown build status
	ErrInvalidStatus = errors.New("invalid build status")
)

// BuildStatus is the outcome of the last build of a package.
type BuildStatus string

const (
	// StatusBuilt indicates makepkg completed successfully
	StatusBuilt BuildStatus = "built"
	// StatusFailed indicates source retrieval or the build failed
	StatusFailed BuildStatus = "failed"
)

// Entry is the ledger record for one package.
type Entry struct {
	// Package is the package name
	Package string `json:"package"`
	// Version is the remote version targeted by the build, if known
	Version string `json:"version,omitempty"`
	// Status is the outcome of the build
	Status BuildStatus `json:"status"`
	// Revision is the checked-out git revision, if known
	Revision string `json:"revision,omitempty"`
	// Time is when the outcome was recorded
	Time time.Time `json:"time"`
	// Error holds the failure message when Status is StatusFailed
	Error string `json:"error,omitempty"`
}

type ledgerFile struct {
	Entries map[string]Entry `json:"entries"`
}

// Ledger persists build outcomes to <dir>/state.json.
// It is safe for concurrent use.
type Ledger struct {
	entries map[string]Entry
	path    string
	mu      sync.RWMutex
	nowFunc func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithNowFunc sets a custom time function for testing
func WithNowFunc(fn func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.nowFunc = fn
	}
}

// OpenLedger loads the ledger from dir, creating dir if needed.
// A missing file starts an empty ledger. A corrupted file also starts empty
// and is overwritten on the next write; ErrLedgerCorrupted is returned
// alongside the usable ledger so callers can warn.
func OpenLedger(dir string, opts ...LedgerOption) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &CacheError{Op: "mkdir", Path: dir, Err: err}
	}

	l := &Ledger{
		entries: make(map[string]Entry),
		path:    filepath.Join(dir, "state.json"),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.load(); err != nil {
		if errors.Is(err, ErrLedgerCorrupted) {
			return l, err
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, &CacheError{Op: "read", Path: l.path, Err: err}
		}
	}
	return l, nil
}

// Path returns the state file location.
func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}

	var lf ledgerFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerCorrupted, err)
	}
	if lf.Entries != nil {
		l.entries = lf.Entries
	}
	return nil
}

// Record stores e, keyed by e.Package, stamping Time if unset.
func (l *Ledger) Record(e Entry) error {
	if err := validateName(e.Package); err != nil {
		return err
	}
	if e.Status != StatusBuilt && e.Status != StatusFailed {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	if e.Status == StatusBuilt {
		e.Error = ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = l.nowFunc()
	}
	l.entries[e.Package] = e
	return l.saveUnsafe()
}

// Get returns the entry for name.
func (l *Ledger) Get(name string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[name]
	return e, ok
}

// List returns all entries sorted by package name.
func (l *Ledger) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// Delete removes the entry for name. Deleting an unknown name succeeds.
func (l *Ledger) Delete(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[name]; !ok {
		return nil
	}
	delete(l.entries, name)
	return l.saveUnsafe()
}

// saveUnsafe writes the ledger. Caller must hold the write lock.
func (l *Ledger) saveUnsafe() error {
	data, err := json.MarshalIndent(ledgerFile{Entries: l.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return &CacheError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return &CacheError{Op: "rename", Path: l.path, Err: err}
	}
	return nil
}
