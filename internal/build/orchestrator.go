// Package build retrieves package sources into the cache and runs makepkg
// on them.
package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/cache"
	"github.com/obentoo/aurkit/internal/common/config"
	"github.com/obentoo/aurkit/internal/common/git"
	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/process"
)

// Pipeline steps reported in BuildError.Step.
const (
	StepClone = "clone"
	StepPull  = "pull"
	StepBuild = "build"
)

// ErrNoSource is returned by Build when the package has no checkout.
var ErrNoSource = errors.New("no source checkout")

// BuildError reports a failed clone, pull or makepkg run. Stderr holds the
// captured diagnostics verbatim; it is empty when the stream was inherited.
type BuildError struct {
	Package  string
	Step     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s failed", e.Package, e.Step)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " with exit status %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" && e.Err == nil {
		fmt.Fprintf(&b, ": %s", s)
	}
	return b.String()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// GitFactory creates a git executor for a checkout directory.
type GitFactory func(dir string, runner process.Runner, mode process.CaptureMode) git.GitExecutor

func defaultGitFactory(dir string, runner process.Runner, mode process.CaptureMode) git.GitExecutor {
	return git.NewGitRunner(dir, runner, mode)
}

// Orchestrator drives clone/pull, makepkg and the cache policy. Work on the
// same package is serialized; different packages may proceed concurrently.
type Orchestrator struct {
	settings  *config.Settings
	cache     *cache.Manager
	runner    process.Runner
	overrides *config.Overrides
	ledger    *cache.Ledger
	newGit    GitFactory

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOverrides applies per-package clone URL and branch overrides.
func WithOverrides(o *config.Overrides) Option {
	return func(b *Orchestrator) {
		b.overrides = o
	}
}

// WithLedger records every Install outcome in l.
func WithLedger(l *cache.Ledger) Option {
	return func(b *Orchestrator) {
		b.ledger = l
	}
}

// WithGitFactory replaces the git executor constructor (useful for testing).
func WithGitFactory(f GitFactory) Option {
	return func(b *Orchestrator) {
		b.newGit = f
	}
}

// NewOrchestrator creates an Orchestrator. settings and cacheMgr must be
// derived from the same resolved configuration.
func NewOrchestrator(settings *config.Settings, cacheMgr *cache.Manager, runner process.Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings: settings,
		cache:    cacheMgr,
		runner:   runner,
		newGit:   defaultGitFactory,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Preflight checks that git and makepkg are on PATH.
func (o *Orchestrator) Preflight() error {
	return process.RequireExecutables(o.runner, "git", "makepkg")
}

// CaptureMode maps a verbosity setting to the makepkg capture policy.
func CaptureMode(v config.Verbosity) process.CaptureMode {
	switch v {
	case config.VerbosityVerbose:
		return process.CaptureNone
	case config.VerbosityQuiet:
		return process.CaptureAll
	default:
		return process.CaptureStdout
	}
}

// gitMode keeps git quiet unless verbose, so failures carry its stderr.
func (o *Orchestrator) gitMode() process.CaptureMode {
	if o.settings.Verbosity == config.VerbosityVerbose {
		return process.CaptureNone
	}
	return process.CaptureAll
}

// EnsureSource clones the package into the cache when absent, or pulls the
// configured branch from origin when present. git must be on PATH; this is
// checked before any network operation.
func (o *Orchestrator) EnsureSource(ctx context.Context, name string) error {
	if err := process.RequireExecutables(o.runner, "git"); err != nil {
		return err
	}

	exists, err := o.cache.Exists(name)
	if err != nil {
		return err
	}

	override := o.overrides.Get(name)
	dir := o.cache.Path(name)
	g := o.newGit(dir, o.runner, o.gitMode())

	if exists {
		branch := override.Branch
		if branch == "" {
			branch = o.settings.Branch
		}
		logger.Debug("updating %s from origin/%s", dir, branch)
		if err := g.Pull(ctx, "origin", branch); err != nil {
			return newGitError(name, StepPull, err)
		}
		return nil
	}

	if err := o.cache.EnsureRoot(); err != nil {
		return err
	}
	url := override.CloneURL
	if url == "" {
		url = aur.CloneURL(o.settings.AURURL, name)
	}
	logger.Debug("cloning %s into %s", url, dir)
	if err := g.Clone(ctx, url, override.Branch); err != nil {
		// A failed clone must not leave a checkout that later looks usable.
		if purgeErr := o.cache.Purge(name); purgeErr != nil {
			logger.Warn("failed to remove partial checkout: %v", purgeErr)
		}
		return newGitError(name, StepClone, err)
	}
	return nil
}

func newGitError(name, step string, err error) *BuildError {
	be := &BuildError{Package: name, Step: step, Err: err}
	var cmdErr *git.CommandError
	if errors.As(err, &cmdErr) {
		be.ExitCode = cmdErr.ExitCode
		be.Stderr = cmdErr.Stderr
	}
	return be
}

// Build runs `makepkg -si` in the package's checkout. A non-zero exit is a
// BuildError carrying the captured stderr.
func (o *Orchestrator) Build(ctx context.Context, name string) error {
	if err := process.RequireExecutables(o.runner, "makepkg"); err != nil {
		return err
	}

	exists, err := o.cache.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return &BuildError{Package: name, Step: StepBuild, Err: fmt.Errorf("%w in %s", ErrNoSource, o.cache.Path(name))}
	}

	args := []string{"-si"}
	if o.settings.NoConfirm {
		args = append(args, "--noconfirm")
	}
	cmd := process.Command{
		Name:        "makepkg",
		Args:        args,
		Dir:         o.cache.Path(name),
		Mode:        CaptureMode(o.settings.Verbosity),
		Interactive: true,
	}
	logger.Debug("running %s in %s (%s)", cmd, cmd.Dir, cmd.Mode)

	res, err := o.runner.Run(ctx, cmd)
	if err != nil {
		return &BuildError{Package: name, Step: StepBuild, Err: err}
	}
	if !res.Success() {
		return &BuildError{
			Package:  name,
			Step:     StepBuild,
			ExitCode: res.ExitCode,
			Stderr:   string(res.Stderr),
		}
	}
	return nil
}

// Install runs EnsureSource and Build for pkg under the package's lock.
// After a successful build the checkout is purged unless KeepCache is set.
// The outcome is recorded in the ledger when one is configured.
func (o *Orchestrator) Install(ctx context.Context, pkg aur.Package) error {
	unlock := o.lock(pkg.Name)
	defer unlock()

	err := o.EnsureSource(ctx, pkg.Name)
	if err == nil {
		err = o.Build(ctx, pkg.Name)
	}
	o.record(ctx, pkg, err)
	if err != nil {
		return err
	}

	if !o.settings.KeepCache {
		logger.Debug("purging %s", o.cache.Path(pkg.Name))
		if err := o.cache.Purge(pkg.Name); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) record(ctx context.Context, pkg aur.Package, buildErr error) {
	if o.ledger == nil {
		return
	}
	var depErr *process.DependencyMissingError
	if errors.As(buildErr, &depErr) {
		return
	}

	entry := cache.Entry{Package: pkg.Name, Version: pkg.Version, Status: cache.StatusBuilt}
	if buildErr != nil {
		entry.Status = cache.StatusFailed
		entry.Error = buildErr.Error()
	} else if rev, err := o.newGit(o.cache.Path(pkg.Name), o.runner, process.CaptureAll).Revision(ctx); err == nil {
		entry.Revision = rev
	} else {
		logger.Debug("could not read revision of %s: %v", pkg.Name, err)
	}

	if err := o.ledger.Record(entry); err != nil {
		logger.Warn("failed to record build state for %s: %v", pkg.Name, err)
	}
}

// lock acquires the per-package mutex and returns its release.
func (o *Orchestrator) lock(name string) func() {
	o.mu.Lock()
	m, ok := o.locks[name]
	if !ok {
		m = &sync.Mutex{}
		o.locks[name] = m
	}
	o.mu.Unlock()

	m.Lock()
	return m.Unlock
}
