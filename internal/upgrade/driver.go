// Package upgrade drives update checks, selection and installation of AUR
// packages.
package upgrade

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/build"
	"github.com/obentoo/aurkit/internal/common/config"
	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/prompt"
)

var (
	// ErrAborted is returned when the user quits or declines at a prompt.
	// Nothing has been cloned or built when it is returned.
	ErrAborted = errors.New("aborted by user")
	// ErrNothingToDo is returned when there is nothing to choose from
	ErrNothingToDo = errors.New("nothing to do")
)

// MetadataSource resolves remote package information.
type MetadataSource interface {
	RemoteVersion(ctx context.Context, name string) (aur.RemoteVersion, error)
	Details(ctx context.Context, name string) (*aur.Details, error)
	Search(ctx context.Context, term string) ([]aur.Package, error)
}

// Builder retrieves sources and builds packages.
type Builder interface {
	Preflight() error
	Install(ctx context.Context, pkg aur.Package) error
}

// Chooser asks the user to confirm or pick.
type Chooser interface {
	Confirm(message string) (bool, error)
	Select(message string, max int, allowAll bool) (prompt.Selection, error)
}

// CheckFailure is a package whose remote version could not be resolved.
type CheckFailure struct {
	Package string
	Err     error
}

// CheckReport is the result of an update check over installed packages.
type CheckReport struct {
	// Outdated lists packages whose remote version differs, in input order
	Outdated []aur.OutdatedEntry
	// Failures lists packages that could not be checked, in input order
	Failures []CheckFailure
	// Skipped lists packages excluded by overrides
	Skipped []string
	// Checked is the number of packages successfully compared
	Checked int
}

// Outcome is the result of installing one package.
type Outcome struct {
	Package aur.Package
	Err     error
}

// Driver coordinates MetadataSource, Builder and Chooser.
type Driver struct {
	source    MetadataSource
	builder   Builder
	chooser   Chooser
	settings  *config.Settings
	overrides *config.Overrides
}

// Option configures a Driver.
type Option func(*Driver)

// WithOverrides excludes ignored packages from update checks.
func WithOverrides(o *config.Overrides) Option {
	return func(d *Driver) {
		d.overrides = o
	}
}

// NewDriver creates a Driver.
func NewDriver(source MetadataSource, builder Builder, chooser Chooser, settings *config.Settings, opts ...Option) *Driver {
	d := &Driver{
		source:   source,
		builder:  builder,
		chooser:  chooser,
		settings: settings,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Check fetches the remote version of every installed package concurrently
// and reports those that differ. A failed lookup is recorded in
// CheckReport.Failures and does not affect other packages. The report is
// returned only once every lookup has finished.
func (d *Driver) Check(ctx context.Context, installed []aur.Package) (*CheckReport, error) {
	type result struct {
		remote  aur.RemoteVersion
		err     error
		skipped bool
	}
	results := make([]result, len(installed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(d.settings.Parallelism, 1))

	for i, pkg := range installed {
		if d.overrides.Ignored(pkg.Name) {
			results[i].skipped = true
			continue
		}
		g.Go(func() error {
			rv, err := d.source.RemoteVersion(gctx, pkg.Name)
			if err != nil {
				logger.Debug("check %s: %v", pkg.Name, err)
			}
			results[i] = result{remote: rv, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &CheckReport{
		Outdated: []aur.OutdatedEntry{},
		Failures: []CheckFailure{},
		Skipped:  []string{},
	}
	for i, pkg := range installed {
		r := results[i]
		switch {
		case r.skipped:
			report.Skipped = append(report.Skipped, pkg.Name)
		case r.err != nil:
			report.Failures = append(report.Failures, CheckFailure{Package: pkg.Name, Err: r.err})
		default:
			report.Checked++
			if aur.Compare(pkg.Version, r.remote.Version) {
				report.Outdated = append(report.Outdated, aur.OutdatedEntry{
					Local:  pkg,
					Remote: pkg.WithVersion(r.remote.Version),
				})
			}
		}
	}
	return report, nil
}

// Upgrade asks which outdated packages to install (all of them when
// NoConfirm is set) and installs them one at a time. A failure is recorded
// in its Outcome and the remaining packages still proceed. A missing git or
// makepkg is fatal before the prompt.
func (d *Driver) Upgrade(ctx context.Context, outdated []aur.OutdatedEntry) ([]Outcome, error) {
	if len(outdated) == 0 {
		return nil, ErrNothingToDo
	}
	if err := d.builder.Preflight(); err != nil {
		return nil, err
	}

	targets := make([]aur.Package, len(outdated))
	for i, e := range outdated {
		targets[i] = e.Remote
	}

	if !d.settings.NoConfirm {
		sel, err := d.chooser.Select("Packages to upgrade", len(targets), true)
		if err != nil {
			return nil, err
		}
		if sel.Quit {
			return nil, ErrAborted
		}
		if !sel.All {
			targets = targets[sel.Index : sel.Index+1]
		}
	}

	return d.installAll(ctx, targets)
}

func (d *Driver) installAll(ctx context.Context, pkgs []aur.Package) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(pkgs))
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		logger.Info("installing %s %s", pkg.Name, pkg.Version)
		err := d.builder.Install(ctx, pkg)
		if err != nil {
			logger.Error("%v", err)
		}
		outcomes = append(outcomes, Outcome{Package: pkg, Err: err})
	}
	return outcomes, nil
}

// Install resolves name on the remote, asks for confirmation unless
// NoConfirm is set, then builds it.
func (d *Driver) Install(ctx context.Context, name string) (*aur.Details, error) {
	if err := d.builder.Preflight(); err != nil {
		return nil, err
	}

	details, err := d.source.Details(ctx, name)
	if err != nil {
		return nil, err
	}

	if !d.settings.NoConfirm {
		ok, err := d.chooser.Confirm(fmt.Sprintf("Install %s %s?", details.Name, details.Version))
		if err != nil {
			return details, err
		}
		if !ok {
			return details, ErrAborted
		}
	}

	return details, d.builder.Install(ctx, details.Package())
}

// Search returns the best matches for term, most popular first.
func (d *Driver) Search(ctx context.Context, term string) ([]aur.Package, error) {
	return d.source.Search(ctx, term)
}

// InstallSelected asks the user to pick one of results and installs it.
// Item n of the prompt is results[n-1].
func (d *Driver) InstallSelected(ctx context.Context, results []aur.Package) (*Outcome, error) {
	if len(results) == 0 {
		return nil, ErrNothingToDo
	}
	if err := d.builder.Preflight(); err != nil {
		return nil, err
	}

	sel, err := d.chooser.Select("Package to install", len(results), false)
	if err != nil {
		return nil, err
	}
	if sel.Quit {
		return nil, ErrAborted
	}

	outcomes, err := d.installAll(ctx, results[sel.Index:sel.Index+1])
	if err != nil {
		return nil, err
	}
	return &outcomes[0], nil
}

var (
	_ MetadataSource = (*aur.Client)(nil)
	_ Builder        = (*build.Orchestrator)(nil)
	_ Chooser        = (*prompt.Prompter)(nil)
)
