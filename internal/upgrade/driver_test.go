package upgrade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/common/config"
	"github.com/obentoo/aurkit/internal/common/process"
	"github.com/obentoo/aurkit/internal/prompt"
)

// fakeSource serves versions from a map; names in errs fail.
type fakeSource struct {
	versions map[string]string
	errs     map[string]error
	results  []aur.Package
	delay    func(name string) time.Duration

	inFlight, peak int32
}

func (f *fakeSource) RemoteVersion(ctx context.Context, name string) (aur.RemoteVersion, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	if f.delay != nil {
		time.Sleep(f.delay(name))
	}

	if err, ok := f.errs[name]; ok {
		return aur.RemoteVersion{}, fmt.Errorf("%s: %w", name, err)
	}
	v, ok := f.versions[name]
	if !ok {
		return aur.RemoteVersion{}, fmt.Errorf("%s: %w", name, aur.ErrNoVersionFound)
	}
	return aur.RemoteVersion{Name: name, Version: v}, nil
}

func (f *fakeSource) Details(ctx context.Context, name string) (*aur.Details, error) {
	rv, err := f.RemoteVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	return &aur.Details{Name: name, Version: rv.Version, Description: "desc of " + name}, nil
}

func (f *fakeSource) Search(ctx context.Context, term string) ([]aur.Package, error) {
	return f.results, nil
}

// fakeBuilder records installs; names in fail return an error.
type fakeBuilder struct {
	preflightErr error
	fail         map[string]error

	mu        sync.Mutex
	installed []aur.Package
	preflight int
}

func (b *fakeBuilder) Preflight() error {
	b.mu.Lock()
	b.preflight++
	b.mu.Unlock()
	return b.preflightErr
}

func (b *fakeBuilder) Install(ctx context.Context, pkg aur.Package) error {
	b.mu.Lock()
	b.installed = append(b.installed, pkg)
	b.mu.Unlock()
	return b.fail[pkg.Name]
}

func (b *fakeBuilder) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.installed))
	for i, p := range b.installed {
		out[i] = p.Name
	}
	return out
}

// scriptedChooser answers from fixed values and records the questions.
type scriptedChooser struct {
	confirm   bool
	selection prompt.Selection
	err       error
	asked     []string
}

func (c *scriptedChooser) Confirm(message string) (bool, error) {
	c.asked = append(c.asked, message)
	return c.confirm, c.err
}

func (c *scriptedChooser) Select(message string, max int, allowAll bool) (prompt.Selection, error) {
	c.asked = append(c.asked, fmt.Sprintf("%s 1-%d all=%v", message, max, allowAll))
	return c.selection, c.err
}

func testSettings() *config.Settings {
	return &config.Settings{Parallelism: 4, Verbosity: config.VerbosityDefault}
}

func pkgs(pairs ...string) []aur.Package {
	out := make([]aur.Package, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, aur.Package{Name: pairs[i], Version: pairs[i+1]})
	}
	return out
}

func TestCheckReportsOnlyDifferences(t *testing.T) {
	source := &fakeSource{versions: map[string]string{"A": "1.0", "B": "2.1", "C": "3.0"}}
	d := NewDriver(source, &fakeBuilder{}, &scriptedChooser{}, testSettings())

	report, err := d.Check(context.Background(), pkgs("A", "1.0", "B", "2.0", "C", "3.0"))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if len(report.Outdated) != 1 {
		t.Fatalf("expected one outdated package, got %+v", report.Outdated)
	}
	e := report.Outdated[0]
	if e.Local.Name != "B" || e.Local.Version != "2.0" || e.Remote.Version != "2.1" {
		t.Errorf("unexpected entry %+v", e)
	}
	if report.Checked != 3 || len(report.Failures) != 0 {
		t.Errorf("Checked = %d, Failures = %v", report.Checked, report.Failures)
	}
}

func TestCheckIsolatesFailures(t *testing.T) {
	source := &fakeSource{
		versions: map[string]string{"A": "1.1", "C": "3.1"},
		errs:     map[string]error{"B": &aur.FetchError{URL: "https://aur.example.org/packages/B", Err: errors.New("connection reset")}},
	}
	d := NewDriver(source, &fakeBuilder{}, &scriptedChooser{}, testSettings())

	report, err := d.Check(context.Background(), pkgs("A", "1.0", "B", "2.0", "C", "3.0"))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if len(report.Outdated) != 2 || report.Outdated[0].Local.Name != "A" || report.Outdated[1].Local.Name != "C" {
		t.Errorf("Outdated = %+v", report.Outdated)
	}
	if len(report.Failures) != 1 || report.Failures[0].Package != "B" {
		t.Fatalf("Failures = %+v", report.Failures)
	}
	var fetchErr *aur.FetchError
	if !errors.As(report.Failures[0].Err, &fetchErr) {
		t.Errorf("failure should keep its category: %v", report.Failures[0].Err)
	}
}

func TestCheckSkipsIgnoredPackages(t *testing.T) {
	source := &fakeSource{versions: map[string]string{"A": "9.9"}}
	overrides := &config.Overrides{Packages: map[string]config.PackageOverride{"B": {Ignore: true}}}
	d := NewDriver(source, &fakeBuilder{}, &scriptedChooser{}, testSettings(), WithOverrides(overrides))

	report, err := d.Check(context.Background(), pkgs("A", "1.0", "B", "2.0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "B" || len(report.Failures) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestCheckPreservesOrderUnderConcurrency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("outdated entries follow input order whatever the completion order", prop.ForAll(
		func(n int, parallelism int) bool {
			versions := make(map[string]string)
			var installed []aur.Package
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("pkg-%02d", i)
				versions[name] = "2"
				installed = append(installed, aur.Package{Name: name, Version: "1"})
			}
			source := &fakeSource{
				versions: versions,
				// later packages finish first
				delay: func(name string) time.Duration {
					var i int
					fmt.Sscanf(name, "pkg-%d", &i)
					return time.Duration(n-i) * 200 * time.Microsecond
				},
			}
			settings := testSettings()
			settings.Parallelism = parallelism
			d := NewDriver(source, &fakeBuilder{}, &scriptedChooser{}, settings)

			report, err := d.Check(context.Background(), installed)
			if err != nil || len(report.Outdated) != n {
				return false
			}
			for i, e := range report.Outdated {
				if e.Local.Name != installed[i].Name {
					return false
				}
			}
			return int(source.peak) <= parallelism
		},
		gen.IntRange(0, 25),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDriver(&fakeSource{}, &fakeBuilder{}, &scriptedChooser{}, testSettings())

	if _, err := d.Check(ctx, pkgs("A", "1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func outdated(names ...string) []aur.OutdatedEntry {
	out := make([]aur.OutdatedEntry, len(names))
	for i, n := range names {
		out[i] = aur.OutdatedEntry{
			Local:  aur.Package{Name: n, Version: "1"},
			Remote: aur.Package{Name: n, Version: "2"},
		}
	}
	return out
}

func TestUpgradeQuitHasNoSideEffects(t *testing.T) {
	builder := &fakeBuilder{}
	chooser := &scriptedChooser{selection: prompt.Selection{Quit: true}}
	d := NewDriver(&fakeSource{}, builder, chooser, testSettings())

	outcomes, err := d.Upgrade(context.Background(), outdated("A", "B"))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if len(outcomes) != 0 || len(builder.names()) != 0 {
		t.Errorf("nothing may be installed after quit: %v", builder.names())
	}
	if len(chooser.asked) != 1 || chooser.asked[0] != "Packages to upgrade 1-2 all=true" {
		t.Errorf("asked = %v", chooser.asked)
	}
}

func TestUpgradeSelection(t *testing.T) {
	tests := []struct {
		name      string
		noConfirm bool
		selection prompt.Selection
		want      []string
	}{
		{"single", false, prompt.Selection{Index: 1}, []string{"B"}},
		{"all", false, prompt.Selection{All: true}, []string{"A", "B", "C"}},
		{"no confirm", true, prompt.Selection{Quit: true}, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &fakeBuilder{}
			chooser := &scriptedChooser{selection: tt.selection}
			settings := testSettings()
			settings.NoConfirm = tt.noConfirm
			d := NewDriver(&fakeSource{}, builder, chooser, settings)

			outcomes, err := d.Upgrade(context.Background(), outdated("A", "B", "C"))
			if err != nil {
				t.Fatalf("Upgrade: %v", err)
			}
			got := builder.names()
			if fmt.Sprint(got) != fmt.Sprint(tt.want) || len(outcomes) != len(tt.want) {
				t.Errorf("installed %v, want %v", got, tt.want)
			}
			for _, o := range outcomes {
				if o.Package.Version != "2" {
					t.Errorf("should install the remote version, got %+v", o.Package)
				}
			}
			if tt.noConfirm && len(chooser.asked) != 0 {
				t.Errorf("no prompt expected, asked %v", chooser.asked)
			}
		})
	}
}

func TestUpgradeContinuesAfterFailure(t *testing.T) {
	buildErr := errors.New("makepkg failed")
	builder := &fakeBuilder{fail: map[string]error{"A": buildErr}}
	settings := testSettings()
	settings.NoConfirm = true
	d := NewDriver(&fakeSource{}, builder, &scriptedChooser{}, settings)

	outcomes, err := d.Upgrade(context.Background(), outdated("A", "B"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 2 || !errors.Is(outcomes[0].Err, buildErr) || outcomes[1].Err != nil {
		t.Errorf("outcomes = %+v", outcomes)
	}
}

func TestUpgradeDependencyMissingIsFatal(t *testing.T) {
	builder := &fakeBuilder{preflightErr: &process.DependencyMissingError{Name: "git"}}
	chooser := &scriptedChooser{selection: prompt.Selection{All: true}}
	d := NewDriver(&fakeSource{}, builder, chooser, testSettings())

	_, err := d.Upgrade(context.Background(), outdated("A"))

	var depErr *process.DependencyMissingError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyMissingError, got %v", err)
	}
	if len(chooser.asked) != 0 || len(builder.names()) != 0 {
		t.Error("nothing may happen after a failed preflight")
	}
}

func TestUpgradeNothingToDo(t *testing.T) {
	builder := &fakeBuilder{}
	d := NewDriver(&fakeSource{}, builder, &scriptedChooser{}, testSettings())
	if _, err := d.Upgrade(context.Background(), nil); !errors.Is(err, ErrNothingToDo) {
		t.Errorf("expected ErrNothingToDo, got %v", err)
	}
	if builder.preflight != 0 {
		t.Error("preflight should not run with nothing to do")
	}
}

func TestInstall(t *testing.T) {
	source := &fakeSource{versions: map[string]string{"yay": "12.3.5-1"}}

	t.Run("confirmed", func(t *testing.T) {
		builder := &fakeBuilder{}
		chooser := &scriptedChooser{confirm: true}
		d := NewDriver(source, builder, chooser, testSettings())

		details, err := d.Install(context.Background(), "yay")
		if err != nil {
			t.Fatalf("Install: %v", err)
		}
		if details.Version != "12.3.5-1" || len(builder.installed) != 1 || builder.installed[0].Version != "12.3.5-1" {
			t.Errorf("details = %+v, installed = %+v", details, builder.installed)
		}
		if chooser.asked[0] != "Install yay 12.3.5-1?" {
			t.Errorf("asked %v", chooser.asked)
		}
	})

	t.Run("declined", func(t *testing.T) {
		builder := &fakeBuilder{}
		d := NewDriver(source, builder, &scriptedChooser{confirm: false}, testSettings())

		if _, err := d.Install(context.Background(), "yay"); !errors.Is(err, ErrAborted) {
			t.Errorf("expected ErrAborted, got %v", err)
		}
		if len(builder.installed) != 0 {
			t.Error("declined install must not build")
		}
	})

	t.Run("not found", func(t *testing.T) {
		builder := &fakeBuilder{}
		d := NewDriver(source, builder, &scriptedChooser{confirm: true}, testSettings())

		if _, err := d.Install(context.Background(), "missing"); !errors.Is(err, aur.ErrNoVersionFound) {
			t.Errorf("expected ErrNoVersionFound, got %v", err)
		}
		if len(builder.installed) != 0 {
			t.Error("nothing should be built")
		}
	})
}

func TestSearchAndInstallSelected(t *testing.T) {
	source := &fakeSource{results: pkgs("yay", "12.3.5-1", "yay-bin", "12.3.5-1", "yay-git", "12.3.5.r1-1")}
	builder := &fakeBuilder{}
	chooser := &scriptedChooser{selection: prompt.Selection{Index: 2}}
	d := NewDriver(source, builder, chooser, testSettings())

	results, err := d.Search(context.Background(), "yay")
	if err != nil || len(results) != 3 {
		t.Fatalf("Search = %v, %v", results, err)
	}

	outcome, err := d.InstallSelected(context.Background(), results)
	if err != nil {
		t.Fatalf("InstallSelected: %v", err)
	}
	if outcome.Package.Name != "yay-git" || outcome.Err != nil {
		t.Errorf("outcome = %+v", outcome)
	}
	if chooser.asked[0] != "Package to install 1-3 all=false" {
		t.Errorf("asked %v", chooser.asked)
	}
}

func TestInstallSelectedQuit(t *testing.T) {
	builder := &fakeBuilder{}
	d := NewDriver(&fakeSource{}, builder, &scriptedChooser{selection: prompt.Selection{Quit: true}}, testSettings())

	if _, err := d.InstallSelected(context.Background(), pkgs("a", "1")); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}
	if _, err := d.InstallSelected(context.Background(), nil); !errors.Is(err, ErrNothingToDo) {
		t.Errorf("expected ErrNothingToDo, got %v", err)
	}
	if len(builder.installed) != 0 {
		t.Error("nothing should be built")
	}
}
