package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genPackageName() gopter.Gen {
	return gen.RegexMatch(`^[a-z0-9][a-z0-9@._+-]{0,30}$`).SuchThat(func(s string) bool {
		return s != "." && s != ".."
	})
}

// Exists is true iff <root>/<name> is a directory, for any root.
func TestExistsMatchesDirectoryPresence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("exists iff <root>/<name> is a directory", prop.ForAll(
		func(subdir, name string, kind int) bool {
			root := filepath.Join(t.TempDir(), subdir)
			m := NewManager(root)
			target := filepath.Join(root, name)

			switch kind {
			case 1:
				if err := os.MkdirAll(target, 0755); err != nil {
					return false
				}
			case 2:
				if err := os.MkdirAll(root, 0755); err != nil {
					return false
				}
				if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
					return false
				}
			}

			exists, err := m.Exists(name)
			if err != nil {
				t.Logf("Exists(%q): %v", name, err)
				return false
			}
			return exists == (kind == 1) && m.Path(name) == target
		},
		gen.RegexMatch(`^[a-z]{1,8}(/[a-z]{1,8}){0,2}$`),
		genPackageName(),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

func TestPurge(t *testing.T) {
	m := NewManager(t.TempDir())
	dir := m.Path("yay")
	if err := os.MkdirAll(filepath.Join(dir, "src", "deep"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "PKGBUILD"), []byte("pkgname=yay"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := m.Purge("yay"); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if exists, _ := m.Exists("yay"); exists {
		t.Error("checkout still present after purge")
	}
	if err := m.Purge("yay"); err != nil {
		t.Errorf("purging a missing checkout should succeed: %v", err)
	}
}

func TestInvalidNamesAreRejected(t *testing.T) {
	m := NewManager(t.TempDir())
	for _, name := range []string{"", ".", "..", "../etc", "a/b"} {
		if _, err := m.Exists(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Exists(%q) error = %v", name, err)
		}
		if err := m.Purge(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Purge(%q) error = %v", name, err)
		}
	}
}

func TestEnsureRootAndList(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	m := NewManager(root)

	names, err := m.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("List on missing root = %v, %v", names, err)
	}

	if err := m.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot: %v", err)
	}
	for _, n := range []string{"zsh-theme", "yay", ".hidden"} {
		os.MkdirAll(m.Path(n), 0755)
	}
	os.WriteFile(filepath.Join(root, "stray-file"), nil, 0644)

	names, err = m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "yay" || names[1] != "zsh-theme" {
		t.Errorf("List = %v", names)
	}
}

func TestCacheErrorCarriesPath(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(filepath.Join(blocker, "root"))
	err := m.EnsureRoot()

	var cacheErr *CacheError
	if !errors.As(err, &cacheErr) {
		t.Fatalf("expected *CacheError, got %v", err)
	}
	if cacheErr.Path != m.Root() || cacheErr.Op != "mkdir" {
		t.Errorf("unexpected error fields %+v", cacheErr)
	}
}

func TestRootIsCleaned(t *testing.T) {
	m := NewManager("/tmp/aurkit//packages/")
	if m.Root() != "/tmp/aurkit/packages" {
		t.Errorf("Root = %q", m.Root())
	}
	if m.Path("foo") != "/tmp/aurkit/packages/foo" {
		t.Errorf("Path = %q", m.Path("foo"))
	}
}
