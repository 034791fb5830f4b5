package prompt

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		allowAll bool
		want     Selection
		wantErr  bool
	}{
		{"", 3, true, Selection{Quit: true}, false},
		{"q", 3, true, Selection{Quit: true}, false},
		{" QUIT \n", 3, false, Selection{Quit: true}, false},
		{"a", 3, true, Selection{All: true}, false},
		{"All", 3, true, Selection{All: true}, false},
		{"a", 3, false, Selection{}, true},
		{"1", 3, false, Selection{Index: 0}, false},
		{"3", 3, true, Selection{Index: 2}, false},
		{"0", 3, true, Selection{}, true},
		{"4", 3, true, Selection{}, true},
		{"-1", 3, true, Selection{}, true},
		{"two", 3, true, Selection{}, true},
		{"1", 0, true, Selection{}, true},
	}

	for _, tt := range tests {
		t.Run(strconv.Quote(tt.input), func(t *testing.T) {
			got, err := ParseSelection(tt.input, tt.max, tt.allowAll)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSelection) {
					t.Errorf("expected ErrInvalidSelection, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseSelection = %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestParseSelectionIndexRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("n is accepted iff 1 <= n <= max and maps to n-1", prop.ForAll(
		func(n, max int) bool {
			sel, err := ParseSelection(strconv.Itoa(n), max, false)
			if n >= 1 && n <= max {
				return err == nil && sel.Index == n-1 && !sel.Quit && !sel.All
			}
			return errors.Is(err, ErrInvalidSelection)
		},
		gen.IntRange(-5, 60),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
		{"nope\n", false},
		{"y", true},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := New(strings.NewReader(tt.input), &out).Confirm("Proceed with installation?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.HasPrefix(out.String(), "Proceed with installation? [Y/n] ") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestSelect(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("9\nabc\n2\n"), &out)

	sel, err := p.Select("Packages to upgrade", 3, true)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Index != 1 {
		t.Errorf("Index = %d", sel.Index)
	}
	if c := strings.Count(out.String(), "Packages to upgrade (1-3), (a)ll or (q)uit: "); c != 3 {
		t.Errorf("expected the question three times, output:\n%s", out.String())
	}
}

func TestSelectGivesUp(t *testing.T) {
	p := New(strings.NewReader("x\ny\nz\n1\n"), &bytes.Buffer{})
	if _, err := p.Select("Pick", 2, false); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection after 3 attempts, got %v", err)
	}
}

func TestSelectEOFQuits(t *testing.T) {
	var out bytes.Buffer
	sel, err := New(strings.NewReader(""), &out).Select("Pick", 5, false)
	if err != nil || !sel.Quit {
		t.Errorf("Select on closed input = %+v, %v", sel, err)
	}
	if !strings.Contains(out.String(), "(1-5) or (q)uit") {
		t.Errorf("prompt = %q", out.String())
	}
}
