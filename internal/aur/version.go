package aur

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNoVersionFound means the package-details heading is absent, which
	// usually means the package does not exist
	ErrNoVersionFound = errors.New("no package details heading found")
	// ErrNoVersionCaptured means the heading is present but carries no
	// version token, which points at unexpected markup
	ErrNoVersionCaptured = errors.New("package details heading has no version")
)

// detailsHeading matches <h2>Package Details: <name> <version></h2>.
var detailsHeading = regexp.MustCompile(`<h2>Package Details:([^<]*)</h2>`)

// ExtractVersion returns the version from the package-details heading of a
// package page. The token after the name is returned verbatim, including
// any epoch or pkgrel suffix.
func ExtractVersion(html string) (string, error) {
	m := detailsHeading.FindStringSubmatch(html)
	if m == nil {
		return "", ErrNoVersionFound
	}

	fields := strings.Fields(m[1])
	if len(fields) < 2 {
		return "", ErrNoVersionCaptured
	}
	return fields[len(fields)-1], nil
}

// extractName returns the package name from the heading, or "".
func extractName(html string) string {
	m := detailsHeading.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	fields := strings.Fields(m[1])
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[:len(fields)-1], " ")
}
