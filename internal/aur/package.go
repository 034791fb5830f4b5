// Package aur talks to the Arch User Repository web frontend: it fetches
// package and search pages, extracts published versions and compares them
// with locally known ones.
package aur

// Package identifies an installable unit. Name is the unique key; Version is
// replaced when a newer remote version is resolved.
type Package struct {
	Name        string
	Version     string
	Description string
}

// WithVersion returns a copy of p carrying version.
func (p Package) WithVersion(version string) Package {
	p.Version = version
	return p
}

// RemoteVersion is a version string resolved from the repository for Name.
type RemoteVersion struct {
	Name    string
	Version string
}

// OutdatedEntry pairs a locally known package with its remote counterpart.
type OutdatedEntry struct {
	Local  Package
	Remote Package
}

// Compare reports whether remote differs from local.
//
// This is plain string inequality, not version ordering: a remote that is
// lexically or semantically older still counts as different and is reported
// as outdated. Callers rely on that over-reporting, keep it.
func Compare(local, remote string) bool {
	return local != remote
}
