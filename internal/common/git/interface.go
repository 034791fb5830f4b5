package git

import "context"

// GitExecutor defines the interface for the git operations needed to keep a
// package checkout current. It allows mocking git in tests.
type GitExecutor interface {
	// Clone clones url into the working directory, checking out branch
	// when it is non-empty
	Clone(ctx context.Context, url, branch string) error

	// Pull pulls branch from remote into the working directory
	Pull(ctx context.Context, remote, branch string) error

	// Revision returns the commit hash checked out in the working directory
	Revision(ctx context.Context) (string, error)

	// WorkDir returns the working directory of the git repository
	WorkDir() string
}
