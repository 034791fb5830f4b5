package git

import "context"

// MockGitRunner implements GitExecutor for testing.
// Each method can be configured with a custom function to control behavior.
type MockGitRunner struct {
	CloneFunc    func(url, branch string) error
	PullFunc     func(remote, branch string) error
	RevisionFunc func() (string, error)
	workDir      string
}

// NewMockGitRunner creates a new MockGitRunner with the specified working directory
func NewMockGitRunner(workDir string) *MockGitRunner {
	return &MockGitRunner{
		workDir: workDir,
	}
}

// Clone calls CloneFunc if set
func (m *MockGitRunner) Clone(ctx context.Context, url, branch string) error {
	if m.CloneFunc != nil {
		return m.CloneFunc(url, branch)
	}
	return nil
}

// Pull calls PullFunc if set
func (m *MockGitRunner) Pull(ctx context.Context, remote, branch string) error {
	if m.PullFunc != nil {
		return m.PullFunc(remote, branch)
	}
	return nil
}

// Revision calls RevisionFunc if set
func (m *MockGitRunner) Revision(ctx context.Context) (string, error) {
	if m.RevisionFunc != nil {
		return m.RevisionFunc()
	}
	return "", nil
}

// WorkDir returns the working directory of the git repository
func (m *MockGitRunner) WorkDir() string {
	return m.workDir
}

// Ensure MockGitRunner implements GitExecutor interface
var _ GitExecutor = (*MockGitRunner)(nil)
