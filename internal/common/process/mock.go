package process

import (
	"context"
	"sync"
)

// MockRunner implements Runner for testing.
// RunFunc and LookPathFunc control behavior; every Run call is recorded.
type MockRunner struct {
	RunFunc      func(ctx context.Context, cmd Command) (*Result, error)
	LookPathFunc func(name string) (string, error)

	mu    sync.Mutex
	calls []Command
}

// Run records cmd and delegates to RunFunc, succeeding by default.
func (m *MockRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, cmd)
	}
	return &Result{}, nil
}

// LookPath delegates to LookPathFunc; every name resolves by default.
func (m *MockRunner) LookPath(name string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(name)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns a copy of the recorded commands.
func (m *MockRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ensure MockRunner implements Runner interface
var _ Runner = (*MockRunner)(nil)
