// Package process runs external programs (git, makepkg, pacman) behind a
// small interface so callers can be tested without real executables.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrStartFailed is returned when a program could not be started at all
	ErrStartFailed = errors.New("failed to start process")
)

// CaptureMode decides which output streams are captured and which are
// passed through to the user's terminal.
type CaptureMode int

const (
	// CaptureStdout captures stdout and inherits stderr
	CaptureStdout CaptureMode = iota
	// CaptureAll captures both streams; nothing reaches the terminal
	CaptureAll
	// CaptureNone inherits both streams
	CaptureNone
)

func (m CaptureMode) String() string {
	switch m {
	case CaptureAll:
		return "capture-all"
	case CaptureNone:
		return "inherit"
	default:
		return "capture-stdout"
	}
}

// Command describes one program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Mode CaptureMode
	// Interactive connects the user's stdin, needed by makepkg/sudo prompts.
	Interactive bool
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of a finished process. Stdout and Stderr hold
// captured bytes only; streams that were inherited are empty.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports a zero exit status.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner runs a Command to completion. A non-zero exit is not an error: it is
// reported through Result.ExitCode. The error return is reserved for
// processes that could not be started or waited on.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
	// LookPath resolves an executable on PATH
	LookPath(name string) (string, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	// Stdout, Stderr and Stdin are the terminal streams used for inherited
	// output; nil selects the process's own.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// NewExecRunner creates a Runner attached to the process's terminal.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it. There is no internal timeout; the
// process runs until it exits or ctx is cancelled.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var stdoutBuf, stderrBuf bytes.Buffer
	switch cmd.Mode {
	case CaptureAll:
		c.Stdout = &stdoutBuf
		c.Stderr = &stderrBuf
	case CaptureNone:
		c.Stdout = orWriter(r.Stdout, os.Stdout)
		c.Stderr = orWriter(r.Stderr, os.Stderr)
	default:
		c.Stdout = &stdoutBuf
		c.Stderr = orWriter(r.Stderr, os.Stderr)
	}
	if cmd.Interactive {
		if r.Stdin != nil {
			c.Stdin = r.Stdin
		} else {
			c.Stdin = os.Stdin
		}
	}

	err := c.Run()
	result := &Result{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStartFailed, cmd.Name, err)
	}

	return result, nil
}

// LookPath resolves name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func orWriter(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

// DependencyMissingError reports a required executable that is not on PATH.
type DependencyMissingError struct {
	Name string
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("required program %q not found in PATH", e.Name)
}

// RequireExecutables fails with a DependencyMissingError for the first name
// the runner cannot resolve.
func RequireExecutables(r Runner, names ...string) error {
	for _, name := range names {
		if _, err := r.LookPath(name); err != nil {
			return &DependencyMissingError{Name: name}
		}
	}
	return nil
}

// Ensure ExecRunner implements Runner interface
var _ Runner = (*ExecRunner)(nil)
