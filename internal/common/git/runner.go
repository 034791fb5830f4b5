package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/process"
)

var (
	ErrGitCommand  = errors.New("git command failed")
	ErrEmptyURL    = errors.New("clone URL is empty")
	ErrEmptyRemote = errors.New("remote name is empty")
)

// CommandError describes a git invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Is lets errors.Is(err, ErrGitCommand) match any CommandError.
func (e *CommandError) Is(target error) bool {
	return target == ErrGitCommand
}

// GitRunner executes git commands for a single checkout directory.
type GitRunner struct {
	workDir string
	runner  process.Runner
	mode    process.CaptureMode
}

// NewGitRunner creates a GitRunner for workDir. Output is captured unless
// mode is process.CaptureNone, so failures can carry git's stderr.
func NewGitRunner(workDir string, runner process.Runner, mode process.CaptureMode) *GitRunner {
	return &GitRunner{
		workDir: workDir,
		runner:  runner,
		mode:    mode,
	}
}

// WorkDir returns the working directory of the GitRunner
func (g *GitRunner) WorkDir() string {
	return g.workDir
}

// runCommand executes a git command in dir and returns captured stdout.
func (g *GitRunner) runCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := process.Command{Name: "git", Args: args, Dir: dir, Mode: g.mode}
	logger.Debug("running %s (in %s)", cmd, dir)

	res, err := g.runner.Run(ctx, cmd)
	if err != nil {
		return "", errors.Join(ErrGitCommand, err)
	}
	if !res.Success() {
		return "", &CommandError{
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
		}
	}

	return string(res.Stdout), nil
}

// Clone runs `git clone [--branch b] <url> <workDir>` from the parent of
// workDir. The parent must already exist.
func (g *GitRunner) Clone(ctx context.Context, url, branch string) error {
	if url == "" {
		return ErrEmptyURL
	}

	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, g.workDir)

	_, err := g.runCommand(ctx, filepath.Dir(g.workDir), args...)
	return err
}

// Pull runs `git pull <remote> <branch>` inside the checkout.
func (g *GitRunner) Pull(ctx context.Context, remote, branch string) error {
	if remote == "" {
		return ErrEmptyRemote
	}

	args := []string{"pull", remote}
	if branch != "" {
		args = append(args, branch)
	}

	_, err := g.runCommand(ctx, g.workDir, args...)
	return err
}

// Revision returns the HEAD commit hash. It always captures output.
func (g *GitRunner) Revision(ctx context.Context) (string, error) {
	res, err := g.runner.Run(ctx, process.Command{
		Name: "git",
		Args: []string{"rev-parse", "HEAD"},
		Dir:  g.workDir,
		Mode: process.CaptureAll,
	})
	if err != nil {
		return "", errors.Join(ErrGitCommand, err)
	}
	if !res.Success() {
		return "", &CommandError{
			Args:     []string{"rev-parse", "HEAD"},
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
		}
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// Ensure GitRunner implements GitExecutor interface
var _ GitExecutor = (*GitRunner)(nil)
