// Package local lists packages installed on the system that did not come
// from a sync repository.
package local

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/process"
)

var (
	// ErrQueryFailed is returned when pacman exits non-zero
	ErrQueryFailed = errors.New("pacman query failed")
	// ErrMalformedLine is returned for output lines that are not "name version"
	ErrMalformedLine = errors.New("malformed pacman output")
)

// PacmanSource reads foreign packages with `pacman -Qm`.
type PacmanSource struct {
	runner process.Runner
}

// NewPacmanSource creates a PacmanSource running pacman through runner.
func NewPacmanSource(runner process.Runner) *PacmanSource {
	return &PacmanSource{runner: runner}
}

// Installed returns foreign packages with their installed versions, in
// pacman's order. A missing pacman is reported as DependencyMissingError.
func (s *PacmanSource) Installed(ctx context.Context) ([]aur.Package, error) {
	if err := process.RequireExecutables(s.runner, "pacman"); err != nil {
		return nil, err
	}

	cmd := process.Command{Name: "pacman", Args: []string{"-Qm"}, Mode: process.CaptureAll}
	logger.Debug("running %s", cmd)

	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	// pacman -Qm exits 1 with no output when nothing is foreign.
	if res.ExitCode == 1 && len(bytes.TrimSpace(res.Stdout)) == 0 && len(bytes.TrimSpace(res.Stderr)) == 0 {
		return []aur.Package{}, nil
	}
	if !res.Success() {
		return nil, fmt.Errorf("%w: exit status %d: %s", ErrQueryFailed, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	return ParseQueryOutput(res.Stdout)
}

// ParseQueryOutput parses `pacman -Q` style output, one "name version" pair
// per line. Blank lines are skipped.
func ParseQueryOutput(out []byte) ([]aur.Package, error) {
	pkgs := []aur.Package{}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedLine, lineNo, line)
		}
		pkgs = append(pkgs, aur.Package{Name: fields[0], Version: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return pkgs, nil
}
