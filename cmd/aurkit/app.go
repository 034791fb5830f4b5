package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/build"
	"github.com/obentoo/aurkit/internal/cache"
	"github.com/obentoo/aurkit/internal/common/config"
	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/process"
	"github.com/obentoo/aurkit/internal/local"
	"github.com/obentoo/aurkit/internal/prompt"
	"github.com/obentoo/aurkit/internal/upgrade"
)

// app holds the components shared by all commands, built once from the
// resolved settings.
type app struct {
	settings *config.Settings
	client   *aur.Client
	cache    *cache.Manager
	ledger   *cache.Ledger
	local    *local.PacmanSource
	driver   *upgrade.Driver
	out      io.Writer
}

// loadApp reads config.yaml and packages.toml, applies command-line flags
// and wires the components to the terminal.
func loadApp() (*app, error) {
	path, err := config.FindConfigPath()
	if err != nil {
		return nil, err
	}
	res, err := config.LoadWithStatus(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	switch {
	case res.Created:
		logger.Debug("wrote default configuration to %s", path)
	case res.Replaced:
		logger.Warn("%s could not be parsed; moved to %s.old and replaced with defaults", path, path)
	}

	settings, err := res.Config.Resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	applyFlags(settings)

	overridesPath, err := config.OverridesPath()
	if err != nil {
		return nil, err
	}
	overrides, err := config.LoadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}

	return newApp(settings, overrides, process.NewExecRunner(), os.Stdin, os.Stdout)
}

// applyFlags lets --verbose, --quiet and --noconfirm take precedence over
// the configuration file.
func applyFlags(s *config.Settings) {
	switch {
	case verbose:
		s.Verbosity = config.VerbosityVerbose
	case quiet:
		s.Verbosity = config.VerbosityQuiet
	}
	if noConfirm {
		s.NoConfirm = true
	}
}

// newApp wires every component from settings.
func newApp(settings *config.Settings, overrides *config.Overrides, runner process.Runner, in io.Reader, out io.Writer) (*app, error) {
	retry := aur.DefaultRetryConfig()
	retry.Timeout = settings.Timeout
	retry.MaxRetries = settings.Retries
	retry.RateLimit = settings.RateLimit
	retry.Burst = max(settings.Parallelism, 1)

	client := aur.NewClient(settings.AURURL,
		aur.WithHTTPClient(aur.NewRetryableHTTPClient(retry)),
		aur.WithSearchLimit(settings.SearchLimit))

	ledger, err := cache.OpenLedger(settings.DBDir)
	if err != nil {
		if !errors.Is(err, cache.ErrLedgerCorrupted) {
			return nil, err
		}
		logger.Warn("%v; starting a new build history", err)
	}

	cacheMgr := cache.NewManager(settings.CacheRoot)
	builder := build.NewOrchestrator(settings, cacheMgr, runner,
		build.WithOverrides(overrides),
		build.WithLedger(ledger))

	driver := upgrade.NewDriver(client, builder, prompt.New(in, out), settings,
		upgrade.WithOverrides(overrides))

	return &app{
		settings: settings,
		client:   client,
		cache:    cacheMgr,
		ledger:   ledger,
		local:    local.NewPacmanSource(runner),
		driver:   driver,
		out:      out,
	}, nil
}

// mustLoadApp is loadApp for command handlers.
func mustLoadApp() *app {
	a, err := loadApp()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	return a
}

// exitOnError reports err and exits non-zero unless it is nil or the user
// aborted.
func exitOnError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, upgrade.ErrAborted) {
		logger.Info("aborted")
		return
	}
	logger.Error("%s", describeError(err))
	os.Exit(1)
}
