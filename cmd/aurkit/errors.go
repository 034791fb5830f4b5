package main

import (
	"errors"
	"fmt"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/build"
	"github.com/obentoo/aurkit/internal/cache"
	"github.com/obentoo/aurkit/internal/common/process"
)

// describeError renders err as a short message prefixed by its category.
func describeError(err error) string {
	var (
		depErr   *process.DependencyMissingError
		fetchErr *aur.FetchError
		cacheErr *cache.CacheError
		buildErr *build.BuildError
	)

	switch {
	case errors.As(err, &depErr):
		return fmt.Sprintf("missing dependency: %s is required but was not found in PATH", depErr.Name)
	case errors.As(err, &buildErr):
		return "build failed: " + buildErr.Error()
	case errors.As(err, &cacheErr):
		return "cache error: " + cacheErr.Error()
	case errors.As(err, &fetchErr):
		if fetchErr.NotFound() {
			return "not found: " + fetchErr.URL
		}
		return "fetch failed: " + fetchErr.Error()
	case errors.Is(err, aur.ErrNoVersionFound):
		return "no package details: " + err.Error()
	case errors.Is(err, aur.ErrNoVersionCaptured):
		return "unexpected page format: " + err.Error()
	default:
		return err.Error()
	}
}
