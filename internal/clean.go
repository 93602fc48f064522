package internal

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// CleanPlugin removes stale files before the build. In dry mode it only
// reports what it would remove.
type CleanPlugin struct {
	Options CleanOptions
}

func (p *CleanPlugin) Kind() PluginKind { return KindClean }

func (p *CleanPlugin) Apply(h *Hooks) {
	h.BeforeRun(KindClean, func(_ context.Context, comp *Compilation) error {
		removed, err := Clean(p.Options, comp.Logger)
		if err != nil {
			return err
		}
		comp.Cleaned = removed
		return nil
	})
}

// Clean expands the patterns and returns the matched paths in sorted order.
func Clean(opts CleanOptions, logger zerolog.Logger) ([]string, error) {
	var matches []string
	for _, pattern := range opts.Patterns {
		m, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad pattern %q", pattern)
		}
		matches = append(matches, m...)
	}
	sort.Strings(matches)
	for _, path := range matches {
		if opts.Dry {
			logger.Info().Str("path", path).Bool("dry", true).Msg("would remove")
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return nil, errors.Wrapf(err, "remove %s", path)
		}
		logger.Info().Str("path", path).Msg("removed")
	}
	return matches, nil
}
