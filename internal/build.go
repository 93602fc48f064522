package internal

import (
	"context"
	errors2 "errors"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunAll builds every config, at most parallelism at a time. A failing
// package does not stop the others; results keep input order.
func (p *Pipeline) RunAll(ctx context.Context, configs []BuildConfig, parallelism int) ([]Result, error) {
	results := make([]Result, len(configs))
	errs := make([]error, len(configs))
	var eg errgroup.Group
	if parallelism > 0 {
		eg.SetLimit(parallelism)
	}
	for i, cfg := range configs {
		i, cfg := i, cfg
		eg.Go(func() error {
			res, err := p.Run(ctx, cfg)
			results[i] = res
			if err != nil {
				errs[i] = errors.Wrapf(err, "package %s", cfg.Name)
				p.logger.Error().Err(err).Str("package", cfg.Name).Msg("build failed")
			}
			return nil
		})
	}
	_ = eg.Wait()
	return results, errors2.Join(errs...)
}

// Select returns the configs whose names are listed, in config order.
func Select(configs []BuildConfig, names []string) []BuildConfig {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []BuildConfig
	for _, cfg := range configs {
		if want[cfg.Name] {
			out = append(out, cfg)
		}
	}
	return out
}
