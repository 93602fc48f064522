package internal

import (
	errors2 "errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

var extTest = regexp.MustCompile(`^\\(\.[A-Za-z0-9]+)\$$`)

type cssHandling struct {
	ext     string
	loader  api.Loader
	extract bool
	inject  bool
}

// resolveRule folds a loader chain right-to-left into a single esbuild loader.
func resolveRule(rule Rule) (cssHandling, error) {
	m := extTest.FindStringSubmatch(rule.Test)
	if m == nil {
		return cssHandling{}, errors.Errorf("rule test %q is not a plain extension match", rule.Test)
	}
	h := cssHandling{ext: m[1], loader: api.LoaderNone}
	for i := len(rule.Use) - 1; i >= 0; i-- {
		switch rule.Use[i] {
		case LoaderCSS:
			h.loader = api.LoaderCSS
		case LoaderCSSExtract:
			if h.loader == api.LoaderNone {
				return cssHandling{}, errors.Errorf("%s must run after %s", LoaderCSSExtract, LoaderCSS)
			}
			h.extract = true
		case LoaderStyle:
			if h.loader == api.LoaderNone {
				return cssHandling{}, errors.Errorf("%s must run after %s", LoaderStyle, LoaderCSS)
			}
			h.inject = true
		default:
			return cssHandling{}, errors.Errorf("unknown loader %q", rule.Use[i])
		}
	}
	if h.loader == api.LoaderNone {
		return cssHandling{}, errors.Errorf("rule %q has no parsing loader", rule.Test)
	}
	if !h.extract {
		// without extraction the stylesheet stays inside the script as a string
		h.loader = api.LoaderText
	}
	return h, nil
}

func bundleOptions(cfg BuildConfig, stageDir string) (api.BuildOptions, cssHandling, error) {
	var css cssHandling
	loaders := map[string]api.Loader{".wasm": api.LoaderFile}
	for _, rule := range cfg.Module.Rules {
		h, err := resolveRule(rule)
		if err != nil {
			return api.BuildOptions{}, css, err
		}
		loaders[h.ext] = h.loader
		if h.ext == ".css" {
			css = h
		}
	}
	minify := cfg.Mode == ModeProduction
	opts := api.BuildOptions{
		EntryPoints:       []string{cfg.Entry},
		Outdir:            stageDir,
		EntryNames:        strings.TrimSuffix(cfg.Output.Filename, filepath.Ext(cfg.Output.Filename)),
		AssetNames:        "[name]-[hash]",
		PublicPath:        cfg.Output.PublicPath,
		Bundle:            true,
		Write:             true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Loader:            loaders,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
		Define:            map[string]string{"process.env.NODE_ENV": fmt.Sprintf("%q", string(cfg.Mode))},
		LogLevel:          api.LogLevelSilent,
	}
	return opts, css, nil
}

// Bundle runs esbuild and records what it emitted into the staging dir.
func Bundle(comp *Compilation) error {
	result := api.Build(comp.Options)
	errs := make([]error, len(result.Errors))
	for i, message := range result.Errors {
		if message.Location != nil {
			errs[i] = fmt.Errorf("%s:%d: %s", message.Location.File, message.Location.Line, message.Text)
		} else {
			errs[i] = fmt.Errorf("%s", message.Text)
		}
	}
	if len(errs) > 0 {
		return errors2.Join(errs...)
	}
	for _, message := range result.Warnings {
		comp.Logger.Warn().Str("warning", message.Text).Msg("esbuild")
	}
	for _, file := range result.OutputFiles {
		rel, err := filepath.Rel(comp.StageDir, file.Path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		switch filepath.Ext(rel) {
		case ".js":
			if comp.Assets.Script == "" && rel == comp.Config.Output.Filename {
				comp.Assets.Script = rel
			} else {
				comp.Assets.Other = append(comp.Assets.Other, rel)
			}
		case ".css":
			comp.Assets.Stylesheets = append(comp.Assets.Stylesheets, rel)
		default:
			comp.Assets.Other = append(comp.Assets.Other, rel)
		}
		comp.Logger.Debug().Str("file", rel).Int("bytes", len(file.Contents)).Msg("built file")
	}
	if comp.Assets.Script == "" {
		return errors.Errorf("esbuild emitted no %s", comp.Config.Output.Filename)
	}
	return nil
}
