package internal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Plugin registers its work on the pipeline phases.
type Plugin interface {
	Kind() PluginKind
	Apply(h *Hooks)
}

type hookFunc func(ctx context.Context, comp *Compilation) error

type hook struct {
	kind PluginKind
	fn   hookFunc
}

// Hooks holds the callbacks of every phase. Callbacks run in registration
// order, which is plugin declaration order.
type Hooks struct {
	beforeRun []hook
	configure []hook
	afterEmit []hook
}

func (h *Hooks) BeforeRun(kind PluginKind, fn hookFunc) {
	h.beforeRun = append(h.beforeRun, hook{kind: kind, fn: fn})
}

func (h *Hooks) Configure(kind PluginKind, fn hookFunc) {
	h.configure = append(h.configure, hook{kind: kind, fn: fn})
}

func (h *Hooks) AfterEmit(kind PluginKind, fn hookFunc) {
	h.afterEmit = append(h.afterEmit, hook{kind: kind, fn: fn})
}

// Compilation is the mutable state of one package build.
type Compilation struct {
	Config   BuildConfig
	RunID    string
	StageDir string
	Options  api.BuildOptions
	Assets   Assets
	Cleaned  []string
	Logger   zerolog.Logger

	css           cssHandling
	extractedName string
}

// Assets are paths relative to the output directory.
type Assets struct {
	Script      string
	Stylesheets []string
	Other       []string
}

func (a Assets) All() []string {
	all := make([]string, 0, len(a.Stylesheets)+len(a.Other)+1)
	if a.Script != "" {
		all = append(all, a.Script)
	}
	all = append(all, a.Stylesheets...)
	return append(all, a.Other...)
}

type Result struct {
	RunID    string
	Package  string
	Assets   []string
	Cleaned  []string
	Duration time.Duration
}

type Pipeline struct {
	runner  CommandRunner
	logger  zerolog.Logger
	metrics *Metrics
}

func NewPipeline(logger zerolog.Logger, runner CommandRunner, metrics *Metrics) *Pipeline {
	return &Pipeline{runner: runner, logger: logger, metrics: metrics}
}

// Run executes one package build. The output directory is only written
// once every phase has succeeded.
func (p *Pipeline) Run(ctx context.Context, cfg BuildConfig) (Result, error) {
	started := time.Now()
	res, err := p.run(ctx, cfg)
	res.Duration = time.Since(started)
	if p.metrics != nil {
		p.metrics.Observe(cfg.Name, res.Duration, err)
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, cfg BuildConfig) (Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With().Str("package", cfg.Name).Str("run_id", runID).Logger()
	res := Result{RunID: runID, Package: cfg.Name}

	plugins, err := NewPlugins(cfg, p.runner)
	if err != nil {
		return res, err
	}
	hooks := &Hooks{}
	for _, plugin := range plugins {
		plugin.Apply(hooks)
	}

	stageDir, err := CreateStagingDir(cfg.Name)
	if err != nil {
		return res, errors.Wrap(err, "create staging dir")
	}
	defer func() {
		if rmErr := os.RemoveAll(stageDir); rmErr != nil {
			logger.Warn().Err(rmErr).Str("dir", stageDir).Msg("failed to remove staging dir")
		}
	}()

	opts, css, err := bundleOptions(cfg, stageDir)
	if err != nil {
		return res, err
	}
	comp := &Compilation{
		Config:   cfg,
		RunID:    runID,
		StageDir: stageDir,
		Options:  opts,
		Logger:   logger,
		css:      css,
	}

	if err := runHooks(ctx, "before-run", hooks.beforeRun, comp); err != nil {
		return res, err
	}
	if err := runHooks(ctx, "configure", hooks.configure, comp); err != nil {
		return res, err
	}
	if comp.css.extract && comp.extractedName == "" {
		return res, errors.Errorf("loader %s is used but no %s is configured", LoaderCSSExtract, KindCSSExtract)
	}

	logger.Info().Str("entry", cfg.Entry).Msg("bundling")
	if err := Bundle(comp); err != nil {
		return res, errors.Wrap(err, "bundle")
	}
	if err := runHooks(ctx, "after-emit", hooks.afterEmit, comp); err != nil {
		return res, err
	}

	if err := Publish(stageDir, cfg.Output.Path); err != nil {
		return res, errors.Wrapf(err, "publish to %s", cfg.Output.Path)
	}
	res.Assets = comp.Assets.All()
	res.Cleaned = comp.Cleaned
	logger.Info().Strs("assets", res.Assets).Str("out", cfg.Output.Path).Msg("build complete")
	return res, nil
}

func runHooks(ctx context.Context, phase string, hooks []hook, comp *Compilation) error {
	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.fn(ctx, comp); err != nil {
			return errors.Wrapf(err, "%s: %s", phase, h.kind.Slug())
		}
	}
	return nil
}

// NewPlugins instantiates the configured plugins in declaration order.
func NewPlugins(cfg BuildConfig, runner CommandRunner) ([]Plugin, error) {
	plugins := make([]Plugin, 0, len(cfg.Plugins))
	for i, pc := range cfg.Plugins {
		var plugin Plugin
		switch {
		case pc.Kind == KindClean && pc.Clean != nil:
			plugin = &CleanPlugin{Options: *pc.Clean}
		case pc.Kind == KindCSSExtract && pc.CSSExtract != nil:
			plugin = &CSSExtractPlugin{Options: *pc.CSSExtract}
		case pc.Kind == KindWasmPack && pc.WasmPack != nil:
			plugin = &WasmPackPlugin{Options: *pc.WasmPack, Runner: runner}
		case pc.Kind == KindHTML && pc.HTML != nil:
			plugin = &HTMLPlugin{Options: *pc.HTML}
		default:
			return nil, errors.Errorf("plugin %d: unknown kind %q or missing options", i, pc.Kind)
		}
		plugins = append(plugins, plugin)
	}
	return plugins, nil
}

// CSSExtractPlugin names the stylesheet produced from extracted CSS.
type CSSExtractPlugin struct {
	Options CSSExtractOptions
}

func (p *CSSExtractPlugin) Kind() PluginKind { return KindCSSExtract }

func (p *CSSExtractPlugin) Apply(h *Hooks) {
	h.Configure(KindCSSExtract, func(_ context.Context, comp *Compilation) error {
		if p.Options.Filename == "" {
			return errors.New("filename is empty")
		}
		comp.extractedName = p.Options.Filename
		return nil
	})
	h.AfterEmit(KindCSSExtract, func(_ context.Context, comp *Compilation) error {
		for i, sheet := range comp.Assets.Stylesheets {
			if sheet == p.Options.Filename {
				continue
			}
			target := filepath.Join(comp.StageDir, p.Options.Filename)
			if err := os.Rename(filepath.Join(comp.StageDir, sheet), target); err != nil {
				return err
			}
			comp.Logger.Debug().Str("from", sheet).Str("to", p.Options.Filename).Msg("renamed stylesheet")
			comp.Assets.Stylesheets[i] = p.Options.Filename
		}
		return nil
	})
}
