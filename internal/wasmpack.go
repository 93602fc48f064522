package internal

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const wasmPackBin = "wasm-pack"

type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return errors.Wrapf(err, "%s not found on PATH", name)
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s %s", name, strings.Join(args, " "))
	}
	return nil
}

// WasmPackPlugin compiles the crate with wasm-pack before bundling and copies
// the produced .wasm binaries next to the bundle afterwards.
type WasmPackPlugin struct {
	Options WasmPackOptions
	Runner  CommandRunner
}

func (p *WasmPackPlugin) Kind() PluginKind { return KindWasmPack }

func (p *WasmPackPlugin) Apply(h *Hooks) {
	h.BeforeRun(KindWasmPack, func(ctx context.Context, comp *Compilation) error {
		return Compile(ctx, p.Runner, p.Options, comp.Logger)
	})
	h.AfterEmit(KindWasmPack, func(_ context.Context, comp *Compilation) error {
		copied, err := copyWasm(p.Options, comp.StageDir)
		if err != nil {
			return err
		}
		comp.Assets.Other = append(comp.Assets.Other, copied...)
		return nil
	})
}

func Compile(ctx context.Context, runner CommandRunner, opts WasmPackOptions, logger zerolog.Logger) error {
	if runner == nil {
		return errors.New("no command runner")
	}
	args := WasmPackArgs(opts)
	logger.Info().Str("crate", opts.CrateDirectory).Strs("args", args).Msg("compiling crate")
	return runner.Run(ctx, opts.CrateDirectory, wasmPackBin, args...)
}

func WasmPackArgs(opts WasmPackOptions) []string {
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "pkg"
	}
	args := []string{"build", opts.CrateDirectory, "--out-dir", outDir}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	if opts.ForceMode == ModeDevelopment {
		args = append(args, "--dev")
	} else {
		args = append(args, "--release")
	}
	return append(args, opts.ExtraArgs...)
}

func copyWasm(opts WasmPackOptions, stageDir string) ([]string, error) {
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "pkg"
	}
	binaries, err := filepath.Glob(filepath.Join(opts.CrateDirectory, outDir, "*.wasm"))
	if err != nil {
		return nil, err
	}
	copied := make([]string, 0, len(binaries))
	for _, src := range binaries {
		name := filepath.Base(src)
		if err := cp.Copy(src, filepath.Join(stageDir, name)); err != nil {
			return nil, err
		}
		copied = append(copied, name)
	}
	return copied, nil
}
