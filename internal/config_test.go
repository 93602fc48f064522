package internal_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Todomvc(t *testing.T) {
	root := t.TempDir()
	configs, err := internal.Generate(root, []string{"todomvc"})
	require.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	require.Equal(t, internal.ModeProduction, cfg.Mode)
	require.Equal(t, filepath.Join(root, "examples", "todomvc", "static", "index.js"), cfg.Entry)
	require.Equal(t, filepath.Join(root, "gh-pages", "todomvc"), cfg.Output.Path)
	require.Equal(t, "index.js", cfg.Output.Filename)
	require.Equal(t, "/todomvc/", cfg.Output.PublicPath)
	require.Equal(t, filepath.Join(root, "gh-pages"), cfg.DevServer.ContentBase)
}

func TestGenerate_LoaderChain(t *testing.T) {
	configs, err := internal.Generate(t.TempDir(), []string{"todomvc"})
	require.NoError(t, err)

	rules := configs[0].Module.Rules
	require.Len(t, rules, 1)
	require.Equal(t, `\.css$`, rules[0].Test)
	require.Equal(t, []string{internal.LoaderStyle, internal.LoaderCSSExtract, internal.LoaderCSS}, rules[0].Use)
}

func TestGenerate_PluginOrder(t *testing.T) {
	root := t.TempDir()
	configs, err := internal.Generate(root, []string{"todomvc"})
	require.NoError(t, err)

	plugins := configs[0].Plugins
	require.Len(t, plugins, 4)
	kinds := []internal.PluginKind{plugins[0].Kind, plugins[1].Kind, plugins[2].Kind, plugins[3].Kind}
	require.Equal(t, []internal.PluginKind{internal.KindClean, internal.KindCSSExtract, internal.KindWasmPack, internal.KindHTML}, kinds)

	crate := filepath.Join(root, "examples", "todomvc")
	require.True(t, plugins[0].Clean.Dry)
	// wasm-pack's out dir inside the crate, not gh-pages/<name>/pkg: keep it crate-relative
	require.Equal(t, []string{filepath.Join(crate, "pkg", "*")}, plugins[0].Clean.Patterns)
	require.Equal(t, "index.css", plugins[1].CSSExtract.Filename)
	require.Equal(t, crate, plugins[2].WasmPack.CrateDirectory)
	require.Equal(t, []string{filepath.Join(root, "src")}, plugins[2].WasmPack.WatchDirectories)
	require.Equal(t, filepath.Join(crate, "static", "index.html"), plugins[3].HTML.Template)
	require.True(t, plugins[3].HTML.Minify)
}

func TestGenerate_SecondPackageIsIsolated(t *testing.T) {
	root := t.TempDir()
	configs, err := internal.Generate(root, []string{"todomvc", "foo"})
	require.NoError(t, err)
	require.Len(t, configs, 2)
	require.Equal(t, "todomvc", configs[0].Name)
	require.Equal(t, "foo", configs[1].Name)

	foo := configs[1]
	require.Equal(t, "/foo/", foo.Output.PublicPath)
	paths := []string{
		foo.Entry,
		foo.Output.Path,
		foo.Plugins[0].Clean.Patterns[0],
		foo.Plugins[2].WasmPack.CrateDirectory,
		foo.Plugins[3].HTML.Template,
	}
	for _, p := range paths {
		assert.NotContains(t, p, "todomvc")
		slashed := filepath.ToSlash(p)
		assert.True(t, strings.Contains(slashed, "examples/foo") || strings.Contains(slashed, "gh-pages/foo"), p)
	}
	for _, p := range []string{configs[0].Entry, configs[0].Output.Path} {
		assert.NotContains(t, p, "foo")
	}
	// shared across packages
	require.Equal(t, configs[0].DevServer.ContentBase, foo.DevServer.ContentBase)
	require.Equal(t, configs[0].Plugins[2].WasmPack.WatchDirectories, foo.Plugins[2].WasmPack.WatchDirectories)
}

func TestGenerate_Idempotent(t *testing.T) {
	root := t.TempDir()
	names := []string{"todomvc", "counter"}
	first, err := internal.Generate(root, names)
	require.NoError(t, err)
	second, err := internal.Generate(root, names)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// results must not share mutable state
	first[0].Plugins[0].Clean.Dry = false
	require.True(t, second[0].Plugins[0].Clean.Dry)
}

func TestGenerate_Empty(t *testing.T) {
	configs, err := internal.Generate(t.TempDir(), nil)
	require.NoError(t, err)
	require.Empty(t, configs)
}

func TestGenerate_InvalidNames(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := internal.Generate(t.TempDir(), []string{"ok", name})
		require.Error(t, err, "name %q", name)
	}
}

func TestNewPackageDescriptor_RelativeRoot(t *testing.T) {
	pd, err := internal.NewPackageDescriptor(".", "todomvc")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(pd.SourceDir()))
	require.True(t, filepath.IsAbs(pd.OutputDir()))
	require.Equal(t, filepath.Join(pd.SourceDir(), "static", "index.js"), pd.EntryPoint())
	require.Equal(t, "/todomvc/", pd.PublicPath())
}
