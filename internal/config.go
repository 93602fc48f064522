package internal

import (
	"path/filepath"

	"github.com/gobeam/stringy"
)

type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

const (
	LoaderStyle      = "style-loader"
	LoaderCSSExtract = "mini-css-extract-loader"
	LoaderCSS        = "css-loader"
)

type PluginKind string

const (
	KindClean      PluginKind = "CleanPlugin"
	KindCSSExtract PluginKind = "CssExtractPlugin"
	KindWasmPack   PluginKind = "WasmPackPlugin"
	KindHTML       PluginKind = "HtmlPlugin"
)

// Slug is the kebab-case form used in logs and error messages.
func (k PluginKind) Slug() string {
	return stringy.New(string(k)).KebabCase().ToLower()
}

type BuildConfig struct {
	Name      string          `json:"name" yaml:"name"`
	Mode      Mode            `json:"mode" yaml:"mode"`
	Entry     string          `json:"entry" yaml:"entry"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	DevServer DevServerConfig `json:"devServer" yaml:"devServer"`
	Module    ModuleConfig    `json:"module" yaml:"module"`
	Plugins   []PluginConfig  `json:"plugins" yaml:"plugins"`
}

type OutputConfig struct {
	Path       string `json:"path" yaml:"path"`
	Filename   string `json:"filename" yaml:"filename"`
	PublicPath string `json:"publicPath" yaml:"publicPath"`
}

type DevServerConfig struct {
	ContentBase string `json:"contentBase" yaml:"contentBase"`
}

type ModuleConfig struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Rule pipes files matching Test through Use. Loaders apply right-to-left.
type Rule struct {
	Test string   `json:"test" yaml:"test"`
	Use  []string `json:"use" yaml:"use"`
}

// PluginConfig is a tagged union: Kind selects which options field is set.
type PluginConfig struct {
	Kind       PluginKind         `json:"kind" yaml:"kind"`
	Clean      *CleanOptions      `json:"clean,omitempty" yaml:"clean,omitempty"`
	CSSExtract *CSSExtractOptions `json:"cssExtract,omitempty" yaml:"cssExtract,omitempty"`
	WasmPack   *WasmPackOptions   `json:"wasmPack,omitempty" yaml:"wasmPack,omitempty"`
	HTML       *HTMLOptions       `json:"html,omitempty" yaml:"html,omitempty"`
}

type CleanOptions struct {
	Dry      bool     `json:"dry" yaml:"dry"`
	Patterns []string `json:"cleanOnceBeforeBuildPatterns" yaml:"cleanOnceBeforeBuildPatterns"`
}

type CSSExtractOptions struct {
	Filename string `json:"filename" yaml:"filename"`
}

type WasmPackOptions struct {
	CrateDirectory   string   `json:"crateDirectory" yaml:"crateDirectory"`
	WatchDirectories []string `json:"watchDirectories" yaml:"watchDirectories"`
	OutDir           string   `json:"outDir" yaml:"outDir"`
	Target           string   `json:"target" yaml:"target"`
	ForceMode        Mode     `json:"forceMode" yaml:"forceMode"`
	ExtraArgs        []string `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`
}

type HTMLOptions struct {
	Template string `json:"template" yaml:"template"`
	Filename string `json:"filename" yaml:"filename"`
	Minify   bool   `json:"minify" yaml:"minify"`
	Inject   bool   `json:"inject" yaml:"inject"`
}

// Generate returns one build configuration per package name, in order.
func Generate(root string, names []string) ([]BuildConfig, error) {
	configs := make([]BuildConfig, 0, len(names))
	for _, name := range names {
		pd, err := NewPackageDescriptor(root, name)
		if err != nil {
			return nil, err
		}
		configs = append(configs, NewBuildConfig(pd))
	}
	return configs, nil
}

func NewBuildConfig(pd PackageDescriptor) BuildConfig {
	root := filepath.Dir(filepath.Dir(pd.SourceDir()))
	return BuildConfig{
		Name:  pd.Name(),
		Mode:  ModeProduction,
		Entry: pd.EntryPoint(),
		Output: OutputConfig{
			Path:       pd.OutputDir(),
			Filename:   "index.js",
			PublicPath: pd.PublicPath(),
		},
		DevServer: DevServerConfig{
			ContentBase: filepath.Join(root, pagesDir),
		},
		Module: ModuleConfig{
			Rules: []Rule{{
				Test: `\.css$`,
				Use:  []string{LoaderStyle, LoaderCSSExtract, LoaderCSS},
			}},
		},
		Plugins: []PluginConfig{
			{
				Kind: KindClean,
				Clean: &CleanOptions{
					Dry: true,
					// crate-relative on purpose: this is wasm-pack's out dir, not the pages dir
					Patterns: []string{filepath.Join(pd.SourceDir(), "pkg", "*")},
				},
			},
			{
				Kind:       KindCSSExtract,
				CSSExtract: &CSSExtractOptions{Filename: "index.css"},
			},
			{
				Kind: KindWasmPack,
				WasmPack: &WasmPackOptions{
					CrateDirectory:   pd.SourceDir(),
					WatchDirectories: []string{filepath.Join(root, sharedSrc)},
					OutDir:           "pkg",
					Target:           "web",
					ForceMode:        ModeProduction,
				},
			},
			{
				Kind: KindHTML,
				HTML: &HTMLOptions{
					Template: pd.Template(),
					Filename: "index.html",
					Minify:   true,
					Inject:   true,
				},
			},
		},
	}
}
