package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Used for flags.
	cfgFile string
	verbose bool
	// set using ldflags
	version string
)

var defaultPackages = []string{"todomvc"}

var logger zerolog.Logger

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wasmpack-pages",
	Short: "Build the WebAssembly demo pages into gh-pages",
	Long: `Generates the build configuration of every demo package under examples/ and runs it:
the crate is compiled with wasm-pack, index.js is bundled with esbuild, styles are
extracted into index.css and index.html is rendered from the package template.
For example:

wasmpack-pages config
wasmpack-pages build --packages todomvc,counter
wasmpack-pages serve
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = internal.SetupLogger(os.Stderr, viper.GetBool("verbose"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default is $CWD/.wasmpack-pages.yml)")
	rootCmd.PersistentFlags().String("root", ".", "repository root containing examples/ and src/")
	rootCmd.PersistentFlags().StringSlice("packages", defaultPackages, "packages under examples/ to configure")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to a console writer")
	rootCmd.PersistentFlags().IntP("parallelism", "p", 1, "How many packages to build at the same time.")
	rootCmd.PersistentFlags().Bool("dry-clean", true, "Only report what the clean step would delete.")
	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))
	cobra.CheckErr(viper.BindPFlag("clean.dry", rootCmd.PersistentFlags().Lookup("dry-clean")))

	if version == "" {
		version = "dev"
	}
	rootCmd.Version = version
	viper.SetDefault("root", ".")
	viper.SetDefault("packages", defaultPackages)
	viper.SetDefault("parallelism", 1)
	viper.SetEnvPrefix("WPP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		cobra.CheckErr(err)
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wasmpack-pages.yml")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
		cobra.CheckErr(err)
	}
}

// loadConfigs generates the build configuration for the configured packages.
func loadConfigs() ([]internal.BuildConfig, error) {
	configs, err := internal.Generate(viper.GetString("root"), viper.GetStringSlice("packages"))
	if err != nil {
		return nil, err
	}
	if viper.IsSet("clean.dry") {
		dry := viper.GetBool("clean.dry")
		for _, cfg := range configs {
			for _, pc := range cfg.Plugins {
				if pc.Clean != nil {
					pc.Clean.Dry = dry
				}
			}
		}
	}
	return configs, nil
}
