package cmd

import (
	"fmt"
	"os"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile, bundle and render every configured package into gh-pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := loadConfigs()
		if err != nil {
			return err
		}
		pipeline := internal.NewPipeline(logger, internal.ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr}, nil)
		results, err := pipeline.RunAll(cmd.Context(), configs, viper.GetInt("parallelism"))
		for _, res := range results {
			if res.RunID == "" {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d assets in %s\n", res.Package, len(res.Assets), res.Duration.Round(1e6))
			for _, path := range res.Cleaned {
				fmt.Fprintf(cmd.OutOrStdout(), "   clean: %s\n", path)
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.SilenceUsage = true
}
