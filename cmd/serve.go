package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build all packages, serve gh-pages and rebuild on change",
	Long: `Builds every configured package once, then serves the shared gh-pages directory.
Edits to a package crate, its static files or the shared src/ directory rebuild
the affected packages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		configs, err := loadConfigs()
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			return nil
		}
		parallelism := viper.GetInt("parallelism")
		metrics := internal.NewMetrics()
		pipeline := internal.NewPipeline(logger, internal.ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr}, metrics)

		// initial failures are logged; the watcher retries on the next change
		_, _ = pipeline.RunAll(ctx, configs, parallelism)

		watcher, err := internal.NewWatcher(configs, logger, func(ctx context.Context, packages []string) {
			_, _ = pipeline.RunAll(ctx, internal.Select(configs, packages), parallelism)
		})
		if err != nil {
			return err
		}
		server := internal.NewDevServer(viper.GetString("addr"), configs[0].DevServer.ContentBase, metrics, logger)

		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error { return server.Run(egCtx) })
		eg.Go(func() error { return watcher.Run(egCtx) })
		return eg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.SilenceUsage = true

	serveCmd.Flags().String("addr", "localhost:8080", "address the dev server listens on")
	cobra.CheckErr(viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr")))
	viper.SetDefault("addr", "localhost:8080")
}
