package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs [output dir]",
	Short: "Generate the markdown documentation for wasmpack-pages",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := filepath.Join(".", "docs")
		if len(args) > 0 {
			dir = args[0]
		}
		err := os.MkdirAll(dir, os.ModePerm)
		cobra.CheckErr(err)
		err = doc.GenMarkdownTree(rootCmd, dir)
		if err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
