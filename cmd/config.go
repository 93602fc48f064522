package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configFormat string

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the generated build configuration of every package",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := loadConfigs()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch configFormat {
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(configs); err != nil {
				return err
			}
			return enc.Close()
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(configs)
		default:
			return fmt.Errorf("unknown format %q, use yaml or json", configFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.SilenceUsage = true
	configCmd.Flags().StringVarP(&configFormat, "format", "o", "yaml", "output format: yaml or json")
}
