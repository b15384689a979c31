package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"hubbleplay/internal/catalog"
	"hubbleplay/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Work with catalog files",
}

var catalogSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of catalog files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := catalog.SchemaJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog file",
	Long: `Parse and validate a catalog file (.yaml, .yml, .json or .toml).

Examples:
  hubbleplay catalog validate ./catalog.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		endpoints := 0
		for _, api := range cat.APIs {
			endpoints += len(api.Endpoints)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(
			fmt.Sprintf("✓ %s: %d APIs, %d endpoints", args[0], len(cat.APIs), endpoints)))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with configuration files",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogSchemaCmd, catalogValidateCmd)
	configCmd.AddCommand(configSchemaCmd)
	rootCmd.AddCommand(catalogCmd, configCmd)
}
