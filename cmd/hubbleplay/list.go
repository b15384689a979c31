package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hubbleplay/internal/model"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List APIs and endpoints",
	Long: `List the APIs and endpoints of the catalog.

Examples:
  hubbleplay list
  hubbleplay list --json
  hubbleplay list --catalog ./my-catalog.yaml`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output the catalog as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	extend, err := openAPIExtension(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg, extend)
	if err != nil {
		return err
	}

	if listJSON {
		data, err := json.MarshalIndent(cat, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	printCatalog(cmd.OutOrStdout(), cat)
	return nil
}

func printCatalog(w io.Writer, cat *model.Catalog) {
	for i, api := range cat.APIs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s  %s\n",
			titleStyle.Render(api.Label), idStyle.Render("("+api.ID+")"), mutedStyle.Render(api.BaseURL))
		for _, ep := range api.Endpoints {
			line := fmt.Sprintf("  %s %s %s", methodStyle(ep.Method).Render(string(ep.Method)), idStyle.Render(ep.ID), ep.Path)
			if ep.SupportsStream {
				line += mutedStyle.Render("  [stream]")
			}
			fmt.Fprintln(w, line)
		}
	}
}
