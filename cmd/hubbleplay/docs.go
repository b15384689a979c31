package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"hubbleplay/internal/composer"
	"hubbleplay/internal/model"
	"hubbleplay/internal/selector"
)

var docsLanguage string

var docsCmd = &cobra.Command{
	Use:   "docs <api> <endpoint>",
	Short: "Show the reference for an endpoint",
	Long: `Show an endpoint's description, request parameters, example responses
and code examples.

Examples:
  hubbleplay docs tx balance
  hubbleplay docs text2sql generate-chart --lang python`,
	Args: cobra.ExactArgs(2),
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsLanguage, "lang", "", "only show code examples in this language (curl, python, ...)")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
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

	api, ok := cat.API(args[0])
	if !ok {
		return fmt.Errorf("%s: %w", args[0], selector.ErrAPINotFound)
	}
	ep, ok := api.Endpoint(args[1])
	if !ok {
		return fmt.Errorf("%s/%s: %w", args[0], args[1], selector.ErrEndpointNotFound)
	}

	printDocs(cmd.OutOrStdout(), model.Descriptor(api, ep), ep, docsLanguage)
	return nil
}

func printDocs(w io.Writer, d model.EndpointDescriptor, ep *model.EndpointConfig, lang string) {
	fmt.Fprintf(w, "%s %s\n", methodStyle(d.Method).Render(string(d.Method)), titleStyle.Render(d.URL()))
	if ep.Description != "" {
		fmt.Fprintln(w, ep.Description)
	}
	fmt.Fprintln(w, mutedStyle.Render("auth header: "+d.APIKeyHeaderName))
	if ep.SupportsStream {
		fmt.Fprintln(w, mutedStyle.Render(`returns an SSE stream when "stream": true`))
	}

	if len(ep.RequestParameters) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Request parameters"))
		fmt.Fprintln(w, parametersTable(ep.RequestParameters))
	}

	if !ep.SampleBody.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Sample body"))
		fmt.Fprintln(w, codeStyle.Render(composer.Pretty(ep.SampleBody)))
	}

	if len(ep.Responses) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Responses"))
		for _, r := range ep.Responses {
			fmt.Fprintf(w, "%s %s\n", statusStyle(r.StatusCode).Render(fmt.Sprint(r.StatusCode)), r.Description)
			if !r.Body.IsZero() {
				fmt.Fprintln(w, codeStyle.Render(composer.Pretty(r.Body)))
			}
		}
	}

	var examples []model.CodeExample
	for _, ex := range ep.CodeExamples {
		if lang == "" || strings.EqualFold(ex.Language, lang) {
			examples = append(examples, ex)
		}
	}
	if len(examples) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Code examples"))
		for _, ex := range examples {
			fmt.Fprintln(w, idStyle.Render(ex.Label))
			fmt.Fprintln(w, codeStyle.Render(strings.TrimRight(ex.Code, "\n")))
		}
	}
}

func parametersTable(params []model.RequestParameter) string {
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		required := "no"
		if p.Required {
			required = "yes"
		}
		rows = append(rows, []string{p.Name, p.Type, required, p.DefaultValue, p.Description})
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("Name", "Type", "Required", "Default", "Description").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return header
			}
			return cell
		}).
		String()
}
