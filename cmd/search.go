package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/querycache"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Search articles and archive books",
	GroupID: "content",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(mustString(cmd, "output"))
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		res, err := searchSite(ctx, a, strings.Join(args, " "))
		if err != nil {
			output.Error("%v", err)
			return err
		}

		switch format {
		case output.FormatJSON:
			return output.JSON(res)
		case output.FormatYAML:
			return output.YAML(res)
		}
		printSearch(res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringP("output", "o", "table", "output format: table, json, yaml")
	searchCmd.Flags().String("lang", "", "article language: en or hi")
}

// searchSite runs the cached site search in the configured language.
func searchSite(ctx context.Context, a *app, q string) (*models.SearchResult, error) {
	res, err := a.Console.Search(ctx, q, a.Console.Language())
	if errors.Is(err, querycache.ErrDisabled) {
		return nil, fmt.Errorf("query %q is too short (at least %d characters)", strings.TrimSpace(q), a.Config.Search.MinQueryLength)
	}
	return res, err
}

func printSearch(res *models.SearchResult) {
	width := output.TerminalWidth(100)
	fmt.Fprint(output.Stdout, output.SectionHeader(fmt.Sprintf("Articles (%d)", len(res.Articles))))
	for i := range res.Articles {
		fmt.Fprintln(output.Stdout, output.FormatRecordShort(&res.Articles[i], width))
	}
	fmt.Fprint(output.Stdout, output.SectionHeader(fmt.Sprintf("Books (%d)", len(res.Books))))
	for i := range res.Books {
		fmt.Fprintln(output.Stdout, output.FormatRecordShort(&res.Books[i], width))
	}
}
