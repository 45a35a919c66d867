package cmd

import (
	"context"
	"fmt"

	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:               "show <view> [id]",
	Short:             "Show one record",
	Long:              `Show one record rendered as markdown. Singleton views take no id.`,
	GroupID:           "content",
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: viewArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		id := ""
		if len(args) == 2 {
			id = args[1]
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		rec, err := findRecord(ctx, a, args[0], id)
		if err != nil {
			return failure(a, err)
		}

		switch format, _ := output.ParseFormat(mustString(cmd, "output")); format {
		case output.FormatJSON:
			return output.JSON(rec)
		case output.FormatYAML:
			return output.YAML(rec)
		}

		md := output.RecordMarkdown(rec)
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprint(output.Stdout, md)
			return nil
		}
		rendered, err := output.RenderMarkdownWithWidth(md, output.TerminalWidth(100))
		if err != nil {
			fmt.Fprint(output.Stdout, md)
			return nil
		}
		fmt.Fprintln(output.Stdout, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringP("output", "o", "table", "output format: table (markdown), json, yaml")
	showCmd.Flags().Bool("raw", false, "print markdown without rendering")
}

// findRecord loads a view and returns the record with id, or the
// singleton record when id is empty.
func findRecord(ctx context.Context, a *app, key, id string) (models.Record, error) {
	v, err := selectView(a, key)
	if err != nil {
		return nil, err
	}
	if err := a.Console.Reload(ctx); err != nil {
		return nil, err
	}
	if v.Singleton != nil {
		if rec := a.Console.Record(); rec != nil {
			return rec, nil
		}
		return nil, fmt.Errorf("%s has not been configured", v.Label)
	}
	if id == "" {
		return nil, fmt.Errorf("%s needs a record id", v.Label)
	}
	for _, rec := range a.Console.Items() {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("no record %q in %s", id, v.Label)
}
