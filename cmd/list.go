package cmd

import (
	"context"

	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:               "list <view>",
	Aliases:           []string{"ls"},
	Short:             "List the records of a view",
	GroupID:           "content",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: viewArgs,
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
		recs, err := listRecords(ctx, a, args[0])
		if err != nil {
			return failure(a, err)
		}
		return output.Records(format, recs)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("output", "o", "table", "output format: table, json, yaml")
	listCmd.Flags().String("lang", "", "article language: en or hi")
}

// listRecords loads a view. Singleton views yield their one record.
func listRecords(ctx context.Context, a *app, key string) ([]models.Record, error) {
	v, err := selectView(a, key)
	if err != nil {
		return nil, err
	}
	if err := a.Console.Reload(ctx); err != nil {
		return nil, err
	}
	if v.Singleton != nil {
		if rec := a.Console.Record(); rec != nil {
			return []models.Record{rec}, nil
		}
		return nil, nil
	}
	return a.Console.Items(), nil
}

func mustString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}
