package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mitaan/mitaan/internal/input"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/upload"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:     "upload <file|-|@list...>",
	Short:   "Upload images and print their public URLs",
	GroupID: "content",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		paths, err := input.ExpandArgs(args, os.Stdin)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		var failed int
		for _, res := range uploadFiles(ctx, a, paths) {
			if res.Err != nil {
				failed++
				output.Error("%s: %v", res.Path, res.Err)
				continue
			}
			fmt.Fprintf(output.Stdout, "%s  %s\n", res.URL, res.Path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

// uploadFiles uploads each path through an upload field, one at a time.
func uploadFiles(ctx context.Context, a *app, paths []string) []upload.Result {
	out := make([]upload.Result, 0, len(paths))
	for _, p := range paths {
		field := upload.NewField("", a.Logger.Named("upload"))
		res := field.Begin(ctx, a.Client, p).Run()
		field.Resolve(res)
		out = append(out, res)
	}
	return out
}
