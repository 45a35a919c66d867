package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mitaan/mitaan/internal/input"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var deleteCmd = &cobra.Command{
	Use:               "delete <view> <id|-|@file...>",
	Aliases:           []string{"rm"},
	Short:             "Purge records after confirmation",
	GroupID:           "content",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: viewArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ids, err := input.ExpandArgs(args[1:], os.Stdin)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		confirm := confirmPrompt
		if yes {
			confirm = func(string) (bool, error) { return true, nil }
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		deleted, err := deleteRecords(ctx, a, args[0], ids, confirm)
		for _, id := range deleted {
			fmt.Fprintf(output.Stdout, "PURGED %s\n", id)
		}
		if err != nil {
			return failure(a, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

// errDeclined stops a delete the user did not confirm.
var errDeclined = errors.New("deletion cancelled")

// confirmPrompt asks with a huh confirm on a terminal. Without one the
// caller must pass --yes.
func confirmPrompt(label string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("no terminal to confirm on: pass --yes")
	}
	ok := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Purge %q?", label)).
		Description("This cannot be undone.").
		Affirmative("Purge").
		Negative("Keep").
		Value(&ok).
		WithTheme(huh.ThemeDracula()).
		Run()
	return ok, err
}

// deleteRecords runs the console's two-step delete for each id. It returns
// the ids purged before any failure.
func deleteRecords(ctx context.Context, a *app, key string, ids []string, confirm func(label string) (bool, error)) ([]string, error) {
	v, err := selectView(a, key)
	if err != nil {
		return nil, err
	}
	if !v.CanDelete() {
		return nil, fmt.Errorf("%s cannot be deleted", v.Label)
	}
	if err := a.Console.Reload(ctx); err != nil {
		return nil, err
	}

	var deleted []string
	for _, id := range ids {
		label := id
		for _, rec := range a.Console.Items() {
			if rec.RecordID() == id {
				label = rec.Label()
			}
		}
		if err := a.Console.RequestDelete(id); err != nil {
			return deleted, err
		}
		ok, err := confirm(label)
		if err != nil || !ok {
			a.Console.CancelDelete()
			if err == nil {
				err = errDeclined
			}
			return deleted, err
		}
		if err := a.Console.ConfirmDelete(ctx); err != nil {
			return deleted, err
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}
