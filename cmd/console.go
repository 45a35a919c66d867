package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/pkg/admin"
	"github.com/mitaan/mitaan/pkg/admin/keymap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui"},
	Short:   "Open the interactive content console",
	Long: `Open the interactive content console.

Key bindings (press ? inside the console for the full list):
  Tab            Switch between sidebar and records
  j/k            Move the cursor
  Enter / e      Edit the selected record
  n              New record
  x              Purge the selected record (asks first)
  /              Filter the list
  s              Search the site
  L              Cycle the article language
  Ctrl+S         Save the open form
  Ctrl+U         Upload an image into the form
  Ctrl+B         Edit story blocks
  q              Quit

Key bindings can be overridden in keymap.yaml in the config directory.`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		token, err := a.Client.Token()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if token == "" {
			username, password, err := promptCredentials("", "")
			if err != nil {
				return err
			}
			if err := login(ctx, a, username, password); err != nil {
				output.Error("login failed: %v", err)
				return err
			}
		}

		keys := keymap.NewRegistry()
		keymap.RegisterDefaults(keys)
		kcfg, err := keymap.LoadConfig(keymap.ConfigPath(a.Dir))
		if err != nil {
			output.Warning("ignoring key bindings: %v", err)
		} else {
			keymap.ApplyConfig(keys, kcfg)
		}

		if view, _ := cmd.Flags().GetString("view"); view != "" {
			if _, err := selectView(a, view); err != nil {
				return err
			}
		}

		model := admin.New(admin.Options{
			Console:  a.Console,
			Uploader: a.Client,
			Keymap:   keys,
			Logger:   a.Logger.Named("ui"),
			Version:  versionStr,
			Context:  ctx,
		})

		a.Logger.Info("console started", zap.String("view", string(a.Console.View().Key)))
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running console: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("view", "", "view to open first")
	consoleCmd.Flags().String("lang", "", "article language: en or hi")
}
