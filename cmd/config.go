package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitaan/mitaan/internal/config"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage mitaan configuration",
	GroupID: "system",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show resolved config values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configOptions(cmd))
		if err != nil {
			output.Error("%v", err)
			return err
		}
		values := configValues(cfg)
		if len(args) == 1 {
			v, ok := values[args[0]]
			if !ok {
				return fmt.Errorf("unknown config key: %s", args[0])
			}
			fmt.Fprintln(output.Stdout, v)
			return nil
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(output.Stdout, "%s = %s\n", k, values[k])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := configOptions(cmd)
		path := opts.File
		if path == "" {
			path = config.DefaultFile(opts.Dir)
		}
		if err := config.Set(path, args[0], args[1]); err != nil {
			output.Error("%v", err)
			fmt.Fprintln(output.Stdout, "Valid keys:", strings.Join(config.Keys(), ", "))
			return err
		}
		// Warn when the new value leaves the configuration invalid.
		if _, err := config.Load(opts); err != nil {
			output.Warning("%v", err)
		}
		output.Success("Set %s = %s", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file and directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := configOptions(cmd)
		file := opts.File
		if file == "" {
			file = config.DefaultFile(opts.Dir)
		}
		fmt.Fprintf(output.Stdout, "file: %s\ndir:  %s\n", file, opts.Dir)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configValues flattens cfg into the keys config.Keys lists.
func configValues(cfg *config.Config) map[string]string {
	return map[string]string{
		"api.base_url":             cfg.API.BaseURL,
		"api.timeout":              cfg.API.Timeout.String(),
		"api.mutations_per_minute": fmt.Sprint(cfg.API.MutationsPerMinute),
		"cache.stale_time":         cfg.Cache.StaleTime.String(),
		"cache.search_stale_time":  cfg.Cache.SearchStaleTime.String(),
		"search.min_query_length":  fmt.Sprint(cfg.Search.MinQueryLength),
		"console.default_author":   cfg.Console.DefaultAuthor,
		"console.language":         cfg.Console.Language,
		"console.toast_duration":   cfg.Console.ToastDuration.String(),
		"log.level":                cfg.Log.Level,
		"log.file":                 cfg.Log.File,
		"store.path":               cfg.Store.Path,
	}
}
