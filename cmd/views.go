package cmd

import (
	"fmt"
	"strings"

	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/registry"
	"github.com/mitaan/mitaan/internal/suggest"
	"github.com/spf13/cobra"
)

var viewsCmd = &cobra.Command{
	Use:     "views",
	Short:   "List the content views and what each allows",
	GroupID: "content",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.Default()
		section := ""
		for _, v := range reg.Views() {
			if v.Section != section {
				section = v.Section
				fmt.Fprint(output.Stdout, output.SectionHeader(section))
			}
			fmt.Fprintf(output.Stdout, "  %-18s %-22s %s\n", v.Key, v.Label, capabilities(v))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
}

// capabilities summarises the operations a view supports.
func capabilities(v *registry.View) string {
	if v.Singleton != nil {
		return "singleton: show, apply"
	}
	ops := []string{"list"}
	if v.CanCreate() {
		ops = append(ops, "create")
	}
	if v.CanEdit() {
		ops = append(ops, "edit")
	}
	if v.CanDelete() {
		ops = append(ops, "delete")
	}
	return strings.Join(ops, ", ")
}

// selectView switches the app console to the view named key. A sidebar
// label such as "Global Desk" is accepted in place of its key.
func selectView(a *app, key string) (*registry.View, error) {
	reg := a.Console.Registry()
	keys := make([]string, 0)
	labels := make(map[string]string)
	for _, v := range reg.Views() {
		keys = append(keys, string(v.Key))
		labels[v.Label] = string(v.Key)
	}
	if _, ok := reg.Lookup(registry.ViewKey(key)); !ok {
		if resolved, ok := suggest.Resolve(key, labels); ok {
			key = resolved
		}
	}
	if err := a.Console.SelectView(registry.ViewKey(key)); err != nil {
		if hint := suggest.Hint(suggest.Similar(key, keys)); hint != "" {
			return nil, fmt.Errorf("unknown view %q: %s", key, hint)
		}
		return nil, fmt.Errorf("unknown view %q (run `mitaan views` to list them)", key)
	}
	return a.Console.View(), nil
}

// viewArgs completes view keys for the first argument.
func viewArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, k := range registry.Default().Keys() {
		if strings.HasPrefix(string(k), toComplete) {
			out = append(out, string(k))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// failure prints the console's error toast for err when there is one.
func failure(a *app, err error) error {
	if t := a.Console.Toast(); t != nil && t.Kind == console.ToastError {
		output.Error("%s", t.Message)
		return err
	}
	output.Error("%v", err)
	return err
}
