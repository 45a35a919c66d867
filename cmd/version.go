package cmd

import (
	"fmt"

	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the version and check for updates",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(output.Stdout, "mitaan %s\n", versionStr)
		if skip, _ := cmd.Flags().GetBool("offline"); skip || version.IsDevelopmentVersion(versionStr) {
			return nil
		}
		res := version.Check(cmd.Context(), versionStr)
		switch {
		case res.Error != nil:
			output.Warning("update check failed: %v", res.Error)
		case res.HasUpdate:
			output.Warning("%s is available: %s", res.LatestVersion, version.UpdateCommand(res.LatestVersion))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("offline", false, "skip the update check")
}
