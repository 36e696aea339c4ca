package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daoch4n/zen-router/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gateway version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("zen-router %s (%s)\n", buildinfo.Version, buildinfo.Commit)
		return nil
	},
}
