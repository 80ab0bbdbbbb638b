package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the release version. Builds override it with
// -ldflags "-X github.com/mesh-intelligence/padkit/internal/cli.Version=...".
var Version = "0.1.0-dev"

const modulePath = "github.com/mesh-intelligence/padkit"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the padkit version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "padkit v%s\nmodule: %s\ngo: %s\n", Version, modulePath, runtime.Version())
			return nil
		},
	}
}
