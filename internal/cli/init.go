package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/padkit/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize padkit storage",
		Long: `Create the configuration and data directories, initialize the database,
and create the active "Default Profile" if no profile exists yet.
Running init again is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				id, created, err := s.repo.EnsureDefaultProfile(commandContext(cmd))
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(w, map[string]any{
						"config":          filepath.Join(a.configDir, paths.ConfigFileName),
						"default_created": created,
						"active_id":       id,
					})
				}
				fmt.Fprintf(w, "config: %s\n", filepath.Join(a.configDir, paths.ConfigFileName))
				if created {
					fmt.Fprintf(w, "created default profile %d\n", id)
				}
				fmt.Fprintln(w, "padkit initialized")
				return nil
			})
		},
	}
}
