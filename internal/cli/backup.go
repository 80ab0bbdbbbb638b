package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write profiles.jsonl and macros.jsonl into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				if err := s.backend.Export(commandContext(cmd), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", args[0])
				return err
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace every profile and macro with the JSONL files in dir",
		Long: `Import loads profiles.jsonl and macros.jsonl from dir in one transaction,
replacing the current contents. Malformed or invalid lines are skipped and a
missing file counts as empty. A file with two active profiles is rejected
and nothing changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageErrorf("import replaces all data; pass --yes to confirm")
			}
			return a.withStore(func(s *store) error {
				if err := s.backend.Import(commandContext(cmd), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "imported from %s\n", args[0])
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm replacing the current data")
	return cmd
}
