package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

func newMacroCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "macro",
		Aliases: []string{"macros", "m"},
		Short:   "Manage input macros",
	}
	cmd.AddCommand(
		newMacroListCmd(a),
		newMacroGetCmd(a),
		newMacroCreateCmd(a),
		newMacroDeleteCmd(a),
		newMacroSearchCmd(a),
	)
	return cmd
}

func newMacroListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all macros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				sub, err := s.repo.AllMacros(ctx)
				if err != nil {
					return err
				}
				macros, err := live.First(ctx, sub)
				if err != nil {
					return err
				}
				return a.printMacros(cmd, macros)
			})
		},
	}
}

func newMacroGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> [id...]",
		Short: "Show macros by id; unknown ids are skipped",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				if len(ids) == 1 {
					m, err := s.repo.MacroByID(ctx, ids[0])
					if err != nil {
						return err
					}
					if m == nil {
						return notFound("macro", ids[0])
					}
					return a.printMacros(cmd, []*types.Macro{m})
				}
				macros, err := s.repo.MacrosByIDs(ctx, ids)
				if err != nil {
					return err
				}
				return a.printMacros(cmd, macros)
			})
		},
	}
}

func newMacroCreateCmd(a *app) *cobra.Command {
	var name, description, events string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a macro",
		Long: `Create a macro from a JSON array of events. Pass the array inline or
as @path to read it from a file, for example:

  padkit macro create --name Jump --events '[{"kind":"press","control":"A"},{"kind":"release","control":"A","delay_ms":50}]'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseEvents(events)
			if err != nil {
				return err
			}
			return a.withStore(func(s *store) error {
				id, err := s.repo.InsertMacro(commandContext(cmd), &types.Macro{
					Name:        name,
					Description: description,
					Events:      parsed,
				})
				if err != nil {
					return err
				}
				return a.printID(cmd, "created macro", id)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "macro name (required)")
	cmd.Flags().StringVar(&description, "description", "", "macro description")
	cmd.Flags().StringVar(&events, "events", "[]", "JSON array of events, or @file")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// parseEvents decodes the --events value. A leading @ names a file.
func parseEvents(value string) ([]types.InputEvent, error) {
	data := []byte(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading events: %w", err)
		}
		data = b
	}
	var events []types.InputEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("%w: events: %v", types.ErrInvalidData, err)
	}
	return events, nil
}

func newMacroDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a macro (no error if it does not exist)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *store) error {
				if err := s.repo.DeleteMacroByID(commandContext(cmd), id); err != nil {
					return err
				}
				return a.printID(cmd, "deleted macro", id)
			})
		},
	}
}

func newMacroSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find macros whose name or description contains text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				sub, err := s.repo.SearchMacros(ctx, args[0])
				if err != nil {
					return err
				}
				macros, err := live.First(ctx, sub)
				if err != nil {
					return err
				}
				return a.printMacros(cmd, macros)
			})
		},
	}
}
