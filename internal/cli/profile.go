package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles", "p"},
		Short:   "Manage controller profiles",
	}
	cmd.AddCommand(
		newProfileListCmd(a),
		newProfileGetCmd(a),
		newProfileCreateCmd(a),
		newProfileUpdateCmd(a),
		newProfileDeleteCmd(a),
		newProfileActivateCmd(a),
		newProfileDuplicateCmd(a),
		newProfileSearchCmd(a),
		newProfileWatchCmd(a),
	)
	return cmd
}

func newProfileListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all profiles; the active one is marked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				sub, err := s.repo.AllProfiles(ctx)
				if err != nil {
					return err
				}
				profiles, err := live.First(ctx, sub)
				if err != nil {
					return err
				}
				return a.printProfiles(cmd, profiles)
			})
		},
	}
}

func newProfileGetCmd(a *app) *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one profile, or the active one with --active",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if active == (len(args) == 1) {
				return usageErrorf("give either an id or --active")
			}
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				if active {
					p, err := s.repo.ActiveProfile(ctx)
					if err != nil {
						return err
					}
					if p == nil {
						return fmt.Errorf("active profile: %w", types.ErrNotFound)
					}
					return a.printProfile(cmd, p)
				}

				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				p, err := s.repo.ProfileByID(ctx, id)
				if err != nil {
					return err
				}
				if p == nil {
					return notFound("profile", id)
				}
				return a.printProfile(cmd, p)
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "show the active profile")
	return cmd
}

func newProfileCreateCmd(a *app) *cobra.Command {
	var (
		name, description string
		activate          bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				id, err := s.repo.InsertProfile(ctx, &types.ControllerProfile{
					Name:        name,
					Description: description,
				})
				if err != nil {
					return err
				}
				if activate {
					if err := s.repo.ActivateProfile(ctx, id); err != nil {
						return err
					}
				}
				return a.printID(cmd, "created profile", id)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "profile name (required)")
	cmd.Flags().StringVar(&description, "description", "", "profile description")
	cmd.Flags().BoolVar(&activate, "activate", false, "make the new profile the active one")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProfileUpdateCmd(a *app) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a profile or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			nameSet, descSet := cmd.Flags().Changed("name"), cmd.Flags().Changed("description")
			if !nameSet && !descSet {
				return usageErrorf("nothing to update; pass --name or --description")
			}
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				p, err := s.repo.ProfileByID(ctx, id)
				if err != nil {
					return err
				}
				if p == nil {
					return notFound("profile", id)
				}
				if nameSet {
					p.Name = name
				}
				if descSet {
					p.Description = description
				}
				p.Touch(time.Now())
				if err := s.repo.UpdateProfile(ctx, p); err != nil {
					return err
				}
				return a.printProfile(cmd, p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newProfileDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile (no error if it does not exist)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *store) error {
				if err := s.repo.DeleteProfileByID(commandContext(cmd), id); err != nil {
					return err
				}
				return a.printID(cmd, "deleted profile", id)
			})
		},
	}
}

func newProfileActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Make a profile the only active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *store) error {
				if err := s.repo.ActivateProfile(commandContext(cmd), id); err != nil {
					return err
				}
				return a.printID(cmd, "activated profile", id)
			})
		},
	}
}

func newProfileDuplicateCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a profile under a new name; the copy is inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *store) error {
				newID, ok, err := s.repo.DuplicateProfile(commandContext(cmd), id, name)
				if err != nil {
					return err
				}
				if !ok {
					return notFound("profile", id)
				}
				return a.printID(cmd, "created profile", newID)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name of the copy (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProfileSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find profiles whose name or description contains text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				sub, err := s.repo.SearchProfiles(ctx, args[0])
				if err != nil {
					return err
				}
				profiles, err := live.First(ctx, sub)
				if err != nil {
					return err
				}
				return a.printProfiles(cmd, profiles)
			})
		},
	}
}

func newProfileWatchCmd(a *app) *cobra.Command {
	var (
		active bool
		poll   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the profile list, or the active profile, every time it changes",
		Long: `Watch keeps the store open and prints a fresh result after every change,
including changes written by other padkit processes sharing the data
directory. Those are picked up every --poll interval. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if poll <= 0 {
				return usageErrorf("--poll must be positive")
			}
			a.pollInterval = poll
			return a.withStore(func(s *store) error {
				ctx := commandContext(cmd)
				if active {
					sub, err := s.repo.ActiveProfileLive(ctx)
					if err != nil {
						return err
					}
					return drain(sub, func(p *types.ControllerProfile) error {
						if p == nil {
							_, err := fmt.Fprintln(cmd.OutOrStdout(), "no active profile")
							return err
						}
						return a.printProfile(cmd, p)
					})
				}

				sub, err := s.repo.AllProfiles(ctx)
				if err != nil {
					return err
				}
				return drain(sub, func(ps []*types.ControllerProfile) error {
					return a.printProfiles(cmd, ps)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "watch only the active profile")
	cmd.Flags().DurationVar(&poll, "poll", time.Second, "how often to check for changes made by other processes")
	return cmd
}

// drain prints each snapshot until the subscription ends. The subscription
// ends when the command context is cancelled, which is a normal stop.
func drain[T any](sub *live.Subscription[T], print func(T) error) error {
	defer sub.Cancel()
	for snap := range sub.C() {
		if snap.Err != nil {
			return snap.Err
		}
		if err := print(snap.Value); err != nil {
			return err
		}
	}
	return nil
}
