package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/padkit/internal/paths"
	"github.com/mesh-intelligence/padkit/pkg/repository"
	"github.com/mesh-intelligence/padkit/pkg/sqlite"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// store is an attached backend and the repository over it.
type store struct {
	backend types.Backend
	repo    *repository.Repository
}

func (s *store) Close() error {
	return s.backend.Detach()
}

// openStore resolves the data directory, attaches a SQLite backend, and wraps
// it in a repository. The caller must Close the result.
func (a *app) openStore() (*store, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}

	cfg := storeConfig(a.v, dataDir)
	if a.pollInterval > 0 {
		cfg.SQLite.PollIntervalMs = int(a.pollInterval.Milliseconds())
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attaching store: %w", err)
	}
	return &store{
		backend: backend,
		repo:    repository.New(backend.Profiles(), backend.Macros(), repository.WithLogger(a.logger)),
	}, nil
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(fn func(s *store) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// parseID parses a positive entity id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, arg)
	}
	return id, nil
}

// notFound reports a missing entity as ErrNotFound.
func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, types.ErrNotFound)
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

const timeLayout = "2006-01-02 15:04"

// printProfiles writes profiles as JSON or as a table with the active row
// highlighted.
func (a *app) printProfiles(cmd *cobra.Command, profiles []*types.ControllerProfile) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(w, profiles)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(w, "no profiles")
		return nil
	}

	green := color.New(color.FgGreen, color.Bold)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tUPDATED\tACTIVE")
	for _, p := range profiles {
		// The marker is the last cell so its color codes do not skew alignment.
		marker := ""
		if p.IsActive {
			marker = green.Sprint("*")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Description, p.UpdatedAt.Local().Format(timeLayout), marker)
	}
	return tw.Flush()
}

func (a *app) printProfile(cmd *cobra.Command, p *types.ControllerProfile) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(w, p)
	}
	state := "inactive"
	if p.IsActive {
		state = color.GreenString("active")
	}
	fmt.Fprintf(w, "ID:          %d\n", p.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	fmt.Fprintf(w, "Description: %s\n", p.Description)
	fmt.Fprintf(w, "State:       %s\n", state)
	fmt.Fprintf(w, "Created:     %s\n", p.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:     %s\n", p.UpdatedAt.Local().Format(time.RFC3339))
	return nil
}

func (a *app) printMacros(cmd *cobra.Command, macros []*types.Macro) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(w, macros)
	}
	if len(macros) == 0 {
		fmt.Fprintln(w, "no macros")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEVENTS\tDURATION\tDESCRIPTION")
	for _, m := range macros {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", m.ID, m.Name, len(m.Events), m.Duration(), m.Description)
	}
	return tw.Flush()
}

// printID writes the id of a created entity.
func (a *app) printID(cmd *cobra.Command, entity string, id int64) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(w, map[string]int64{"id": id})
	}
	_, err := fmt.Fprintf(w, "%s %d\n", entity, id)
	return err
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
