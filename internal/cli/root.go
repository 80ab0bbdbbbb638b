// Package cli implements the padkit command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/padkit/internal/paths"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app is the state shared by one command tree.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	logger    *slog.Logger

	// pollInterval, when set by a command, enables external change polling.
	pollInterval time.Duration
}

// NewRootCmd creates the top-level "padkit" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}

	root := &cobra.Command{
		Use:           "padkit",
		Short:         "Manage controller profiles and input macros",
		Long:          "padkit stores controller profiles and reusable input macros in a local\nSQLite database and keeps exactly one profile active.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newProfileCmd(a))
	root.AddCommand(newMacroCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// setup loads .env and config.yaml and installs the configured logger.
func (a *app) setup(cmd *cobra.Command) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	a.configDir = configDir
	a.v = v
	a.logger = newLogger(cmd.ErrOrStderr(), v)
	slog.SetDefault(a.logger)
	return nil
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "padkit:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps an error to a process exit code. Bad input and integrity
// failures are the user's to fix; anything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvariantViolation):
		return exitUserError
	default:
		return exitSysError
	}
}

// errUsage marks flag and argument mistakes.
var errUsage = errors.New("usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// newLogger builds the slog logger selected by log_format and log_level.
func newLogger(w io.Writer, v *viper.Viper) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if v.GetString(cfgKeyLogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
