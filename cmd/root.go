/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Subcommands
	configcmd "github.com/CodeMonkeyCybersecurity/stretchsync/cmd/config"
	"github.com/CodeMonkeyCybersecurity/stretchsync/cmd/create"
	"github.com/CodeMonkeyCybersecurity/stretchsync/cmd/delete"
	"github.com/CodeMonkeyCybersecurity/stretchsync/cmd/read"
	"github.com/CodeMonkeyCybersecurity/stretchsync/cmd/serve"
	"github.com/CodeMonkeyCybersecurity/stretchsync/cmd/update"

	// Internal packages
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/config"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_err"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/telemetry"
)

var (
	registerOnce sync.Once
	configFile   string

	shutdownMu        sync.Mutex
	shutdownTelemetry telemetry.ShutdownFunc
)

// RootCmd is the base command for stretchsync.
var RootCmd = &cobra.Command{
	Use:   "stretchsync",
	Short: "Sync resources with a Stretchr project",
	Long: `stretchsync reads, creates, updates and deletes Stretchr resources through the
same sync adapter that backs models and collections.

Configuration resolves from defaults, stretchsync.yaml, .env, STRETCHSYNC_
environment variables and the flags below, in increasing precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "No subcommand provided. Try `stretchsync help`.")
		return cmd.Help()
	}),
}

// HelpCmd wraps help so that it can be invoked like a normal command.
var HelpCmd = &cobra.Command{
	Use:   "help",
	Short: "Help about any command",
	Long:  "Displays help for stretchsync or a specific subcommand.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return RootCmd.Help()
		}
		c, _, err := RootCmd.Find(args)
		if err != nil || c == nil {
			return sync_err.NewValidationError("command not found: " + strings.Join(args, " "))
		}
		return c.Help()
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: stretchsync.yaml in ., ~/.stretchsync or /etc/stretchsync)")
	flags.String("project", "", "Stretchr project name")
	flags.String("api-key", "", "Stretchr API key")
	flags.String("base-url", "", "API base URL; {project} is replaced with the project")
	flags.String("envelope", "", "Response shape: accessor or raw")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("telemetry", false, "Write trace spans to ~/.stretchsync/telemetry")
}

// prepare binds flags, loads .env and the config file, and starts telemetry
// before any subcommand runs.
func prepare(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return sync_err.NewConfigError("failed to load .env", err)
	}

	v := cmd_helpers.Settings()
	if err := cli.BindFlagsToViper(cmd.Root(), v); err != nil {
		return sync_err.NewInternalError("failed to bind flags", err)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	logger.SetLevel(logger.ParseLogLevel(v.GetString("log_level")))

	shutdown, err := telemetry.Init(telemetry.ServiceName, v.GetBool("telemetry"), nil)
	if err != nil {
		logger.L().Warn("Telemetry disabled", zap.Error(err))
		return nil
	}
	shutdownMu.Lock()
	shutdownTelemetry = shutdown
	shutdownMu.Unlock()
	return nil
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	registerOnce.Do(func() {
		RootCmd.SetHelpCommand(HelpCmd)
		for _, subCmd := range []*cobra.Command{
			read.ReadCmd,
			create.CreateCmd,
			update.UpdateCmd,
			delete.DeleteCmd,
			serve.ServeCmd,
			configcmd.ConfigCmd,
		} {
			RootCmd.AddCommand(subCmd)
		}
	})
}

// Run executes the root command with args and returns the process exit code.
func Run(args []string) int {
	RegisterCommands()
	RootCmd.SetArgs(args)

	err := RootCmd.Execute()
	flush()
	if err != nil {
		sync_err.PrintError(RootCmd.ErrOrStderr(), "stretchsync failed", err)
		return sync_err.GetExitCode(err)
	}
	return 0
}

// Execute runs stretchsync with the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:]))
}

func flush() {
	shutdownMu.Lock()
	shutdown := shutdownTelemetry
	shutdownTelemetry = nil
	shutdownMu.Unlock()

	if shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.L().Warn("Failed to flush telemetry", zap.Error(err))
		}
	}
	logger.Sync()
}
