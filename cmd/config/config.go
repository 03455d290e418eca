// cmd/config/config.go

package config

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/config"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_err"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

// ConfigCmd inspects the resolved configuration.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect stretchsync configuration",
	Long: `Inspect the configuration resolved from defaults, stretchsync.yaml, .env,
STRETCHSYNC_ environment variables and flags.

Examples:
  stretchsync config show
  STRETCHSYNC_PROJECT=acme stretchsync config validate`,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration with the API key redacted",
	Args:  cobra.NoArgs,
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := config.Decode(cmd_helpers.Settings())
		if err != nil {
			return sync_err.NewConfigError("failed to read configuration", err)
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		if used := cmd_helpers.Settings().ConfigFileUsed(); used != "" {
			otelzap.Ctx(rc.Ctx).Debug("Configuration file in use", zap.String("path", used))
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}),
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd_helpers.Settings())
		if err != nil {
			return sync_err.NewConfigError("invalid configuration", sync_err.WrapConfigError(err))
		}
		otelzap.Ctx(rc.Ctx).Info("Configuration is valid",
			zap.String("project", cfg.Project),
			zap.String("base_url", cfg.ResolvedBaseURL()))
		_, err = cmd.OutOrStdout().Write([]byte("configuration is valid\n"))
		return err
	}),
}

func init() {
	ConfigCmd.AddCommand(showCmd, validateCmd)
}
