// cmd/update/update.go

package update

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

var patch bool

// UpdateCmd replaces or patches a resource.
var UpdateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Replace or patch a resource",
	Long: `Replace a resource with the --set attributes. Fields not given are removed
remotely. With --patch only the given attributes are sent and merged; a
null value removes the field.

Examples:
  stretchsync update people/1 --set name=Ryan --set age=27
  stretchsync update people/1 --patch --set age=28
  stretchsync update people/1 --patch --set nickname=null`,
	Args: cobra.ExactArgs(1),
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		attrs, err := cmd_helpers.Attributes(cmd)
		if err != nil {
			return err
		}

		c, err := cmd_helpers.NewStackContainer(rc)
		if err != nil {
			return err
		}
		target, err := c.Target(args[0])
		if err != nil {
			return err
		}

		otelzap.Ctx(rc.Ctx).Info("Updating resource",
			zap.String("path", args[0]),
			zap.Bool("patch", patch),
			zap.Int("attributes", len(attrs)))

		result, err := c.Update(target, attrs, patch)
		if err != nil {
			return err
		}
		return cmd_helpers.PrintJSON(cmd.OutOrStdout(), result)
	}),
}

func init() {
	cmd_helpers.AddAttributeFlags(UpdateCmd)
	UpdateCmd.Flags().BoolVar(&patch, "patch", false, "Send only the given attributes and merge them")
}
