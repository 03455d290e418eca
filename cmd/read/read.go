// cmd/read/read.go

package read

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

// ReadCmd reads a resource or a whole collection.
var ReadCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Read a resource or a collection",
	Long: `Read a single resource (people/1) or every resource of a collection (people).
Query parameters are passed with --param and repeated keys are sent as
alternatives.

Examples:
  stretchsync read people/1
  stretchsync read people -p :age=>21 -p :name=Ryan -p :name=Mat
  stretchsync read groups/1/people -p include=~parent`,
	Args: cobra.ExactArgs(1),
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		logger := otelzap.Ctx(rc.Ctx)

		params, err := cmd_helpers.Params(cmd)
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

		logger.Info("Reading", zap.String("path", args[0]), zap.Bool("collection", target.IsCollection()))
		result, err := c.Fetch(target, params)
		if err != nil {
			return err
		}
		return cmd_helpers.PrintJSON(cmd.OutOrStdout(), result)
	}),
}

func init() {
	cmd_helpers.AddParamFlags(ReadCmd)
}
