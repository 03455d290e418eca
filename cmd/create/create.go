// cmd/create/create.go

package create

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

// CreateCmd adds a resource to a collection.
var CreateCmd = &cobra.Command{
	Use:   "create <collection>",
	Short: "Create a resource in a collection",
	Long: `Create a resource from --set attributes. The server assigns the id and the
created record, including ~id and timestamps, is printed.

Examples:
  stretchsync create people --set name=Ryan --set age=26
  stretchsync create groups/1/people -s 'tags=["admin"]'`,
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

		created, err := c.Create(target, attrs)
		if err != nil {
			return err
		}
		otelzap.Ctx(rc.Ctx).Info("Resource created",
			zap.String("collection", target.Collection),
			zap.Any("id", created["~id"]))
		return cmd_helpers.PrintJSON(cmd.OutOrStdout(), created)
	}),
}

func init() {
	cmd_helpers.AddAttributeFlags(CreateCmd)
}
