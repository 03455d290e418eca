// cmd/delete/delete.go

package delete

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

var all bool

// DeleteCmd removes a resource, or a whole collection with --all.
var DeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a resource or a collection",
	Long: `Delete a single resource. Deleting every resource of a collection needs --all.

Examples:
  stretchsync delete people/1
  stretchsync delete people --all`,
	Args: cobra.ExactArgs(1),
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		c, err := cmd_helpers.NewStackContainer(rc)
		if err != nil {
			return err
		}
		target, err := c.Target(args[0])
		if err != nil {
			return err
		}

		if err := c.Delete(target, all); err != nil {
			return err
		}
		otelzap.Ctx(rc.Ctx).Info("Deleted", zap.String("path", args[0]))
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return err
	}),
}

func init() {
	DeleteCmd.Flags().BoolVar(&all, "all", false, "Allow deleting every resource of a collection")
}
