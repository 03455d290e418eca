// pkg/sync_io/wrap.go

package sync_io

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_err"
)

// Wrap ensures panic recovery, signal cancellation, telemetry and logging
// around a command body.
func Wrap(fn func(rc *RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		parent, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		rc := NewContext(parent, cmd.CommandPath())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		rc.Log.Debug("Command started", zap.Strings("args", args))

		err = fn(rc, cmd, args)
		if err != nil && !sync_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
