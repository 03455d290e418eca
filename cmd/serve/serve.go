// cmd/serve/serve.go

package serve

import (
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/internal/fakeserver"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

var (
	addr       string
	requireKey string
)

// ServeCmd runs the local Stretchr stand-in.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local in-memory Stretchr server",
	Long: `Run an in-memory server speaking the Stretchr URL layout and envelopes.
Point base_url at it to try stretchsync without a hosted project. Data is
lost when the server stops.

Examples:
  stretchsync serve --addr 127.0.0.1:8080 --require-key dev
  STRETCHSYNC_BASE_URL=http://127.0.0.1:8080/api/v1.1 stretchsync read people`,
	Args: cobra.NoArgs,
	RunE: sync_io.Wrap(func(rc *sync_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		logger := otelzap.Ctx(rc.Ctx)
		if requireKey == "" {
			logger.Warn("Serving without an API key; every request is accepted")
		}

		srv := fakeserver.New(
			fakeserver.WithAPIKey(requireKey),
			fakeserver.WithLogger(rc.Log.Named("fakeserver")))

		logger.Info("Starting fake Stretchr server",
			zap.String("addr", addr),
			zap.String("base_url", "http://"+addr+fakeserver.PathPrefix))
		return srv.ListenAndServe(rc.Ctx, addr)
	}),
}

func init() {
	ServeCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	ServeCmd.Flags().StringVar(&requireKey, "require-key", "", "Require this ~key on every request")
}
