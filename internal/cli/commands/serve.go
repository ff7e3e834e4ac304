package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgate/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a diagnostic session over HTTP",
		Long: `Start the HTTP API. The server owns a single session:

  GET    /session              current state
  POST   /session              upload a dataset (multipart field "file")
  DELETE /session              reset
  GET    /session/columns      columns and inferred types
  PUT    /session/target       select the target: {"column": "label"}
  POST   /session/diagnostics  run diagnostics, returns verdict and report
  GET    /session/report       fetch the report
  POST   /session/authorize    request modeling permission
  GET    /history              decision ledger
  GET    /formats              supported formats
  GET    /health               liveness`,
		Example: `  leapgate serve --addr :9000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, cleanup, err := cmdCtx.OpenLedger()
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := cmdCtx.NewSession(store)
			if err != nil {
				return err
			}

			srv, err := server.New(server.Config{
				Addr:        cmdCtx.Cfg.Server.Addr,
				Session:     sess,
				Loader:      cmdCtx.Loader,
				Ledger:      store,
				UploadDir:   cmdCtx.Cfg.UploadDir,
				MaxUploadMB: cmdCtx.Cfg.Loader.MaxFileMB,
				Logger:      cmdCtx.Logger,
			})
			if err != nil {
				return err
			}
			go func() {
				if addr, err := srv.ListenAddr(cmd.Context()); err == nil {
					cmdCtx.Renderer.Muted("Serving on http://" + addr.String())
				}
			}()
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().String("upload-dir", "", "Directory for uploads while they are read")
	addDiagnosticsFlags(cmd)
	return cmd
}
