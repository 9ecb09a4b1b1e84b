package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/viktsys/marketetl/api"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to serve warehouse statistics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			h := api.NewHandler(api.NewRepository(a.db), a.lookup, a.log.Named("api"))
			srv := &http.Server{
				Addr:    ":" + a.cfg.Server.Port,
				Handler: api.SetupRoutes(h),
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("Starting server", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}

			a.log.Info("Shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		})
	},
}
