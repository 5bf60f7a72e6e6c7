package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"plotbench/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr         string
		cors         string
		sessionsDir  string
		maxSessions  int
		startTimeout time.Duration
		maxBody      int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control API",
		Example: "  plotbench serve --addr :8090\n" +
			"  plotbench serve --cors-origins http://localhost:5173 --sessions-dir ./sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			origins := a.cfg.CORSOrigins
			if cors != "" {
				origins = splitCSV(cors)
			}

			sup := a.supervisor()
			sched := a.scheduler()

			httpapi.SetLogger(a.log)
			httpapi.SetCORSOptions(len(origins) > 0, origins, nil, nil)
			httpapi.SetStartTimeout(startTimeout)
			httpapi.SetMaxBodyBytes(maxBody)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			httpapi.SetBaseContext(ctx)

			mux := httpapi.NewMux(sup, httpapi.Options{
				Prompts:     sched,
				DefaultPort: a.cfg.Port,
				MaxSessions: maxSessions,
				SessionsDir: sessionsDir,
			})
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", addr).Str("models_dir", a.cfg.ModelsDir).Msg("plotbench listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("graceful shutdown error")
			}
			if err := sup.Stop(); err != nil {
				a.log.Warn().Err(err).Msg("stop server on shutdown")
			}
			return serveErr
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "HTTP listen address (defaults PLOTBENCH_ADDR or :8090)")
	f.StringVar(&cors, "cors-origins", "", "Comma separated allowed CORS origins; enables CORS when set")
	f.StringVar(&sessionsDir, "sessions-dir", "", "Directory where evicted chat sessions are saved")
	f.IntVar(&maxSessions, "max-sessions", 0, "Chat sessions kept in memory (0 = 256)")
	f.DurationVar(&startTimeout, "start-timeout", 0, "Upper bound for POST /server/start (0 = none)")
	f.Int64Var(&maxBody, "max-body-bytes", 0, "Maximum JSON request body size (0 = 1MiB)")
	return cmd
}
