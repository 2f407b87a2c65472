package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loadsheet/infrastructure/audit"
	httpserver "loadsheet/infrastructure/http"
	"loadsheet/infrastructure/identity"
	"loadsheet/infrastructure/metrics"
	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sheetstore"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				m = metrics.New()
			}
			auditSvc := audit.NewService(db, log)
			store := sheetstore.New(db).WithAudit(auditSvc)
			controller := sheet.NewController(store,
				sheet.WithLogger(log.Named("sheet")),
				sheet.WithImageStore(store),
				sheet.WithNotifier(auditSvc))

			if cfg.Server.ShutdownTimeout > 0 {
				httpserver.ShutdownTimeout = cfg.Server.ShutdownTimeout
			}
			server := httpserver.NewServer(cfg.Server.Addr, httpserver.Deps{
				DB:      db,
				Store:   store,
				Sheets:  controller,
				Audit:   auditSvc,
				Users:   identity.NewDirectory(db),
				Rbac:    rbac.New(),
				Metrics: m,
				Log:     log,
			})
			if err := server.Start(); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Info("shutting down", zap.String("signal", sig.String()))

			if err := server.Stop(); err != nil {
				log.Error("graceful shutdown error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
