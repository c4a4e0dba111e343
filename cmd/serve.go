package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/config"
	"github.com/ziadkadry99/fee-web/internal/db"
	"github.com/ziadkadry99/fee-web/internal/server"
	"github.com/ziadkadry99/fee-web/internal/session"
	"github.com/ziadkadry99/fee-web/internal/web"
)

// sweepInterval is how often idle sessions are evicted.
const sweepInterval = time.Minute

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Fee web front-end",
	Long:  `Serves the Fee home page: document list, upload form, PDF viewer, analysis results and chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		store, closeStore, err := openSessionStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		client := newClient(cfg, log)
		sessions := session.NewManager(client, store, session.Options{
			FileHost:        cfg.FileHost,
			HistoryPageSize: cfg.HistoryPageSize,
			Logger:          log,
		})

		srv := server.New(server.Config{
			Port:           cfg.Port,
			AllowAll:       cfg.AllowAllOrigins,
			RequestTimeout: cfg.RequestTimeout(),
		}, log)
		web.New(sessions, web.Options{
			PDFJSVersion:    cfg.PDFJSVersion,
			MessageTimeout:  cfg.RequestTimeout(),
			AllowAllOrigins: cfg.AllowAllOrigins,
			Logger:          log,
		}).RegisterRoutes(srv.Router())

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go sessions.Run(ctx, sweepInterval, cfg.SessionIdle(), cfg.SessionRetention())
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutdown failed", zap.Error(err))
			}
		}()

		log.Info("starting fee web",
			zap.String("version", Version),
			zap.String("api", cfg.APIURL),
			zap.String("file_host", cfg.FileHost),
			zap.String("session_store", string(cfg.SessionStore)),
		)
		fmt.Fprintf(os.Stderr, "Fee is running at http://localhost:%d\n", cfg.Port)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		// Keep the sessions of everyone still connected.
		sessions.Sweep(context.Background(), -1, 0)
		return nil
	},
}

// openSessionStore returns the configured session store and a func
// releasing it.
func openSessionStore(cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionStore == config.SessionStoreMemory {
		return session.NewMemoryStore(), func() {}, nil
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening session database: %w", err)
	}
	return session.NewSQLiteStore(database), func() { database.Close() }, nil
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
