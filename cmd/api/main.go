package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clinicapi/internal/config"
	"clinicapi/internal/database"
	"clinicapi/internal/database/migration"
	handlers "clinicapi/internal/http/handler"
	"clinicapi/internal/http/middleware"
	"clinicapi/internal/logging"
	"clinicapi/internal/otel"
	"clinicapi/internal/repository/postgres"
	"clinicapi/internal/service"
	"clinicapi/internal/storage"
)

const (
	serviceName     = "clinicapi"
	shutdownTimeout = 10 * time.Second
	dateLayout      = "2006-01-02"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Clinical records data service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), archiveAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime holds what every command needs: configuration, logger, tracing and
// the database pool.
type runtime struct {
	cfg      *config.AppConfig
	log      zerolog.Logger
	db       *sql.DB
	shutdown func(context.Context) error
}

func setup(ctx context.Context) (*runtime, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Env, cfg.LogLevel, os.Stdout)

	shutdown, err := otel.Init(ctx, logger, serviceName)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &runtime{cfg: cfg, log: logger, db: db, shutdown: shutdown}, nil
}

func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.db.Close(); err != nil {
		rt.log.Warn().Err(err).Msg("close database")
	}
	if err := rt.shutdown(ctx); err != nil {
		rt.log.Warn().Err(err).Msg("shutdown tracing")
	}
}

func (rt *runtime) gateway() (*database.Gateway, error) {
	level, err := database.ParseIsolation(rt.cfg.Database.TxIsolation)
	if err != nil {
		return nil, err
	}
	return database.NewGateway(rt.db, database.WithIsolation(level)), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the operational HTTP server (health and metrics)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.cfg.Database.AutoMigrate {
				if err := migration.EnsureMigrated(ctx, rt.db, rt.log); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			gw, err := rt.gateway()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				collectors.NewDBStatsCollector(rt.db, serviceName),
			)
			httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
			if err != nil {
				return fmt.Errorf("register http metrics: %w", err)
			}
			repoMetrics, err := postgres.NewMetrics(reg)
			if err != nil {
				return fmt.Errorf("register repository metrics: %w", err)
			}
			repos := postgres.NewRepositories(gw, postgres.Options{Logger: rt.log, Metrics: repoMetrics})

			if interval := rt.cfg.Archive.Interval; interval > 0 {
				store, err := storage.NewMinIO(ctx, rt.cfg.MinIO)
				if err != nil {
					return fmt.Errorf("init object storage: %w", err)
				}
				archiver := service.NewAuditArchiveService(store, repos.AuditLogs, rt.cfg.Archive, rt.log)
				go service.Schedule(ctx, archiver, interval, rt.log)
				rt.log.Info().Dur("interval", interval).Msg("scheduled audit archive enabled")
			}

			app := fiber.New(fiber.Config{
				ErrorHandler:          handlers.ErrorHandler(),
				DisableStartupMessage: true,
			})
			app.Use(middleware.RequestID())
			app.Use(otelfiber.Middleware())
			app.Use(middleware.Logger(rt.log))
			app.Use(httpMetrics.Handler())
			handlers.RegisterRoutes(app, gw, reg)

			errCh := make(chan error, 1)
			go func() {
				rt.log.Info().Str("port", rt.cfg.Port).Msg("http server listening")
				errCh <- app.Listen(":" + rt.cfg.Port)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			rt.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema when it does not exist yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			return migration.EnsureMigrated(cmd.Context(), rt.db, rt.log)
		},
	}
}

func archiveAuditCmd() *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "archive-audit",
		Short: "Export audit entries of a time window to object storage",
		Long: "Exports the audit entries created in [from, to) as JSON lines. Both bounds accept " +
			"RFC 3339 timestamps or YYYY-MM-DD dates (UTC midnight). The default window is yesterday.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := parseWindow(fromFlag, toFlag, time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			gw, err := rt.gateway()
			if err != nil {
				return err
			}
			store, err := storage.NewMinIO(ctx, rt.cfg.MinIO)
			if err != nil {
				return fmt.Errorf("init object storage: %w", err)
			}

			audit := postgres.NewAuditLogPostgres(gw, postgres.Options{Logger: rt.log})
			svc := service.NewAuditArchiveService(store, audit, rt.cfg.Archive, rt.log)

			res, err := svc.Archive(ctx, from, to)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "start of the window, inclusive")
	cmd.Flags().StringVar(&toFlag, "to", "", "end of the window, exclusive")
	return cmd
}

// parseWindow resolves the archive window. Missing bounds default to the UTC
// day before now; a lone --from spans one day.
func parseWindow(fromFlag, toFlag string, now time.Time) (time.Time, time.Time, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	from, to := today.AddDate(0, 0, -1), today

	if fromFlag != "" {
		t, err := parseBound(fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		from, to = t, t.AddDate(0, 0, 1)
	}
	if toFlag != "" {
		t, err := parseBound(toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		to = t
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, service.ErrInvalidWindow
	}
	return from, to, nil
}

func parseBound(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.New("expected RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}
