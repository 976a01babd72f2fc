package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/app"
	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// deps bundles what every subcommand needs.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func setup(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := app.NewLogger(cfg.IsProduction)
	zap.ReplaceGlobals(logger)

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	return &deps{cfg: cfg, logger: logger, pool: pool}, nil
}

func (rt *deps) close() {
	rt.pool.Close()
	_ = rt.logger.Sync()
}

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the payment expiry sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For receiving Ctrl+C / SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if migrate {
				if err := migrateUp(ctx, rt); err != nil {
					return err
				}
			}

			container := app.NewContainer(rt.cfg, rt.pool, rt.logger)
			defer container.Close()

			container.Sweeper.Start(ctx)
			defer container.Sweeper.Stop()

			// Use http.Server for graceful shutdown
			server := &http.Server{
				Addr:    rt.cfg.HTTPAddr,
				Handler: container.Router,
			}

			serverErr := make(chan error, 1)
			go func() {
				rt.logger.Info("server running", zap.String("addr", rt.cfg.HTTPAddr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				rt.logger.Info("shutdown signal received")
			case err := <-serverErr:
				return fmt.Errorf("server error: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				rt.logger.Warn("server forced to shutdown", zap.Error(err))
			}

			rt.logger.Info("server exited gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func migrateUp(ctx context.Context, rt *deps) error {
	migrator, err := db.NewMigrator(rt.pool, rt.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Up(ctx)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			return migrateUp(cmd.Context(), rt)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			migrator, err := db.NewMigrator(rt.pool, rt.logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			if err := migrator.Status(cmd.Context()); err != nil {
				return err
			}
			version, err := migrator.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current version: %d\n", version)
			return nil
		},
	})

	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Cancel unpaid bookings past their payment deadline once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			container := app.NewContainer(rt.cfg, rt.pool, rt.logger)
			defer container.Close()

			n, err := container.Sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "canceled %d expired bookings\n", n)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		email string
		role  string
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction {
				return errors.New("tokens are issued by the auth service in production")
			}

			switch role {
			case auth.RoleGuest, auth.RoleStaff, auth.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL).GenerateAccessToken(args[0], email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", auth.RoleGuest, "role claim (guest, staff, admin)")
	return cmd
}
