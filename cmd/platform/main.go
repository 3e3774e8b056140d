package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aavaaz-civic/platform/internal/identity"
	"github.com/aavaaz-civic/platform/internal/session"
	"github.com/aavaaz-civic/platform/internal/shared/config"
	"github.com/aavaaz-civic/platform/internal/shared/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	periodsFlag int
	rootCmd     = &cobra.Command{
		Use:           "platform",
		Short:         "Civic grievance platform: complaint intake, lifecycle and reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, log)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print complaint statistics and the monthly trend as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runStats(cmd.Context(), cfg, log, periodsFlag, cmd.OutOrStdout())
		},
	}
	statsCmd.Flags().IntVarP(&periodsFlag, "periods", "p", 0, "Number of months in the trend (default from config)")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the identity locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			return withSession(cmd, func(ctx context.Context, m *session.Manager) error {
				u, err := m.SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Name, u.Role)
				return nil
			})
		},
	}
	loginCmd.Flags().StringP("email", "e", "", "Account email (required)")
	loginCmd.Flags().StringP("password", "P", "", "Account password (required)")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			roleStr, _ := cmd.Flags().GetString("role")
			role, err := identity.ParseRole(roleStr)
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, m *session.Manager) error {
				u, err := m.SignUp(ctx, name, email, password, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s (id %s)\n", u.Email, u.Role, u.ID)
				return nil
			})
		},
	}
	registerCmd.Flags().StringP("name", "n", "", "Display name (required)")
	registerCmd.Flags().StringP("email", "e", "", "Account email (required)")
	registerCmd.Flags().StringP("password", "P", "", "Account password")
	registerCmd.Flags().StringP("role", "r", string(identity.RoleCitizen), "Role: citizen, agent or admin")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the locally remembered identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, m *session.Manager) error {
				if err := m.SignOut(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally remembered identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, m *session.Manager) error {
				u, err := m.Current(ctx)
				if err != nil {
					return err
				}
				if u == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s id=%s\n", u.Name, u.Email, u.Role, u.ID)
				return nil
			})
		},
	}

	rootCmd.AddCommand(serveCmd, statsCmd, loginCmd, registerCmd, logoutCmd, whoamiCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config and installs the logger. Only serve logs to stdout;
// the other commands keep stdout for their own output.
func setup(logOut io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewWithWriter(logOut, cfg.Log.Service, cfg.Log.Level)
	logger.SetGlobal(log)
	return cfg, log, nil
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router(ctx),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		close(done)
	}()

	log.Info().
		Str("environment", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Bool("demo_data", cfg.Data.SeedDemoData).
		Msg("starting grievance platform")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	log.Info().Msg("server stopped")
	return nil
}

func runStats(ctx context.Context, cfg *config.Config, log zerolog.Logger, periods int, out io.Writer) error {
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if periods <= 0 {
		periods = cfg.Report.TrendPeriods
	}

	stats, err := app.Reporter.Statistics(ctx)
	if err != nil {
		return err
	}
	trend, err := app.Reporter.MonthlyTrend(ctx, periods)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"statistics": stats,
		"trend":      trend,
	})
}

// withSession runs fn against a session manager backed by the session file.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, m *session.Manager) error) error {
	cfg, log, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	m, err := newSessionManager(cfg, log)
	if err != nil {
		return err
	}
	return fn(cmd.Context(), m)
}

func newSessionManager(cfg *config.Config, log zerolog.Logger) (*session.Manager, error) {
	var opts []identity.Option
	if cfg.Data.SeedDemoData {
		opts = append(opts, identity.WithSeed(identity.DemoUsers()))
	}
	users, err := identity.NewStore(cfg.Auth.DemoPassword, opts...)
	if err != nil {
		return nil, err
	}
	files, err := session.NewFileStore(cfg.Session.Path, cfg.Session.Key, log)
	if err != nil {
		return nil, err
	}
	return session.NewManager(users, files, log), nil
}
