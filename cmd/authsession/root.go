package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/authtest"
	"github.com/MrEthical07/goAuthClient/gate"
	"github.com/MrEthical07/goAuthClient/metrics/export/prometheus"
	"github.com/spf13/cobra"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "authsession",
		Short:         "Manage a persisted auth session from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.storeKind, "store", "sqlite", "credential store: sqlite, redis or memory")
	pf.StringVar(&opts.dbPath, "db", defaultDBPath(), "sqlite database path")
	pf.StringVar(&opts.redisAddr, "redis-addr", "", "redis address (defaults to REDIS_ADDR, then an in-process miniredis)")
	pf.StringVar(&opts.redisPrefix, "redis-prefix", "gac", "redis key prefix")
	pf.StringVar(&opts.apiURL, "api-url", "", "service base url (overrides GOAUTHCLIENT_API_URL)")
	pf.StringVar(&opts.platform, "platform", "", "platform default for the base url: web or device")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.BoolVar(&opts.events, "events", false, "write session events as JSON lines to stderr")
	pf.StringVar(&opts.otlp, "otlp-endpoint", "", "OTLP/HTTP trace endpoint URL (defaults to GOAUTHCLIENT_OTLP_ENDPOINT)")

	root.AddCommand(
		newLoginCmd(&opts),
		newRegisterCmd(&opts),
		newLogoutCmd(&opts),
		newWhoamiCmd(&opts),
		newStatusCmd(&opts),
		newServeCmd(),
	)
	return root
}

// withManager restores the session and runs fn against it.
func withManager(cmd *cobra.Command, opts *globalOptions, fn func(context.Context, *goAuthClient.Manager) error) error {
	ctx := cmd.Context()
	m, cleanup, err := openManager(ctx, *opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, m)
}

func describeUser(u *goAuthClient.User) string {
	if u == nil {
		return "(unknown user)"
	}
	return fmt.Sprintf("%s <%s> (id %s)", u.Name, u.Email, u.ID)
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(ctx context.Context, m *goAuthClient.Manager) error {
				s, err := m.Login(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describeUser(s.User))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(opts *globalOptions) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(ctx context.Context, m *goAuthClient.Manager) error {
				s, err := m.Register(ctx, name, email, password)
				if err != nil {
					if errors.Is(err, goAuthClient.ErrLoginAfterRegister) {
						fmt.Fprintln(cmd.ErrOrStderr(), "Account created, but signing in failed. Try `authsession login`.")
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", describeUser(s.User))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(ctx context.Context, m *goAuthClient.Manager) error {
				res := m.Logout(ctx)
				if res.StorageErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: stored credentials may remain: %v\n", res.StorageErr)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Ask the service who the stored token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(ctx context.Context, m *goAuthClient.Manager) error {
				if !m.IsAuthenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				u, err := m.Me(ctx)
				if err != nil {
					if !m.IsAuthenticated() {
						fmt.Fprintln(cmd.ErrOrStderr(), "The service rejected the stored session; it has been cleared.")
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeUser(u))
				return nil
			})
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var showMetrics bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the restored session and where a client would route",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(ctx context.Context, m *goAuthClient.Manager) error {
				route, err := gate.Await(ctx, m)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				s := m.Snapshot()
				fmt.Fprintf(out, "state: %s\n", s.State())
				fmt.Fprintf(out, "route: %s\n", route)
				if s.IsAuthenticated() {
					fmt.Fprintf(out, "user:  %s\n", describeUser(s.User))
				}
				if showMetrics {
					fmt.Fprintln(out)
					fmt.Fprint(out, prometheus.NewPrometheusExporter(m).Render())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print client metrics in Prometheus text format")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr  string
		ttl   time.Duration
		seeds []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory auth service for local development",
		Long: `Serve the register, login and me endpoints under /api from an
in-memory account table. Accounts and tokens are lost on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := authtest.New(authtest.WithTokenTTL(ttl))
			for _, seed := range seeds {
				parts := strings.SplitN(seed, ":", 3)
				if len(parts) != 3 {
					return fmt.Errorf("invalid --seed %q (want name:email:password)", seed)
				}
				if _, err := svc.SeedUser(parts[0], parts[1], parts[2]); err != nil {
					return fmt.Errorf("seed %s: %w", parts[1], err)
				}
			}
			return serve(cmd.Context(), addr, svc, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "listen address")
	cmd.Flags().DurationVar(&ttl, "token-ttl", time.Hour, "issued token lifetime")
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "pre-create an account as name:email:password (repeatable)")
	return cmd
}

func serve(ctx context.Context, addr string, h http.Handler, out io.Writer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	fmt.Fprintf(out, "auth service listening on http://%s/api\n", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
