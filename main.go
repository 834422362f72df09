package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lazharichir/jpoker/auth"
	"github.com/lazharichir/jpoker/config"
	"github.com/lazharichir/jpoker/domain"
	"github.com/lazharichir/jpoker/events"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/lazharichir/jpoker/server"
	serverevents "github.com/lazharichir/jpoker/server/events"
	"github.com/lazharichir/jpoker/table"
	"github.com/spf13/cobra"
)

// eventHistory is how many events the in-memory store keeps per table
const eventHistory = 1000

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jpoker:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "jpoker [port]",
		Short:         "JPoker Texas Hold'em server",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				port, err := parsePort(args[0])
				if err != nil {
					return err
				}
				cfg.Port = port
			}

			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, log)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a configuration file")
	flags.String("auth-mode", "none", "authentication mode: none or password")
	flags.Int("max-clients", 100, "maximum number of connected sessions")
	flags.Int("tables", 10, "number of tables created at startup")
	flags.String("ws-addr", "", "address of the websocket listener, disabled when empty")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("split-pots", false, "split tied pots instead of paying the lowest seat")
	flags.Bool("single-login", false, "refuse a second session for a logged in user")

	cmd.AddCommand(newHashCmd())
	return cmd
}

// newHashCmd prints the bcrypt hash of a password for the users config key
func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	verifier, closeVerifier, err := buildVerifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeVerifier()

	store := events.NewInMemoryEventStore(eventHistory)
	sinks := []events.Sink{store}
	if cfg.Redis.Addr != "" {
		pub := events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Channel, log)
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			log.Warn("redis not reachable, events will be retried per publish", "addr", cfg.Redis.Addr, "err", err)
		}
		sinks = append(sinks, pub)
	}
	dispatcher := serverevents.NewDispatcher(0, log, sinks...)
	go dispatcher.Run(ctx)

	lobby := domain.NewLobby(table.Options{
		Events:    dispatcher,
		SplitPots: cfg.SplitPots,
	}, log)
	if err := lobby.Bootstrap(cfg.Tables); err != nil {
		return err
	}

	srv, err := server.New(lobby, server.Options{
		AuthMode:    cfg.Mode(),
		Verifier:    verifier,
		MaxClients:  cfg.MaxClients,
		SingleLogin: cfg.SingleLogin,
		Log:         log,
	})
	if err != nil {
		return err
	}

	lobby.StartAll(ctx)
	if cfg.WSAddr != "" {
		go func() {
			if err := srv.ServeHTTP(ctx, cfg.WSAddr); err != nil {
				log.Error("websocket listener stopped", "err", err)
			}
		}()
	}

	log.Info("starting server", "port", cfg.Port, "auth", cfg.Mode(), "tables", cfg.Tables)
	err = srv.ListenAndServe(ctx, net.JoinHostPort("", strconv.Itoa(cfg.Port)))

	srv.Close()
	lobby.Wait()
	<-dispatcher.Done()
	if n := store.Rejected(); n > 0 {
		log.Warn("events without a table were not stored", "count", n)
	}
	log.Info("server stopped")
	return err
}

// buildVerifier picks the password backend: Postgres when a DSN is set,
// else the users of the configuration
func buildVerifier(ctx context.Context, cfg config.Config, log *slog.Logger) (auth.Verifier, func(), error) {
	nop := func() {}
	if cfg.Mode() != protocol.AuthPassword {
		return nil, nop, nil
	}
	if cfg.Postgres.DSN != "" {
		pg, err := auth.OpenPostgres(ctx, cfg.Postgres.DSN, log)
		if err != nil {
			return nil, nop, err
		}
		return pg, func() { pg.Close() }, nil
	}
	if len(cfg.Users) == 0 {
		return nil, nop, errors.New("password authentication needs users or a postgres dsn")
	}
	return auth.NewStatic(cfg.Users), nop, nil
}
