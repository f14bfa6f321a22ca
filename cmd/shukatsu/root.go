package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/config"
	"github.com/hiro4859/syukatsu-base-v2/internal/database"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

// Global flags.
var (
	flagJSON    bool
	flagDebug   bool
	flagSession string
)

// rt is built once per invocation by the root command.
var rt *runtime

var rootCmd = &cobra.Command{
	Use:   "shukatsu",
	Short: "Track companies, deadlines and entry sheets from the terminal",
	Long: `shukatsu reads and updates the same records as the web app.

Signed out, every command shows the demo dataset.

Examples:
  shukatsu login --email taro@example.com
  shukatsu deadlines
  shukatsu deadlines --all
  shukatsu complete task-8f14e45f
  shukatsu calendar sync --watch 30m`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		r, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		rt = r
		return nil
	},
}

func init() {
	// Finalizers run after RunE errors too, unlike PersistentPostRun.
	cobra.OnFinalize(closeRuntime)

	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session-file", "", "Where the signed-in session is kept")

	rootCmd.AddCommand(migrateCmd)
}

// runtime is what every subcommand needs: configuration, the database and the
// session of whoever is using the terminal.
type runtime struct {
	cfg      *config.Config
	log      *log.Logger
	db       *gorm.DB
	clock    services.Clock
	resolver *app.Resolver
	auth     *services.AuthService

	broker  *auth.Broker
	events  <-chan auth.Event
	unsub   func()
	session *app.Session
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagDebug {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	revoker, err := auth.NewRevoker(ctx, cfg.RedisURL)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	path := flagSession
	if path == "" {
		if path, err = app.DefaultSessionPath(); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("session path: %w", err)
		}
	}
	session, err := app.LoadSession(path, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	// Subscribe before anything can publish so the session sees every change.
	broker := auth.NewBroker()
	events, unsub := broker.Subscribe()

	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.SessionTTL)
	return &runtime{
		cfg:      cfg,
		log:      logger,
		db:       db,
		clock:    services.SystemClock(cfg.Location),
		resolver: app.NewResolver(db, cfg.Location),
		auth:     services.NewAuthService(db, tokens, revoker, broker, logger),
		broker:   broker,
		events:   events,
		unsub:    unsub,
		session:  session,
	}, nil
}

func closeRuntime() {
	if rt != nil {
		rt.close()
		rt = nil
	}
}

func (r *runtime) close() {
	r.unsub()
	closeDB(r.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// sync applies the session events published by the last service call.
func (r *runtime) sync() {
	r.session.Drain(r.events)
}

// scope resolves the saved session. A saved token the server no longer accepts
// signs the terminal out.
func (r *runtime) scope(ctx context.Context) (app.Scope, error) {
	current := r.session.Current()
	if current != nil {
		if _, err := r.auth.CurrentSession(ctx, current.AccessToken); err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) {
				return app.Scope{}, err
			}
			r.log.Warn("saved session is no longer valid, showing demo data")
			r.broker.Publish(auth.Event{Type: auth.SignedOut})
			r.sync()
			current = nil
		}
	}
	return r.resolver.ForSession(current)
}

// printJSON writes v indented when --json is set and reports whether it did.
func printJSON(w io.Writer, v any) (bool, error) {
	if !flagJSON {
		return false, nil
	}
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return true, err
	}
	_, err = fmt.Fprintln(w, string(b))
	return true, err
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(rt.db, rt.log); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		return nil
	},
}
