package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/config"
	"github.com/Tawa-dev/TalentVerify/internal/session"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

var errNotLoggedIn = errors.New("not logged in, run: talentverify login <email>")

// app bundles the wired client stack behind every command.
type app struct {
	cfg     config.Config
	store   token.Store
	api     *client.Client
	session *session.Session
}

func newApp(apiURL, logLevel string) *app {
	cfg := config.Load()
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	var store token.Store
	if cfg.RedisAddr != "" {
		store = token.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisPrefix)
	} else {
		store = token.NewFileStore(cfg.TokenFile)
	}

	api := client.New(cfg.APIBaseURL, store,
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithLogger(logger))

	sess := session.New(api, store, session.NewClock(cfg.RefreshBuffer),
		session.WithLogger(logger))

	return &app{cfg: cfg, store: store, api: api, session: sess}
}

// signIn restores the persisted session; commands that talk to protected
// endpoints call it first.
func (a *app) signIn(ctx context.Context) error {
	if err := a.session.Initialize(ctx); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

func rootCmd() *cobra.Command {
	var (
		apiURL   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "talentverify",
		Short: "Talent Verify command line client",
		Long: `talentverify is a command line client for the Talent Verify
employment verification platform.

It signs in against the API, keeps the access token fresh in the
background, and exposes the company directory, employment records and
dashboards. Tokens persist across invocations in a file (or Redis when
TALENTVERIFY_REDIS_ADDR is set), so a single login covers a whole
working session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides TALENTVERIFY_API_URL)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	build := func() *app { return newApp(apiURL, logLevel) }

	cmd.AddCommand(
		loginCmd(build),
		logoutCmd(build),
		registerCmd(build),
		whoamiCmd(build),
		tokenCmd(build),
		companyCmd(build),
		employeeCmd(build),
		dashboardCmd(build),
	)
	return cmd
}

// friendly rewrites lifecycle errors into actionable messages.
func friendly(err error) error {
	if errors.Is(err, client.ErrRefreshFailed) {
		return errors.New("your session has expired, please log in again")
	}
	return err
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
