package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-storefront/api"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/config"
	"github.com/goliatone/go-storefront/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config   config.Config
	logger   *slog.Logger
	bunDB    *bun.DB
	repo     repository.Manager
	accounts *auth.Accounts
	auther   *auth.Auther
	srv      *fiber.App
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lgr := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(lgr)

	if cfg.Debug {
		redacted := cfg
		redacted.SecretKey = "***"
		redacted.FirstSuperuserPassword = "***"
		fmt.Println("============")
		fmt.Println(print.MaybePrettyJSON(redacted))
		fmt.Println("============")
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}
	defer app.bunDB.Close()

	if err := WithAuth(ctx, app); err != nil {
		lgr.Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	WithHTTPServer(app)

	go func() {
		lgr.Info("listening", "addr", cfg.Addr)
		if err := app.srv.Listen(cfg.Addr); err != nil {
			lgr.Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	lgr.Info("shutting down", "signal", sig.String())

	if err := app.srv.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		lgr.Error("graceful shutdown failed", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return err
	}

	app.bunDB = bun.NewDB(db, sqlitedialect.New())

	if err := repository.CreateSchema(ctx, app.bunDB); err != nil {
		return err
	}

	app.repo = repository.NewManager(app.bunDB)
	return app.repo.Validate()
}

func WithAuth(ctx context.Context, app *App) error {
	logger := app.logger.With("component", "auth")
	sink := auth.LoggingActivitySink{Logger: app.logger.With("component", "activity")}

	tokens, err := auth.NewTokenServiceFromConfig(app.config, auth.WithTokenLogger(logger))
	if err != nil {
		return err
	}

	hasher := auth.NewBcryptHasher(app.config.BcryptCost)

	app.accounts = auth.NewAccounts(app.repo, hasher).
		WithLogger(logger).
		WithActivitySink(sink)

	app.auther = auth.NewAuthenticator(app.accounts, hasher, tokens, app.config).
		WithLogger(logger).
		WithActivitySink(sink)

	if app.config.BootstrapSuperuser() {
		user, created, err := app.accounts.EnsureSuperuser(ctx, app.config.FirstSuperuserEmail, app.config.FirstSuperuserPassword)
		if err != nil {
			return err
		}
		logger.Info("superuser ready", "user_id", user.ID, "created", created)
	}

	return nil
}

func WithHTTPServer(app *App) {
	app.srv = api.NewApp(api.Dependencies{
		Sessions:    app.auther,
		Accounts:    app.accounts,
		Resolver:    app.auther.Resolver(),
		Categories:  app.repo.Categories(),
		Products:    app.repo.Products(),
		Orders:      app.repo.Orders(),
		Logger:      app.logger.With("component", "api"),
		Debug:       app.config.Debug,
		CORSOrigins: app.config.CORSOrigins,
		AccessLog:   os.Stdout,
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
