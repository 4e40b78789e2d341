package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/swaptrix/accounts"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

type App struct {
	config *Config
	bunDB  *bun.DB
	repo   accounts.RepositoryManager
	auther *accounts.Auther
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.Error("configuration error", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence error", "error", err)
		os.Exit(1)
	}

	if err := WithAuth(ctx, app); err != nil {
		lgr.Error("auth error", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http error", "error", err)
		os.Exit(1)
	}

	lgr.Info("listening", "addr", cfg.ListenAddr)

	app.srv.Serve(cfg.ListenAddr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DSN)
	if err != nil {
		return err
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(migrationsFS); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(bunDB, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if !group.IsZero() {
		app.GetLogger("persistence").Info("migrated", "group", group.String())
	}

	app.bunDB = bunDB
	app.repo = accounts.NewRepositoryManager(bunDB)

	return app.repo.Validate()
}

func WithAuth(ctx context.Context, app *App) error {
	cfg := app.config

	var mailer accounts.Mailer
	if cfg.SMTPHost != "" {
		mailer = accounts.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom,
			accounts.WithSMTPAuth(cfg.SMTPUsername, cfg.SMTPPassword),
			accounts.WithSMTPLogger(app.GetLogger("mailer")),
		)
	} else {
		mailer = accounts.NewLogMailer(app.GetLogger("mailer"))
	}

	app.auther = accounts.NewAuthenticator(app.repo, cfg).
		WithLogger(app.GetLogger("auth")).
		WithMailer(mailer).
		WithBaseURL(cfg.BaseURL)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := seedAdmin(ctx, app); err != nil {
			return err
		}
	}

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "accounts",
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	httpAuth, err := accounts.NewHTTPAuthenticator(app.auther, app.repo, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))

	controller := accounts.NewHTTPController(app.auther, app.repo,
		accounts.WithControllerLogger(app.GetLogger("auth:ctrl")),
		accounts.WithControllerDebug(cfg.Debug),
	)

	controller.RegisterAuthRoutes(srv.Router().Group("/api/auth"))
	controller.RegisterAdminRoutes(srv.Router().Group("/api/admin"),
		httpAuth.Protected(),
		httpAuth.RequireAccount(),
		httpAuth.RequireAdmin(),
	)

	app.srv = srv

	return nil
}

// seedAdmin creates a verified admin account at boot so the admin surface is
// reachable on a fresh database. A no-op when the email already exists.
func seedAdmin(ctx context.Context, app *App) error {
	cfg := app.config
	users := app.repo.Users()
	lgr := app.GetLogger("seed")

	if _, err := users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !repository.IsRecordNotFound(err) {
		return err
	}

	hash, err := accounts.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &accounts.User{
		Email:         cfg.AdminEmail,
		PasswordHash:  hash,
		Role:          accounts.RoleAdmin,
		EmailVerified: true,
	}

	if _, err := users.Register(ctx, admin); err != nil {
		return err
	}

	lgr.Info("seeded admin account", "email", cfg.AdminEmail)

	return nil
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
