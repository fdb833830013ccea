package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/storyhub"
	"github.com/goliatone/storyhub/activitymap"
	"github.com/goliatone/storyhub/mailer"
	"github.com/goliatone/storyhub/middleware/jwtware"
	"github.com/goliatone/storyhub/stories"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("storyhub"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		lgr.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// No signing secret means no tokens can be issued or verified. Refuse
	// to start rather than limp along.
	tokens, err := storyhub.NewTokenServiceFromConfig(cfg,
		storyhub.WithTokenLogger(lgr.GetLogger("tokens")),
	)
	if err != nil {
		lgr.Error("token service setup failed", "error", err)
		os.Exit(1)
	}

	repos := storyhub.NewRepositoryManager(db)
	repos.MustValidate()

	accounts := repos.Accounts()
	storyRepo := stories.NewStoriesRepository(db)
	mail := mailer.Dev{}

	activity := activityLogSink(lgr.GetLogger("activity"))

	lifecycle := storyhub.NewLifecycle(accounts, tokens, mail,
		storyhub.WithLifecycleLogger(lgr.GetLogger("lifecycle")),
		storyhub.WithConfirmationBaseURL(cfg.BaseURL),
		storyhub.WithLifecycleActivitySink(activity),
	)

	auther := storyhub.NewAuthenticator(accounts, tokens,
		storyhub.WithAuthenticatorLogger(lgr.GetLogger("auth")),
		storyhub.WithAuthenticatorActivitySink(activity),
	)

	authController := storyhub.NewAuthController(
		storyhub.WithControllerLifecycle(lifecycle),
		storyhub.WithControllerAuthenticator(auther),
		storyhub.WithControllerLogger(lgr.GetLogger("auth:http")),
		storyhub.WithControllerDebug(cfg.Debug),
	)

	adminController := storyhub.NewAdminController(
		storyhub.WithAdminAccounts(accounts),
		storyhub.WithAdminLifecycle(lifecycle),
		storyhub.WithAdminMailer(mail),
		storyhub.WithAdminLogger(lgr.GetLogger("admin:http")),
	)

	storyController := stories.NewController(
		stories.WithRepository(storyRepo),
		stories.WithAuthorDirectory(accounts),
		stories.WithMailer(mail),
		stories.WithLogger(lgr.GetLogger("stories:http")),
	)

	sessionGuard := jwtware.New(storyhub.SessionGuardFromConfig(cfg, tokens))

	adminCfg := storyhub.SessionGuardFromConfig(cfg, tokens)
	adminCfg.RequireAdmin = true
	adminGuard := jwtware.New(adminCfg)

	app := fiber.New(fiber.Config{
		AppName: "storyhub",
	})

	storyhub.RegisterAuthRoutes(app, authController)
	storyhub.RegisterTokenRoutes(app, sessionGuard, authController)
	storyhub.RegisterAdminRoutes(app, adminGuard, adminController)
	stories.RegisterStoryRoutes(app, sessionGuard, adminGuard, storyController)

	go func() {
		if err := app.Listen(cfg.Address); err != nil {
			lgr.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.Info("server listening", "address", cfg.Address)

	sig := waitExitSignal()
	lgr.Info("shutting down", "signal", sig.String())

	if err := app.Shutdown(); err != nil {
		lgr.Error("shutdown failed", "error", err)
	}
}

// activityLogSink flattens identity activity into the structured log stream.
func activityLogSink(lgr storyhub.Logger) storyhub.ActivitySink {
	return storyhub.ActivitySinkFunc(func(_ context.Context, event storyhub.ActivityEvent) error {
		record := activitymap.Normalize(event)
		lgr.Info("activity",
			"verb", record.Verb,
			"actor", record.ActorID,
			"object_type", record.ObjectType,
			"object_id", record.ObjectID,
			"channel", record.Channel,
			"metadata", record.Metadata,
			"occurred_at", record.OccurredAt,
		)
		return nil
	})
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range []any{
		(*storyhub.Account)(nil),
		(*stories.Story)(nil),
	} {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
