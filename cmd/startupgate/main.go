package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	phuslog "github.com/phuslu/log"

	"github.com/startupgate/startupgate/cache/ristretto"
	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/core"
	"github.com/startupgate/startupgate/db/zombiezen"
	"github.com/startupgate/startupgate/funding"
	"github.com/startupgate/startupgate/identity"
	"github.com/startupgate/startupgate/mail"
	"github.com/startupgate/startupgate/queue"
	"github.com/startupgate/startupgate/queue/executor"
	"github.com/startupgate/startupgate/queue/handlers"
	"github.com/startupgate/startupgate/queue/scheduler"
	"github.com/startupgate/startupgate/router"
	"github.com/startupgate/startupgate/server"
)

var loggerOptions = &slog.HandlerOptions{
	Level: slog.LevelInfo,
}

func main() {
	configPath := flag.String("config", "startupgate.toml", "path to the TOML config file")
	flag.Parse()

	logger := slog.New(phuslog.SlogNewJSONHandler(os.Stderr, loggerOptions))

	if err := run(*configPath, logger); err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	provider := config.NewProvider(cfg)

	dbApp, err := zombiezen.New(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbApp.Close()

	throttleCache, err := ristretto.New[bool]()
	if err != nil {
		return fmt.Errorf("create throttle cache: %w", err)
	}
	lockoutCache, err := ristretto.New[int]()
	if err != nil {
		return fmt.Errorf("create lockout cache: %w", err)
	}

	registrar := identity.NewRegistrar(dbApp, logger)
	verifier, err := identity.NewVerifier(dbApp, throttleCache, cfg, logger)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}
	resetter, err := identity.NewResetter(dbApp, dbApp, dbApp, cfg, logger)
	if err != nil {
		return fmt.Errorf("create resetter: %w", err)
	}
	lockout := identity.NewCacheLockoutTracker(lockoutCache, cfg.Lockout, logger)
	authenticator, err := identity.NewAuthenticator(dbApp, lockout, cfg, logger)
	if err != nil {
		return fmt.Errorf("create authenticator: %w", err)
	}

	app, err := core.NewApp(
		core.WithDbApp(dbApp),
		core.WithConfigProvider(provider),
		core.WithLogger(logger),
		core.WithValidator(core.NewValidator()),
		core.WithIdentity(registrar, verifier, resetter, authenticator),
		core.WithFunding(funding.NewStateMachine(dbApp, logger)),
	)
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}

	mailer := mail.New(cfg.Smtp, logger)
	exec := executor.NewExecutor(map[string]executor.JobHandler{
		queue.JobTypeEmailVerification: handlers.NewEmailVerificationHandler(dbApp, verifier, cfg, mailer, logger),
		queue.JobTypePasswordReset:     handlers.NewPasswordResetHandler(dbApp, resetter, cfg, mailer, logger),
	})

	rt := router.New()
	app.Routes(rt)

	srv := server.NewServer(provider, rt, logger, func() error {
		reloaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		provider.Update(reloaded)
		return nil
	})
	srv.AddDaemon(scheduler.NewScheduler(cfg.Scheduler, dbApp, exec, logger))

	srv.Run()
	return nil
}
