package core

import (
	"fmt"
	"log/slog"

	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/funding"
	"github.com/startupgate/startupgate/identity"
)

type Option func(*App)

// WithDbApp wires every database interface from one implementation.
func WithDbApp(dbApp db.DbApp) Option {
	return func(a *App) {
		a.dbAuth = dbApp
		a.dbProfile = dbApp
		a.dbProject = dbApp
		a.dbQueue = dbApp
	}
}

func WithConfigProvider(p *config.Provider) Option {
	return func(a *App) {
		a.configProvider = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func WithValidator(v Validator) Option {
	return func(a *App) {
		a.validator = v
	}
}

func WithIdentity(registrar *identity.Registrar, verifier *identity.Verifier, resetter *identity.Resetter, authenticator *identity.Authenticator) Option {
	return func(a *App) {
		a.registrar = registrar
		a.verifier = verifier
		a.resetter = resetter
		a.authenticator = authenticator
	}
}

func WithFunding(sm *funding.StateMachine) Option {
	return func(a *App) {
		a.funding = sm
	}
}

func (a *App) checkWired() error {
	switch {
	case a.dbAuth == nil:
		return fmt.Errorf("db is required (use WithDbApp)")
	case a.configProvider == nil:
		return fmt.Errorf("config provider is required (use WithConfigProvider)")
	case a.logger == nil:
		return fmt.Errorf("logger is required (use WithLogger)")
	case a.registrar == nil || a.verifier == nil || a.resetter == nil || a.authenticator == nil:
		return fmt.Errorf("identity services are required (use WithIdentity)")
	case a.funding == nil:
		return fmt.Errorf("funding state machine is required (use WithFunding)")
	}
	return nil
}
