// Package core holds the application context and the HTTP handlers.
package core

import (
	"log/slog"

	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/db"
	"github.com/startupgate/startupgate/funding"
	"github.com/startupgate/startupgate/identity"
)

// App is the application wide context. Handlers and middleware have App
// as receiver, so heavy objects (db pool, services, config) are built
// once and shared.
type App struct {
	dbAuth    db.DbAuth
	dbProfile db.DbProfile
	dbProject db.DbProject
	dbQueue   db.DbQueue

	configProvider *config.Provider
	logger         *slog.Logger
	validator      Validator

	registrar     *identity.Registrar
	verifier      *identity.Verifier
	resetter      *identity.Resetter
	authenticator *identity.Authenticator
	funding       *funding.StateMachine
}

func NewApp(opts ...Option) (*App, error) {
	a := &App{validator: NewValidator()}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.checkWired(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) DbAuth() db.DbAuth { return a.dbAuth }

func (a *App) DbProfile() db.DbProfile { return a.dbProfile }

func (a *App) DbProject() db.DbProject { return a.dbProject }

func (a *App) DbQueue() db.DbQueue { return a.dbQueue }

func (a *App) Logger() *slog.Logger { return a.logger }

func (a *App) Validator() Validator { return a.validator }

func (a *App) Config() *config.Config { return a.configProvider.Get() }
