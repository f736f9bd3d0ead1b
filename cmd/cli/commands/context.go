package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/internal/config"
	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/mongodb"
	"github.com/jakechorley/volunteer-hub/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Registry *db.Registry
	Postgres *postgres.DB
	MongoDB  *mongodb.DB
	Logger   *zap.Logger
	Ctx      context.Context
}

// Open connects to every configured backend and registers it
func (a *AppContext) Open() error {
	defaultBackend, err := db.ParseBackend(a.Cfg.DefaultBackend)
	if err != nil {
		return err
	}
	a.Registry = db.NewRegistry(defaultBackend)

	if a.Cfg.Postgres.Enabled() {
		a.Logger.Info("Connecting to PostgreSQL")
		a.Postgres, err = postgres.NewDB(a.Ctx, a.Cfg.Postgres.DSN, postgres.Options{
			MaxConns:       a.Cfg.Postgres.MaxConns,
			MinConns:       a.Cfg.Postgres.MinConns,
			ConnectTimeout: a.Cfg.Postgres.ConnectTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.Registry.Register(db.BackendPostgres, a.Postgres)
	}

	if a.Cfg.MongoDB.Enabled() {
		a.Logger.Info("Connecting to MongoDB", zap.String("database", a.Cfg.MongoDB.Database))
		a.MongoDB, err = mongodb.NewDB(a.Ctx, a.Cfg.MongoDB.URI, a.Cfg.MongoDB.Database, mongodb.Options{
			Timeout:     a.Cfg.MongoDB.Timeout,
			MaxPoolSize: a.Cfg.MongoDB.MaxPoolSize,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize mongodb: %w", err)
		}
		if !a.MongoDB.Transactional() {
			a.Logger.Warn("MongoDB is standalone, cascading deletes run without a transaction; run migrate to resync seat counters")
		}
		a.Registry.Register(db.BackendMongoDB, a.MongoDB)
	}

	return nil
}

// Close releases every open backend
func (a *AppContext) Close() error {
	var errs []error
	if a.Postgres != nil {
		errs = append(errs, a.Postgres.Close(context.Background()))
	}
	if a.MongoDB != nil {
		errs = append(errs, a.MongoDB.Close(context.Background()))
	}
	return errors.Join(errs...)
}

// store returns the database for the named backend, or the default when name is empty
func (a *AppContext) store(name string) (db.Backend, db.Database, error) {
	b := a.Registry.Default()
	if name != "" {
		var err error
		if b, err = db.ParseBackend(name); err != nil {
			return "", nil, err
		}
	}
	database, err := a.Registry.For(b)
	if err != nil {
		return "", nil, err
	}
	return b, database, nil
}
