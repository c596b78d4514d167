package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rom-manager/core/catalog"
	"rom-manager/core/config"
	"rom-manager/core/container"
	"rom-manager/core/database"
	"rom-manager/core/errors"
	"rom-manager/core/library"
	"rom-manager/core/logger"
	"rom-manager/core/prompt"
	"rom-manager/core/reconcile"
	"rom-manager/feature/settings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	catalog  *catalog.Store
	layout   *library.Layout
	registry *container.Registry
	settings *settings.Service
	terminal *prompt.Terminal
}

// newApp loads configuration and connects to the catalog. Schema problems
// are reported before any file is touched.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := catalog.NewStore(db)
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate catalog: %w", err)
		}
	}
	if err := store.VerifySchema(ctx); err != nil {
		return nil, err
	}

	layout, err := library.NewLayout(cfg.Library)
	if err != nil {
		return nil, err
	}
	l.Debug("Library layout", zap.String("root", layout.Root()), zap.String("tmp", layout.Tmp()))

	return &app{
		cfg:      cfg,
		logger:   l,
		db:       db,
		catalog:  store,
		layout:   layout,
		registry: container.DefaultRegistry(container.ExecRunner{}, nil, l),
		settings: settings.NewService(store, cfg.Library.DefaultHash, l),
		terminal: prompt.NewTerminal(os.Stdin, os.Stdout),
	}, nil
}

// engine builds a reconciliation engine that asks the terminal to settle ties.
func (a *app) engine() *reconcile.Engine {
	return reconcile.NewEngine(a.catalog, a.registry, a.layout, a.terminal, a.logger)
}

func (a *app) Close() {
	_ = a.logger.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// selectSystems resolves --system values (ids or exact names), every system
// with --all, or asks on the terminal.
func (a *app) selectSystems(ctx context.Context, ids []string, all bool) ([]catalog.System, error) {
	systems, err := a.catalog.FindSystems(ctx)
	if err != nil {
		return nil, err
	}
	if len(systems) == 0 {
		return nil, errors.NewConfigurationError("system", "", "the catalog holds no systems")
	}
	if all {
		return systems, nil
	}
	if len(ids) == 0 {
		return a.terminal.SelectSystems(ctx, systems)
	}

	selected := make([]catalog.System, 0, len(ids))
	for _, id := range ids {
		system, ok := findSystem(systems, id)
		if !ok {
			return nil, errors.NewConfigurationError("system", id, "no such system in the catalog")
		}
		selected = append(selected, system)
	}
	return selected, nil
}

func findSystem(systems []catalog.System, key string) (catalog.System, bool) {
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		for _, s := range systems {
			if s.ID == id {
				return s, true
			}
		}
	}
	for _, s := range systems {
		if strings.EqualFold(s.Name, key) {
			return s, true
		}
	}
	return catalog.System{}, false
}
