package cmd

import (
	"fmt"

	"github.com/viktsys/marketetl/config"
	"github.com/viktsys/marketetl/database"
	"github.com/viktsys/marketetl/extract"
	"github.com/viktsys/marketetl/landing"
	"github.com/viktsys/marketetl/load"
	"github.com/viktsys/marketetl/logging"
	"github.com/viktsys/marketetl/lookup"
	"github.com/viktsys/marketetl/transform"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the shared dependencies every command is built from.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	lookup *lookup.Service
	store  *landing.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database, cfg.Logging.Level, log)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, err
	}

	if err := database.Migrate(db, cfg.Currencies, log); err != nil {
		log.Error("Failed to migrate database", zap.Error(err))
		database.Close(db, log)
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		lookup: lookup.New(db, log),
		store:  landing.NewStore(cfg.Data.Dir, log),
	}, nil
}

func (a *app) close() {
	database.Close(a.db, a.log)
	_ = a.log.Sync()
}

func (a *app) extractor() *extract.Extractor {
	apis := a.cfg.APIs
	return extract.NewExtractor(
		a.lookup,
		extract.NewBTCClient(apis.BTCURL, apis.BTCKey, apis.HTTPTimeout, a.log),
		extract.NewGoldClient(apis.GoldURL, apis.GoldKey, apis.HTTPTimeout, a.log),
		a.store,
		extract.NewRepository(a.db),
		a.log.Named("extract"),
	)
}

func (a *app) transformer() *transform.Runner {
	log := a.log.Named("transform")
	staging := transform.NewRepository(a.db, transform.NewSchemaManager(log), log)
	normalizer := transform.NewNormalizer(a.lookup, staging, a.store, log)
	return transform.NewRunner(staging, normalizer, log)
}

func (a *app) loader() *load.Loader {
	log := a.log.Named("load")
	return load.NewLoader(load.NewEngine(a.db, a.lookup, log), a.lookup, log)
}

func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.close()

	return fn(a)
}
