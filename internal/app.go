package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/config"
	"github.com/vadiminshakov/fundledger/internal/events"
	"github.com/vadiminshakov/fundledger/internal/services/balance"
	"github.com/vadiminshakov/fundledger/internal/services/importer"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
	"github.com/vadiminshakov/fundledger/internal/storage/ledgerstore"
	"github.com/vadiminshakov/fundledger/internal/web"
)

const notificationBuffer = 64

// App wires the store, services and notification fan-out for one ledger.
type App struct {
	Config        config.Config
	Logger        *zap.Logger
	Store         *ledgerstore.Store
	Balances      *balance.Service
	Ledger        *ledger.Service
	Importer      *importer.Importer
	Notifications *events.Broadcaster
}

// NewLogger builds a production logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

// Open replays the ledger journal in cfg.WALDir and builds the services on top of it.
func Open(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	journal, err := ledgerstore.OpenJournal(ledgerstore.JournalConfig{
		Dir:              cfg.WALDir,
		SegmentThreshold: cfg.WALSegmentThreshold,
		MaxSegments:      cfg.WALMaxSegments,
		Retries:          cfg.WALRetries,
		Logger:           logger.Named("journal"),
	})
	if err != nil {
		return nil, err
	}

	store, err := ledgerstore.Open(journal)
	if err != nil {
		return nil, multierr.Append(err, journal.Close())
	}

	notifications := events.NewBroadcaster(notificationBuffer)
	balances := balance.NewService(store, logger.Named("balance"))
	ledgerSvc := ledger.NewService(store, balances, logger.Named("ledger"), ledger.WithNotifier(notifications))

	logger.Debug("ledger opened",
		zap.String("wal_dir", cfg.WALDir),
		zap.Int("accounts", len(store.Accounts())),
		zap.Int("periods", len(store.Periods())))

	return &App{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Balances:      balances,
		Ledger:        ledgerSvc,
		Importer:      importer.New(ledgerSvc, store, logger.Named("importer")),
		Notifications: notifications,
	}, nil
}

// Server builds the read-only HTTP server for this ledger.
func (a *App) Server() *web.Server {
	return web.NewServer(a.Config.HTTPAddr, a.Balances, a.Store, a.Notifications, a.Logger.Named("web"))
}

// Serve runs the HTTP server until ctx is done, with automatic TLS when a
// domain is configured.
func (a *App) Serve(ctx context.Context) error {
	srv := a.Server()
	if a.Config.TLSDomain != "" {
		return srv.StartWithAutoTLS(ctx, a.Config.TLSDomain, a.Config.TLSCacheDir)
	}
	return srv.Start(ctx)
}

// Close flushes the journal.
func (a *App) Close() error {
	return a.Store.Close()
}
