package cmd

import (
	"context"
	"fmt"
	"log/slog"

	apiclient "github.com/donaldgifford/shopping-notifier/internal/api/client"
	"github.com/donaldgifford/shopping-notifier/internal/config"
	"github.com/donaldgifford/shopping-notifier/internal/engine"
	"github.com/donaldgifford/shopping-notifier/internal/exclusions"
	"github.com/donaldgifford/shopping-notifier/internal/notify"
	"github.com/donaldgifford/shopping-notifier/internal/rules"
	"github.com/donaldgifford/shopping-notifier/internal/store"
	"github.com/donaldgifford/shopping-notifier/internal/yahoo"
	"github.com/donaldgifford/shopping-notifier/pkg/logger"
	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
)

// app holds the wired components shared by the run and serve commands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	blobs   store.BlobStore
	ledger  store.Ledger
	limiter *yahoo.RateLimiter
	engine  *engine.Engine
	queue   *engine.QueueTrigger
	driver  *engine.Driver

	closers []func()
}

// newApp builds every dependency from cfg. With inProcess set, batches
// always chain through the local queue regardless of batch.trigger.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, inProcess bool) (*app, error) {
	a := &app{cfg: cfg, log: log}

	blobs, err := store.NewFSBlobStore(cfg.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("opening bucket: %w", err)
	}
	a.blobs = blobs

	if err := a.openLedger(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.limiter = yahoo.NewRateLimiter(
		cfg.Yahoo.RateLimit.PerSecond,
		cfg.Yahoo.RateLimit.Burst,
		cfg.Yahoo.RateLimit.DailyLimit,
	)
	searcher := yahoo.NewClient(cfg.Yahoo.AppID,
		yahoo.WithSearchURL(cfg.Yahoo.SearchURL),
		yahoo.WithRateLimiter(a.limiter),
		yahoo.WithRetryPolicy(cfg.Yahoo.Retry),
		yahoo.WithCallInterval(cfg.Yahoo.CallInterval),
		yahoo.WithInStock(*cfg.Yahoo.InStock),
		yahoo.WithSort(cfg.Yahoo.Sort),
		yahoo.WithResults(cfg.Yahoo.Results),
		yahoo.WithLogger(logger.Component(log, "yahoo")),
	)

	a.queue = engine.NewQueueTrigger(cfg.Batch.QueueSize)
	var trigger engine.Trigger = a.queue
	if cfg.Batch.Trigger == config.TriggerHTTP && !inProcess {
		trigger = apiclient.New(cfg.Batch.TriggerURL)
	}

	a.engine = engine.NewEngine(
		rules.NewSource(blobs, cfg.Storage.ConfigKey),
		searcher,
		a.notifier(),
		a.ledger,
		trigger,
		engine.WithLogger(logger.Component(log, "engine")),
		engine.WithEvaluator(matcher.New(
			matcher.WithNewOnlyTag(cfg.Matcher.NewOnlyTag),
			matcher.WithUsedMarker(cfg.Matcher.UsedMarker),
		)),
		engine.WithExclusions(a.exclusionSource(), exclusions.NewCache(blobs, cfg.Exclusions.CacheKey)),
		engine.WithPartition(cfg.Batch.Partition),
		engine.WithBatchSize(cfg.Batch.Size),
		engine.WithNotifyInterval(cfg.Batch.NotifyInterval),
	)
	a.driver = engine.NewDriver(a.engine, a.queue, logger.Component(log, "driver"))

	return a, nil
}

func (a *app) openLedger(ctx context.Context) error {
	lc := a.cfg.Ledger
	switch lc.Backend {
	case config.LedgerPostgres:
		pg, err := store.NewPostgresLedger(ctx, lc.Postgres.DSN(),
			store.WithTable(lc.Name),
			store.WithPostgresLogger(logger.Component(a.log, "ledger")),
		)
		if err != nil {
			return fmt.Errorf("connecting to ledger database: %w", err)
		}
		a.ledger = pg
		a.closers = append(a.closers, pg.Close)
	case config.LedgerSQLite:
		sl, err := store.OpenSQLiteLedger(lc.SQLite.Path, store.WithSQLiteTable(lc.Name))
		if err != nil {
			return fmt.Errorf("opening ledger database: %w", err)
		}
		a.ledger = sl
		a.closers = append(a.closers, func() { _ = sl.Close() })
	case config.LedgerCSV:
		a.ledger = store.NewCSVLedger(a.blobs, lc.CSV.Key)
	default:
		return fmt.Errorf("unknown ledger backend %q", lc.Backend)
	}
	a.log.Info("ledger opened", "backend", lc.Backend, "name", lc.Name)
	return nil
}

func (a *app) notifier() notify.Notifier {
	cw := a.cfg.Chatwork
	log := logger.Component(a.log, "notify")
	if cw.DryRun {
		log.Warn("dry run enabled, notifications are logged only")
		return notify.NewNoOpNotifier(log)
	}
	return notify.NewChatworkNotifier(cw.RoomID, cw.APIToken,
		notify.WithBaseURL(cw.BaseURL),
		notify.WithRetryPolicy(cw.Retry),
		notify.WithSuccessDelay(cw.SuccessDelay),
		notify.WithLogger(log),
	)
}

// exclusionSource returns nil when nothing is configured, which skips the
// global exclusion fetch.
func (a *app) exclusionSource() exclusions.Source {
	ec := a.cfg.Exclusions
	switch {
	case ec.SheetsEnabled():
		var secrets exclusions.SecretProvider = exclusions.EnvSecrets{}
		if ec.Secrets.Dir != "" {
			secrets = exclusions.FileSecrets{Dir: ec.Secrets.Dir}
		}
		opts := []exclusions.SheetsOption{
			exclusions.WithSheetName(ec.SheetName),
			exclusions.WithSheetsLogger(logger.Component(a.log, "exclusions")),
		}
		if ec.SheetsURL != "" {
			opts = append(opts, exclusions.WithSheetsURL(ec.SheetsURL))
		}
		return exclusions.NewSheetsSource(secrets, ec.SecretName, ec.SpreadsheetID, opts...)
	case len(ec.Shops) > 0:
		return exclusions.StaticSource(ec.Shops)
	default:
		a.log.Info("no global exclusion source configured")
		return nil
	}
}

// Close releases the ledger connection.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
