package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/pkg/sys"

	"main/internal/archive"
	"main/internal/engine"
	"main/internal/journal"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	snapshotPath := flag.String("snapshot-path", "", "Snapshot output (default: <history-dir>/snapshot.json)")
	restore := flag.Bool("restore", false, "Restore ledgers from snapshot before starting")
	pgDSN := flag.String("pg-dsn", "", "PostgreSQL DSN for the execution report archive (overrides config)")
	orderCount := flag.Int("orders", 10, "Number of orders to submit")
	orderInterval := flag.Duration("order-interval", 200*time.Millisecond, "Delay between orders")
	duration := flag.Duration("duration", 10*time.Second, "Run duration")
	profile := flag.Bool("pyroscope", false, "Enable continuous profiling")
	profileServer := flag.String("pyroscope-server", "http://localhost:4040", "Pyroscope server address")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *snapshotPath != "" {
		loaded.SnapshotPath = *snapshotPath
	}
	if *pgDSN != "" {
		loaded.ArchiveDSN = *pgDSN
	}

	if *profile {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "reconciler",
			ServerAddress:   *profileServer,
			Tags: map[string]string{
				"env": "local",
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if err := run(context.Background(), loaded, *restore, *orderCount, *orderInterval, *duration); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func run(ctx context.Context, loaded ops.Loaded, restore bool, orderCount int, orderInterval, duration time.Duration) error {
	metrics := obs.NewMetrics()

	var historyJournal, tickJournal *journal.Writer
	if loaded.Features.SaveHistoryToFiles {
		cfg := journal.DefaultConfig(loaded.ExecutionHistoryPath)
		cfg.Header = model.ExecutionHistoryHeader
		cfg.FlushInterval = time.Second
		w, err := journal.NewWriter(cfg)
		if err != nil {
			return err
		}
		historyJournal = w
	}
	var tobJournal *journal.Writer
	if loaded.Features.StoreAllTicks {
		cfg := journal.DefaultConfig(filepath.Join(loaded.HistoryDir, "ticks.log"))
		cfg.FlushInterval = time.Second
		w, err := journal.NewWriter(cfg)
		if err != nil {
			return err
		}
		tickJournal = w

		cfg = journal.DefaultConfig(filepath.Join(loaded.HistoryDir, "top_of_book.log"))
		cfg.FlushInterval = time.Second
		w, err = journal.NewWriter(cfg)
		if err != nil {
			return err
		}
		tobJournal = w
	}

	var reportArchive *archive.Archive
	if loaded.ArchiveDSN != "" {
		a, err := archive.Open(archive.Option{DSN: loaded.ArchiveDSN})
		if err != nil {
			return err
		}
		reportArchive = a
	}

	var e *engine.Engine
	session := sim.NewSession(sim.Config{
		Seed:        loaded.Sim.Seed,
		FillSteps:   3,
		RejectEvery: 7,
	}, func(rep model.ExecutionReport) {
		e.OnExecutionReport(rep)
	})

	e, err := engine.New(engine.Config{
		Session:          session,
		Metrics:          metrics,
		HistoryJournal:   historyJournal,
		TickJournal:      tickJournal,
		TOBJournal:       tobJournal,
		Archive:          reportArchive,
		SnapshotPath:     loaded.SnapshotPath,
		PersistPositions: loaded.Features.PersistPositions,
		StoreAllTicks:    loaded.Features.StoreAllTicks,
	})
	if err != nil {
		return err
	}
	if err := e.Start(ctx); err != nil {
		return err
	}
	session.Run(ctx)

	if restore {
		if _, err := os.Stat(loaded.SnapshotPath); err == nil {
			if err := e.RestoreSnapshot(loaded.SnapshotPath); err != nil {
				return err
			}
		}
	}

	symbols := make([]string, 0, len(loaded.Instruments))
	maxDepths := 1
	for _, inst := range loaded.Instruments {
		if _, err := e.Subscribe(inst.Symbol); err != nil {
			return err
		}
		symbols = append(symbols, inst.Symbol)
		if inst.Depths > maxDepths {
			maxDepths = inst.Depths
		}
	}

	basePrice := decimal.Zero
	if loaded.Sim.BasePrice != "" {
		p, err := decimal.NewFromString(loaded.Sim.BasePrice)
		if err != nil {
			return err
		}
		basePrice = p
	}
	quotes := sim.NewQuoteGenerator(loaded.Sim.Seed, symbols, maxDepths, basePrice)

	quoteTicker := time.NewTicker(loaded.Sim.QuoteInterval)
	defer quoteTicker.Stop()
	orderTicker := time.NewTicker(orderInterval)
	defer orderTicker.Stop()
	deadline := time.After(duration)

	submitted := 0
loop:
	for {
		select {
		case <-sys.Shutdown():
			break loop
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case now := <-quoteTicker.C:
			for _, u := range quotes.Next(now.UTC()) {
				if err := e.OnMarketDataUpdate(u); err != nil {
					return err
				}
			}
		case <-orderTicker.C:
			if submitted >= orderCount {
				continue
			}
			symbol := symbols[submitted%len(symbols)]
			orderType := "buy_market"
			if submitted%2 == 1 {
				orderType = "sell_market"
			}
			qty := decimal.NewFromInt(int64(100 * (submitted + 1)))
			if _, err := e.SubmitOrder(orderType, symbol, nil, qty); err != nil {
				return err
			}
			submitted++
		}
	}

	session.Close()
	if err := e.WriteSnapshot(); err != nil {
		return err
	}
	if err := e.Close(); err != nil {
		return err
	}

	snap := metrics.Snapshot()
	log.Printf("metrics: updates=%d ticks=%d tob=%d statuses=%v unknown=%d drops=%d report_latency=%+v",
		snap.MarketDataUpdates, snap.CompletedTicks, snap.TopOfBookChanges,
		snap.StatusCounts, snap.UnknownReports, snap.JournalDrops, snap.ReportLatency)
	for _, symbol := range symbols {
		net, err := e.NetPosition(symbol)
		if err != nil {
			continue
		}
		log.Printf("position %s: net=%s open_orders=%d", symbol, net, e.NumOrders(symbol))
	}
	return nil
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Resolve(ops.FileConfig{
			Instruments: []ops.InstrumentConfig{
				{Symbol: "EUR/USD", Depths: 3},
				{Symbol: "XAU/USD", Depths: 1},
			},
		})
	}
	return ops.Load(path)
}

type emptyLogger struct{}

func (emptyLogger) Infof(string, ...interface{})  {}
func (emptyLogger) Debugf(string, ...interface{}) {}
func (emptyLogger) Errorf(string, ...interface{}) {}
