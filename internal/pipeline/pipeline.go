// Package pipeline drives a full ingestion run: refresh the ticker
// universe, fan out bounded-concurrency per-symbol fetch+store tasks,
// and aggregate the outcome. A single symbol failing never aborts the
// run; partial failure is steady-state, not an escalation.
package pipeline

import (
	"fmt"
	"log"
	"sync"

	"MarketIngest/internal/loader"
	"MarketIngest/internal/model"
	"MarketIngest/internal/source"
)

// Store is the slice of the repository the pipeline needs.
type Store interface {
	UpsertTickers(tickers []model.Ticker) (int, error)
	UpsertDailyBars(bars []model.DailyBar) (int, error)
	UpsertFxRates(rates []model.FxRate) (int, error)
	ListSymbols() ([]string, error)
	BeginScrapeRun() (int64, error)
	FinishScrapeRun(runID int64, tickers, bars int, errMsg string) error
}

// Stats summarizes one ingestion run.
type Stats struct {
	TickersProcessed int
	BarsInserted     int
	Errors           int
}

// Pipeline coordinates one data source and one store.
type Pipeline struct {
	source      source.DataSource
	store       Store
	concurrency int
}

// New creates a Pipeline. Concurrency bounds the number of in-flight
// per-symbol tasks.
func New(src source.DataSource, store Store, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{source: src, store: store, concurrency: concurrency}
}

type taskResult struct {
	symbol string
	bars   int
	err    error
}

// Run executes a full refresh-and-fetch cycle and reports totals. The
// audit record is best-effort: failing to open one downgrades to a null
// run id rather than aborting ingestion.
func (p *Pipeline) Run() (Stats, error) {
	runID, err := p.store.BeginScrapeRun()
	if err != nil {
		log.Printf("[WARN] could not open scrape run record: %v", err)
		runID = 0
	}

	// Phase 1: refresh the ticker universe. Without a symbol set there
	// is nothing to fan out over, so this failure is terminal.
	tickers, err := p.source.FetchTickerList()
	if err != nil {
		p.finishRun(runID, Stats{Errors: 1}, fmt.Sprintf("ticker refresh failed: %v", err))
		return Stats{}, fmt.Errorf("refresh tickers: %w", err)
	}
	if _, err := p.store.UpsertTickers(tickers); err != nil {
		p.finishRun(runID, Stats{Errors: 1}, fmt.Sprintf("ticker upsert failed: %v", err))
		return Stats{}, fmt.Errorf("upsert tickers: %w", err)
	}
	symbols, err := p.store.ListSymbols()
	if err != nil {
		p.finishRun(runID, Stats{Errors: 1}, fmt.Sprintf("list symbols failed: %v", err))
		return Stats{}, fmt.Errorf("list symbols: %w", err)
	}
	log.Printf("[INFO] ticker refresh done: %d fetched, %d symbols in store", len(tickers), len(symbols))

	// Phase 2: bounded fan-out, one task per symbol.
	stats := p.fanOut(symbols)

	// Phase 3: aggregate and record.
	var errMsg string
	if stats.Errors > 0 {
		errMsg = fmt.Sprintf("%d of %d symbols failed", stats.Errors, len(symbols))
	}
	p.finishRun(runID, stats, errMsg)

	log.Printf("[INFO] run complete: %d tickers, %d bars, %d errors",
		stats.TickersProcessed, stats.BarsInserted, stats.Errors)
	return stats, nil
}

// fanOut launches one fetch+clean+store task per symbol, gated by a
// counting permit pool, and gathers all results before returning.
func (p *Pipeline) fanOut(symbols []string) Stats {
	permits := make(chan struct{}, p.concurrency)
	results := make(chan taskResult, len(symbols))

	var wg sync.WaitGroup
	wg.Add(len(symbols))
	for _, symbol := range symbols {
		symbol := symbol
		go func() {
			defer wg.Done()
			permits <- struct{}{}
			defer func() { <-permits }()
			results <- p.runTask(symbol)
		}()
	}
	wg.Wait()
	close(results)

	var stats Stats
	for r := range results {
		if r.err != nil {
			stats.Errors++
			log.Printf("[ERROR] %s: %v", r.symbol, r.err)
			continue
		}
		stats.TickersProcessed++
		stats.BarsInserted += r.bars
	}
	return stats
}

// runTask fetches, cleans and stores recent bars for one symbol. A panic
// inside the task is counted like any other task error so a misbehaving
// source cannot take the run down.
func (p *Pipeline) runTask(symbol string) (res taskResult) {
	res.symbol = symbol
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("task panic: %v", r)
		}
	}()

	bars, err := p.source.FetchRecentBars(symbol)
	if err != nil {
		res.err = fmt.Errorf("fetch bars: %w", err)
		return res
	}
	n, err := p.store.UpsertDailyBars(bars)
	if err != nil {
		res.err = fmt.Errorf("store bars: %w", err)
		return res
	}
	res.bars = n
	return res
}

func (p *Pipeline) finishRun(runID int64, stats Stats, errMsg string) {
	if runID == 0 {
		return
	}
	if err := p.store.FinishScrapeRun(runID, stats.TickersProcessed, stats.BarsInserted, errMsg); err != nil {
		log.Printf("[WARN] could not finalize scrape run %d: %v", runID, err)
	}
}

// LoadCSVDir bulk-loads every CSV under dir, classifying FX files by the
// filename heuristic and routing everything else as equities. One bad
// file is one counted error; the batch continues.
func (p *Pipeline) LoadCSVDir(dir string) (Stats, error) {
	files, err := loader.DiscoverCSVFiles(dir)
	if err != nil {
		return Stats{}, err
	}
	log.Printf("[INFO] found %d CSV files in %s", len(files), dir)

	var stats Stats
	for _, path := range files {
		if loader.IsFxFile(path) {
			_, rates, err := loader.LoadFxCSV(path, nil)
			if err == nil {
				_, err = p.store.UpsertFxRates(rates)
			}
			if err != nil {
				log.Printf("[ERROR] loading %s: %v", path, err)
				stats.Errors++
				continue
			}
			stats.BarsInserted += len(rates)
			continue
		}

		_, bars, err := loader.LoadEquityCSV(path)
		if err == nil {
			_, err = p.store.UpsertDailyBars(bars)
		}
		if err != nil {
			log.Printf("[ERROR] loading %s: %v", path, err)
			stats.Errors++
			continue
		}
		stats.BarsInserted += len(bars)
	}

	log.Printf("[INFO] CSV load done: %d rows, %d errors", stats.BarsInserted, stats.Errors)
	return stats, nil
}

// LoadTickerFile loads a ticker metadata CSV and upserts it.
func (p *Pipeline) LoadTickerFile(path string) (int, error) {
	tickers, err := loader.LoadTickerCSV(path)
	if err != nil {
		return 0, err
	}
	n, err := p.store.UpsertTickers(tickers)
	if err != nil {
		return 0, err
	}
	return n, nil
}
