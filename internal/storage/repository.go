// Package storage persists normalized market data to SQLite with
// idempotent merge-upsert semantics: re-ingesting the same rows is a
// no-op, and a later richer ingest fills gaps without destroying fields
// an earlier ingest already knew.
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"MarketIngest/internal/model"
)

const dateLayout = "2006-01-02"

// Repository is the single durable store for tickers, bars, FX rates and
// the scrape-run audit log.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs
// migrations. Parent directories are created as needed.
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return open(path)
}

// OpenInMemory opens a throwaway in-memory database, used by tests.
func OpenInMemory() (*Repository, error) {
	return open(":memory:")
}

func open(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer connection: SQLite serializes writes anyway, and a
	// single conn keeps :memory: databases coherent across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &Repository{db: db}
	if err := r.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// migrations are additive-only and idempotent; each version applies its
// statements then records itself in schema_version. Running them twice
// is a no-op, and they may be run standalone without loading any data.
var migrations = []struct {
	version int
	stmts   []string
}{
	{1, []string{
		`CREATE TABLE IF NOT EXISTS tickers (
			symbol     TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			sector     TEXT,
			industry   TEXT,
			exchange   TEXT,
			isin       TEXT,
			board      TEXT,
			scraped_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol     TEXT NOT NULL,
			date       TEXT NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL NOT NULL,
			change     REAL,
			change_pct REAL,
			volume     INTEGER,
			deals      INTEGER,
			scraped_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE TABLE IF NOT EXISTS fx_rates (
			pair       TEXT NOT NULL,
			date       TEXT NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL NOT NULL,
			change_pct REAL,
			source     TEXT,
			scraped_at INTEGER NOT NULL,
			PRIMARY KEY (pair, date)
		)`,
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER,
			status            TEXT NOT NULL DEFAULT 'running',
			tickers_processed INTEGER DEFAULT 0,
			bars_inserted     INTEGER DEFAULT 0,
			error_msg         TEXT
		)`,
	}},
	{2, []string{
		`CREATE INDEX IF NOT EXISTS idx_bars_date   ON daily_bars (date)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_symbol ON daily_bars (symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_fx_date     ON fx_rates (date)`,
		`CREATE INDEX IF NOT EXISTS idx_fx_pair     ON fx_rates (pair)`,
	}},
}

// Migrate applies any pending schema migrations.
func (r *Repository) Migrate() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	for _, m := range migrations {
		for _, s := range m.stmts {
			if _, err := r.db.Exec(s); err != nil {
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := r.db.Exec(
			"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
			m.version, time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// UpsertTickers inserts or merges tickers. On conflict the name is
// overwritten only when the incoming one is non-empty; classification
// fields keep the existing value when the incoming one is absent.
func (r *Repository) UpsertTickers(tickers []model.Ticker) (int, error) {
	if len(tickers) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO tickers (symbol, name, sector, industry, exchange, isin, board, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name       = CASE WHEN excluded.name <> '' THEN excluded.name ELSE tickers.name END,
			sector     = COALESCE(excluded.sector,   tickers.sector),
			industry   = COALESCE(excluded.industry, tickers.industry),
			exchange   = COALESCE(excluded.exchange, tickers.exchange),
			isin       = COALESCE(excluded.isin,     tickers.isin),
			board      = COALESCE(excluded.board,    tickers.board),
			scraped_at = excluded.scraped_at`

	for _, t := range tickers {
		if _, err := tx.Exec(q, t.Symbol, t.Name, t.Sector, t.Industry, t.Exchange, t.ISIN, t.Board, t.ScrapedAt.Unix()); err != nil {
			return 0, fmt.Errorf("upsert ticker %s: %w", t.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tickers: %w", err)
	}
	return len(tickers), nil
}

// UpsertDailyBars inserts or merges bars in one transaction. The close
// and capture timestamp are always overwritten by the incoming row;
// every other field keeps the stored value unless the incoming one is
// present. Safe to re-run on the same data.
func (r *Repository) UpsertDailyBars(bars []model.DailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO daily_bars
			(symbol, date, open, high, low, close, change, change_pct, volume, deals, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open       = COALESCE(excluded.open,       daily_bars.open),
			high       = COALESCE(excluded.high,       daily_bars.high),
			low        = COALESCE(excluded.low,        daily_bars.low),
			close      = excluded.close,
			change     = COALESCE(excluded.change,     daily_bars.change),
			change_pct = COALESCE(excluded.change_pct, daily_bars.change_pct),
			volume     = COALESCE(excluded.volume,     daily_bars.volume),
			deals      = COALESCE(excluded.deals,      daily_bars.deals),
			scraped_at = excluded.scraped_at`

	for _, b := range bars {
		if _, err := tx.Exec(q,
			b.Symbol, b.Date.Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, b.Change, b.ChangePct,
			b.Volume, b.Deals, b.ScrapedAt.Unix(),
		); err != nil {
			return 0, fmt.Errorf("upsert bar %s %s: %w", b.Symbol, b.Date.Format(dateLayout), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bars: %w", err)
	}
	return len(bars), nil
}

// UpsertFxRates inserts or merges FX rates with the same precedence rules
// as daily bars.
func (r *Repository) UpsertFxRates(rates []model.FxRate) (int, error) {
	if len(rates) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO fx_rates
			(pair, date, open, high, low, close, change_pct, source, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (pair, date) DO UPDATE SET
			open       = COALESCE(excluded.open,       fx_rates.open),
			high       = COALESCE(excluded.high,       fx_rates.high),
			low        = COALESCE(excluded.low,        fx_rates.low),
			close      = excluded.close,
			change_pct = COALESCE(excluded.change_pct, fx_rates.change_pct),
			source     = COALESCE(excluded.source,     fx_rates.source),
			scraped_at = excluded.scraped_at`

	for _, fx := range rates {
		if _, err := tx.Exec(q,
			fx.Pair, fx.Date.Format(dateLayout),
			fx.Open, fx.High, fx.Low, fx.Close, fx.ChangePct,
			fx.Source, fx.ScrapedAt.Unix(),
		); err != nil {
			return 0, fmt.Errorf("upsert fx %s %s: %w", fx.Pair, fx.Date.Format(dateLayout), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit fx rates: %w", err)
	}
	return len(rates), nil
}

// ListSymbols returns all stored ticker symbols, sorted.
func (r *Repository) ListSymbols() ([]string, error) {
	rows, err := r.db.Query("SELECT symbol FROM tickers ORDER BY symbol")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var syms []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		syms = append(syms, s)
	}
	return syms, rows.Err()
}

// LatestDateForSymbol returns the most recent stored bar date for a
// symbol, or nil when none exist.
func (r *Repository) LatestDateForSymbol(symbol string) (*time.Time, error) {
	var s sql.NullString
	if err := r.db.QueryRow("SELECT MAX(date) FROM daily_bars WHERE symbol = ?", symbol).Scan(&s); err != nil {
		return nil, err
	}
	if !s.Valid {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", s.String, err)
	}
	return &d, nil
}

func (r *Repository) BarCount() (int64, error)    { return r.count("daily_bars") }
func (r *Repository) TickerCount() (int64, error) { return r.count("tickers") }
func (r *Repository) FxCount() (int64, error)     { return r.count("fx_rates") }

func (r *Repository) count(table string) (int64, error) {
	var n int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

// DateRange returns the min and max stored bar dates, nil when empty.
func (r *Repository) DateRange() (*time.Time, *time.Time, error) {
	return r.dateRange("daily_bars")
}

// FxDateRange returns the min and max stored FX dates, nil when empty.
func (r *Repository) FxDateRange() (*time.Time, *time.Time, error) {
	return r.dateRange("fx_rates")
}

func (r *Repository) dateRange(table string) (*time.Time, *time.Time, error) {
	var lo, hi sql.NullString
	if err := r.db.QueryRow("SELECT MIN(date), MAX(date) FROM " + table).Scan(&lo, &hi); err != nil {
		return nil, nil, err
	}
	parse := func(s sql.NullString) *time.Time {
		if !s.Valid {
			return nil
		}
		d, err := time.Parse(dateLayout, s.String)
		if err != nil {
			return nil
		}
		return &d
	}
	return parse(lo), parse(hi), nil
}

// BeginScrapeRun opens an audit record and returns its id.
func (r *Repository) BeginScrapeRun() (int64, error) {
	res, err := r.db.Exec(
		"INSERT INTO scrape_runs (started_at, status) VALUES (?, ?)",
		time.Now().Unix(), model.RunStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("begin scrape run: %w", err)
	}
	return res.LastInsertId()
}

// FinishScrapeRun finalizes an audit record with counts and an optional
// error summary. Status is error whenever errMsg is non-empty.
func (r *Repository) FinishScrapeRun(runID int64, tickers, bars int, errMsg string) error {
	status := model.RunStatusSuccess
	var msg *string
	if errMsg != "" {
		status = model.RunStatusError
		msg = &errMsg
	}
	_, err := r.db.Exec(
		`UPDATE scrape_runs SET
			finished_at = ?, status = ?,
			tickers_processed = ?, bars_inserted = ?, error_msg = ?
		WHERE id = ?`,
		time.Now().Unix(), status, tickers, bars, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("finish scrape run %d: %w", runID, err)
	}
	return nil
}

// GetScrapeRun loads one audit record.
func (r *Repository) GetScrapeRun(runID int64) (*model.ScrapeRun, error) {
	var (
		run      model.ScrapeRun
		started  int64
		finished sql.NullInt64
		errMsg   sql.NullString
	)
	err := r.db.QueryRow(
		`SELECT id, started_at, finished_at, status, tickers_processed, bars_inserted, error_msg
		 FROM scrape_runs WHERE id = ?`, runID,
	).Scan(&run.ID, &started, &finished, &run.Status, &run.TickersProcessed, &run.BarsInserted, &errMsg)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		run.FinishedAt = &t
	}
	if errMsg.Valid {
		run.ErrorMsg = &errMsg.String
	}
	return &run, nil
}

// GetDailyBar loads one bar by key; used by tests and spot checks.
func (r *Repository) GetDailyBar(symbol string, date time.Time) (*model.DailyBar, error) {
	var b model.DailyBar
	var dateStr string
	var scrapedAt int64
	var open, high, low, change, changePct sql.NullFloat64
	var volume, deals sql.NullInt64
	err := r.db.QueryRow(
		`SELECT symbol, date, open, high, low, close, change, change_pct, volume, deals, scraped_at
		 FROM daily_bars WHERE symbol = ? AND date = ?`,
		symbol, date.Format(dateLayout),
	).Scan(&b.Symbol, &dateStr, &open, &high, &low, &b.Close, &change, &changePct, &volume, &deals, &scrapedAt)
	if err != nil {
		return nil, err
	}
	b.Date, _ = time.Parse(dateLayout, dateStr)
	b.Open = nullFloat(open)
	b.High = nullFloat(high)
	b.Low = nullFloat(low)
	b.Change = nullFloat(change)
	b.ChangePct = nullFloat(changePct)
	b.Volume = nullInt(volume)
	b.Deals = nullInt(deals)
	b.ScrapedAt = time.Unix(scrapedAt, 0).UTC()
	return &b, nil
}

// GetFxRate loads one FX rate by key.
func (r *Repository) GetFxRate(pair string, date time.Time) (*model.FxRate, error) {
	var fx model.FxRate
	var dateStr string
	var scrapedAt int64
	var open, high, low, changePct sql.NullFloat64
	var source sql.NullString
	err := r.db.QueryRow(
		`SELECT pair, date, open, high, low, close, change_pct, source, scraped_at
		 FROM fx_rates WHERE pair = ? AND date = ?`,
		pair, date.Format(dateLayout),
	).Scan(&fx.Pair, &dateStr, &open, &high, &low, &fx.Close, &changePct, &source, &scrapedAt)
	if err != nil {
		return nil, err
	}
	fx.Date, _ = time.Parse(dateLayout, dateStr)
	fx.Open = nullFloat(open)
	fx.High = nullFloat(high)
	fx.Low = nullFloat(low)
	fx.ChangePct = nullFloat(changePct)
	if source.Valid {
		fx.Source = &source.String
	}
	fx.ScrapedAt = time.Unix(scrapedAt, 0).UTC()
	return &fx, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	log.Println("[INFO] closing repository")
	return r.db.Close()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
