package model

import "time"

// Ticker is the identifying metadata record for a listed instrument.
type Ticker struct {
	Symbol    string
	Name      string
	Sector    *string
	Industry  *string
	Exchange  *string
	ISIN      *string
	Board     *string
	ScrapedAt time.Time
}

// DailyBar is one day's price observation for a symbol.
// Close is always present; everything else depends on the source
// (the free ticker pages never carry open/high/low).
type DailyBar struct {
	Symbol    string
	Date      time.Time // date component only, UTC midnight
	Open      *float64
	High      *float64
	Low       *float64
	Close     float64
	Change    *float64
	ChangePct *float64
	Volume    *int64
	Deals     *int64
	ScrapedAt time.Time
}

// FxRate is one day's exchange rate for a currency pair, e.g. "USDNGN".
type FxRate struct {
	Pair      string
	Date      time.Time
	Open      *float64
	High      *float64
	Low       *float64
	Close     float64
	ChangePct *float64
	Source    *string
	ScrapedAt time.Time
}

// Run statuses recorded in the scrape_runs audit log.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// ScrapeRun is an audit record for one end-to-end pipeline run.
// Immutable once finished.
type ScrapeRun struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           string
	TickersProcessed int
	BarsInserted     int
	ErrorMsg         *string
}
