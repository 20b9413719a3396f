package source

import "MarketIngest/internal/model"

// DataSource is the swappable capability interface consumed by the
// pipeline. Any implementation (HTML scraper, CSV-backed source, mock)
// satisfying these two operations is usable.
type DataSource interface {
	FetchTickerList() ([]model.Ticker, error)
	FetchRecentBars(symbol string) ([]model.DailyBar, error)
	Name() string
}
