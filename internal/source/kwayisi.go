package source

import (
	"fmt"
	"log"
	"strings"
	"time"

	"MarketIngest/internal/cleaner"
	"MarketIngest/internal/config"
	"MarketIngest/internal/extract"
	"MarketIngest/internal/fetch"
	"MarketIngest/internal/model"
)

// maxListingPages guards against a pagination heuristic that never
// reports a last page.
const maxListingPages = 15

// textGetter is the slice of fetch.Client the scraper needs; tests swap
// in canned responses.
type textGetter interface {
	Get(url string) (string, error)
}

// KwayisiSource scrapes the afx.kwayisi.org exchange pages: a paginated
// listing index for the ticker universe and one HTML page per ticker for
// recent bars.
type KwayisiSource struct {
	client  textGetter
	baseURL string
}

// NewKwayisiSource creates a scraper-backed DataSource from config.
func NewKwayisiSource(cfg config.Scraper) *KwayisiSource {
	return &KwayisiSource{
		client: fetch.NewClient(fetch.Options{
			Timeout:      time.Duration(cfg.TimeoutSecs) * time.Second,
			RequestDelay: time.Duration(cfg.RequestDelayMs) * time.Millisecond,
			Jitter:       time.Duration(cfg.JitterMs) * time.Millisecond,
			MaxRetries:   cfg.MaxRetries,
			UserAgent:    cfg.UserAgent,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (s *KwayisiSource) Name() string { return "kwayisi" }

func (s *KwayisiSource) listingURL(page int) string {
	if page <= 1 {
		return s.baseURL + "/"
	}
	return fmt.Sprintf("%s/?page=%d", s.baseURL, page)
}

// tickerURL returns the per-ticker page, e.g. DANGCEM → /dangcem.html.
func (s *KwayisiSource) tickerURL(symbol string) string {
	return fmt.Sprintf("%s/%s.html", s.baseURL, strings.ToLower(symbol))
}

// FetchTickerList walks the paginated listing index and returns the
// cleaned ticker universe.
func (s *KwayisiSource) FetchTickerList() ([]model.Ticker, error) {
	var all []model.Ticker

	for page := 1; ; page++ {
		url := s.listingURL(page)
		log.Printf("[INFO] fetching listing page %d (%s)", page, url)

		html, err := s.client.Get(url)
		if err != nil {
			return nil, fmt.Errorf("fetch listing page %d: %w", page, err)
		}

		rows, _ := extract.ListingPage(html)
		if len(rows) == 0 {
			break
		}

		tickers := cleaner.EquityRowsToTickers(rows, time.Now().UTC())
		log.Printf("[INFO] page %d: %d tickers", page, len(tickers))
		all = append(all, tickers...)

		if !extract.HasNextPage(html) {
			break
		}
		if page >= maxListingPages {
			log.Printf("[WARN] reached listing page limit (%d), stopping", maxListingPages)
			break
		}
	}

	log.Printf("[INFO] total tickers discovered: %d", len(all))
	return all, nil
}

// FetchRecentBars scrapes one ticker page and returns its cleaned recent
// bars. An empty page yields zero bars, not an error.
func (s *KwayisiSource) FetchRecentBars(symbol string) ([]model.DailyBar, error) {
	url := s.tickerURL(symbol)

	html, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker page for %s: %w", symbol, err)
	}

	rows := extract.HistoryRows(html)
	if len(rows) == 0 {
		log.Printf("[WARN] %s: no rows found on ticker page", symbol)
	}
	bars := cleaner.HistoricalRowsToBars(symbol, rows, time.Now().UTC())

	// Metadata rides along for enrichment; only logged for now.
	meta := extract.TickerMeta(html)
	if meta.Sector != nil {
		log.Printf("[INFO] %s: %d bars, sector %s", symbol, len(bars), *meta.Sector)
	}

	return bars, nil
}
