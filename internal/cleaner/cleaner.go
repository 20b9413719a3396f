// Package cleaner converts messy source strings into typed domain values.
// Every parser is pure and total: malformed input yields nil (absence),
// never an error, so row processing can skip-and-continue.
package cleaner

import (
	"log"
	"strconv"
	"strings"
	"time"

	"MarketIngest/internal/model"
)

// ParsePrice strips everything except digits, decimal point and minus.
// "NGN 1,234.56" → 1234.56, "610.00" → 610.0; "N/A", "-", "—" → nil.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" || s == "-" || s == "—" {
		return nil
	}
	var b strings.Builder
	for _, c := range s {
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			b.WriteRune(c)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseVolume handles K/M/B shorthand and thousands separators.
// "1.2M" → 1200000, "345K" → 345000, "12,345" → 12345.
func ParseVolume(s string) *int64 {
	s = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), ",", "")
	if s == "" || s == "N/A" || s == "-" || s == "—" {
		return nil
	}

	var mult float64
	switch {
	case strings.HasSuffix(s, "B"):
		mult = 1e9
	case strings.HasSuffix(s, "M"):
		mult = 1e6
	case strings.HasSuffix(s, "K"):
		mult = 1e3
	default:
		// No suffix — plain integer, drop any stray non-digits.
		var b strings.Builder
		for _, c := range s {
			if c >= '0' && c <= '9' {
				b.WriteRune(c)
			}
		}
		n, err := strconv.ParseInt(b.String(), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
	if err != nil {
		return nil
	}
	n := int64(num * mult)
	return &n
}

// ParsePct strips "%" and thousands separators, keeping the sign.
// "+2.09%" → 2.09, "-0.50%" → -0.50.
func ParsePct(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "N/A" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dateLayouts are tried in order; the first match wins. DD/MM/YYYY is
// deliberately tried before MM/DD/YYYY — ambiguous dates resolve by
// position, not by value.
var dateLayouts = []string{
	"Jan 2, 2006",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2 Jan 2006",
}

// ParseDate tries the supported source date formats in order.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// NormaliseSymbol upper-cases and trims a ticker symbol.
func NormaliseSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalisePair upper-cases a currency pair and strips separators:
// "USD/NGN", "usd ngn" → "USDNGN".
func NormalisePair(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "/", "")
	return strings.ReplaceAll(s, " ", "")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CsvRowToBar converts one equity CSV record into a DailyBar. Returns nil
// when the date is unparsable or the close is missing or non-positive;
// such rows must never reach storage.
func CsvRowToBar(symbol string, row model.RawCsvRow, now time.Time) *model.DailyBar {
	date := ParseDate(deref(row.Date))
	if date == nil {
		return nil
	}
	closePx := ParsePrice(deref(row.Price))
	if closePx == nil {
		return nil
	}
	if *closePx <= 0 {
		log.Printf("[WARN] invalid close %v for %s on %s", *closePx, symbol, date.Format("2006-01-02"))
		return nil
	}
	return &model.DailyBar{
		Symbol:    NormaliseSymbol(symbol),
		Date:      *date,
		Open:      ParsePrice(deref(row.Open)),
		High:      ParsePrice(deref(row.High)),
		Low:       ParsePrice(deref(row.Low)),
		Close:     *closePx,
		ChangePct: ParsePct(deref(row.ChangePct)),
		Volume:    ParseVolume(deref(row.Volume)),
		ScrapedAt: now,
	}
}

// FxCsvRowToRate converts one FX CSV record into an FxRate, with the same
// discard rules as CsvRowToBar.
func FxCsvRowToRate(pair string, row model.RawFxCsvRow, source *string, now time.Time) *model.FxRate {
	date := ParseDate(deref(row.Date))
	if date == nil {
		return nil
	}
	closePx := ParsePrice(deref(row.Price))
	if closePx == nil {
		return nil
	}
	if *closePx <= 0 {
		log.Printf("[WARN] invalid FX rate %v for %s on %s", *closePx, pair, date.Format("2006-01-02"))
		return nil
	}
	return &model.FxRate{
		Pair:      NormalisePair(pair),
		Date:      *date,
		Open:      ParsePrice(deref(row.Open)),
		High:      ParsePrice(deref(row.High)),
		Low:       ParsePrice(deref(row.Low)),
		Close:     *closePx,
		ChangePct: ParsePct(deref(row.ChangePct)),
		Source:    source,
		ScrapedAt: now,
	}
}

// TickerRowToTicker converts one metadata CSV record into a Ticker.
// A row without a symbol is dropped.
func TickerRowToTicker(row model.RawTickerRow, now time.Time) *model.Ticker {
	symbol := strings.TrimSpace(deref(row.Symbol))
	if symbol == "" {
		return nil
	}
	return &model.Ticker{
		Symbol:    NormaliseSymbol(symbol),
		Name:      strings.TrimSpace(deref(row.Name)),
		Sector:    nonEmpty(row.Sector),
		Industry:  nonEmpty(row.Industry),
		Exchange:  nonEmpty(row.Exchange),
		ScrapedAt: now,
	}
}

// HistoricalRowsToBars cleans scraped history rows for one symbol,
// dropping anything without a valid date and positive close.
func HistoricalRowsToBars(symbol string, rows []model.RawHistoricalRow, now time.Time) []model.DailyBar {
	bars := make([]model.DailyBar, 0, len(rows))
	for _, row := range rows {
		date := ParseDate(deref(row.Date))
		if date == nil {
			continue
		}
		closePx := ParsePrice(deref(row.Close))
		if closePx == nil || *closePx <= 0 {
			continue
		}
		bars = append(bars, model.DailyBar{
			Symbol:    NormaliseSymbol(symbol),
			Date:      *date,
			Open:      ParsePrice(deref(row.Open)),
			High:      ParsePrice(deref(row.High)),
			Low:       ParsePrice(deref(row.Low)),
			Close:     *closePx,
			Change:    ParsePrice(deref(row.Change)),
			ChangePct: ParsePct(deref(row.ChangePct)),
			Volume:    ParseVolume(deref(row.Volume)),
			Deals:     ParseVolume(deref(row.Deals)),
			ScrapedAt: now,
		})
	}
	return bars
}

// EquityRowsToTickers cleans listing-page rows into Tickers.
func EquityRowsToTickers(rows []model.RawEquityRow, now time.Time) []model.Ticker {
	tickers := make([]model.Ticker, 0, len(rows))
	for _, row := range rows {
		symbol := strings.TrimSpace(deref(row.Symbol))
		if symbol == "" {
			continue
		}
		tickers = append(tickers, model.Ticker{
			Symbol:    NormaliseSymbol(symbol),
			Name:      strings.TrimSpace(deref(row.Name)),
			Sector:    nonEmpty(row.Sector),
			ScrapedAt: now,
		})
	}
	return tickers
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
