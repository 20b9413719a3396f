// Package loader bulk-imports historical CSV files (investing.com
// export format). The network and HTML layers are bypassed: CSV records
// go through the same cleaner as scraped rows.
package loader

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"MarketIngest/internal/cleaner"
	"MarketIngest/internal/model"
)

// fxPairHints classify a filename as FX when its stem contains one of
// these currency codes. A heuristic with known false-positive potential
// (a ticker symbol could contain "USD"); kept deliberately simple since
// the upstream naming convention is not richer than this.
var fxPairHints = []string{"USD", "EUR", "GBP"}

// SymbolFromFilename derives the instrument symbol from a CSV filename
// stem: the text before the first '_', space or '.', upper-cased.
// "DANGCEM_history.csv" → "DANGCEM".
func SymbolFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.FieldsFunc(stem, func(c rune) bool {
		return c == '_' || c == ' ' || c == '.'
	})
	if len(parts) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(parts[0]))
}

// IsFxFile reports whether a filename looks like an FX history export.
func IsFxFile(path string) bool {
	stem := strings.ToUpper(filepath.Base(path))
	for _, hint := range fxPairHints {
		if strings.Contains(stem, hint) {
			return true
		}
	}
	return false
}

// DiscoverCSVFiles lists the .csv files directly under dir. A missing
// directory yields an empty list, not an error.
func DiscoverCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) > 0 {
		records = records[1:] // header row is present but not column-name-driven
	}
	return records, nil
}

func field(record []string, i int) *string {
	if i >= len(record) {
		return nil
	}
	s := record[i]
	return &s
}

// LoadEquityCSV parses one equity history CSV
// (Date, Price, Open, High, Low, Volume, Change%) into bars. Rows that
// fail cleaning are dropped; the rest of the file still loads.
func LoadEquityCSV(path string) (string, []model.DailyBar, error) {
	symbol := SymbolFromFilename(path)
	if symbol == "" {
		return "", nil, fmt.Errorf("no symbol in filename %s", path)
	}

	records, err := readRecords(path)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	bars := make([]model.DailyBar, 0, len(records))
	for _, rec := range records {
		raw := model.RawCsvRow{
			Date:      field(rec, 0),
			Price:     field(rec, 1),
			Open:      field(rec, 2),
			High:      field(rec, 3),
			Low:       field(rec, 4),
			Volume:    field(rec, 5),
			ChangePct: field(rec, 6),
		}
		if bar := cleaner.CsvRowToBar(symbol, raw, now); bar != nil {
			bars = append(bars, *bar)
		}
	}

	log.Printf("[INFO] %s: %d bars loaded from %s", symbol, len(bars), path)
	return symbol, bars, nil
}

// LoadFxCSV parses one FX history CSV
// (Date, Price, Open, High, Low, Change% — no volume) into rates.
func LoadFxCSV(path string, source *string) (string, []model.FxRate, error) {
	pair := SymbolFromFilename(path)
	if pair == "" {
		return "", nil, fmt.Errorf("no pair in filename %s", path)
	}

	records, err := readRecords(path)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	rates := make([]model.FxRate, 0, len(records))
	for _, rec := range records {
		raw := model.RawFxCsvRow{
			Date:      field(rec, 0),
			Price:     field(rec, 1),
			Open:      field(rec, 2),
			High:      field(rec, 3),
			Low:       field(rec, 4),
			ChangePct: field(rec, 5),
		}
		if rate := cleaner.FxCsvRowToRate(pair, raw, source, now); rate != nil {
			rates = append(rates, *rate)
		}
	}

	log.Printf("[INFO] %s: %d rates loaded from %s", pair, len(rates), path)
	return cleaner.NormalisePair(pair), rates, nil
}

// LoadTickerCSV parses a ticker metadata CSV
// (symbol, name, sector, industry, exchange).
func LoadTickerCSV(path string) ([]model.Ticker, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tickers := make([]model.Ticker, 0, len(records))
	for _, rec := range records {
		raw := model.RawTickerRow{
			Symbol:   field(rec, 0),
			Name:     field(rec, 1),
			Sector:   field(rec, 2),
			Industry: field(rec, 3),
			Exchange: field(rec, 4),
		}
		if tk := cleaner.TickerRowToTicker(raw, now); tk != nil {
			tickers = append(tickers, *tk)
		}
	}

	log.Printf("[INFO] %d tickers loaded from %s", len(tickers), path)
	return tickers, nil
}
