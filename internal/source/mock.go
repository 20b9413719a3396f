package source

import (
	"time"

	"MarketIngest/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Tickers    []model.Ticker
	Bars       map[string][]model.DailyBar
	TickersErr error
	BarsErr    map[string]error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchTickerList() ([]model.Ticker, error) {
	if m.TickersErr != nil {
		return nil, m.TickersErr
	}
	return m.Tickers, nil
}

func (m *MockSource) FetchRecentBars(symbol string) ([]model.DailyBar, error) {
	if err, ok := m.BarsErr[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(symbol, 3), nil
}

func generateMockBars(symbol string, count int) []model.DailyBar {
	bars := make([]model.DailyBar, count)
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		p := 100 * (1 + float64(i)*0.01)
		d := now.AddDate(0, 0, -(count - i))
		bars[i] = model.DailyBar{
			Symbol:    symbol,
			Date:      time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Close:     p,
			ScrapedAt: now,
		}
	}
	return bars
}
