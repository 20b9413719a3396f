package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"MarketIngest/internal/model"
)

// tableCandidates are tried in order when hunting for the price-history
// table. The site uses id="t" consistently; the rest are fallbacks for
// layout drift.
var tableCandidates = []string{"table#t", "table.prices", "table"}

// HistoryRows extracts raw price-history rows from a ticker page. It
// returns the first table candidate yielding at least one row, or nil
// when nothing on the page looks like price history.
func HistoryRows(html string) []model.RawHistoricalRow {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	for _, sel := range tableCandidates {
		table := doc.Find(sel).First()
		if table.Length() == 0 {
			continue
		}

		var headers []string
		table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
		})

		hasDate := anyContains(headers, "date")
		hasPrice := anyContains(headers, "price") || anyContains(headers, "close") || anyContains(headers, "last")

		// A generic table without recognizable headers is probably
		// navigation or layout — skip it.
		if !hasDate && !hasPrice && sel == "table" {
			continue
		}

		rows := rowsByHeaders(table, headers)
		if len(rows) > 0 {
			return rows
		}
	}

	return positionalRows(doc)
}

// rowsByHeaders maps cells by column indices derived from header text,
// falling back to Date=0, Close=1 when headers are missing.
func rowsByHeaders(table *goquery.Selection, headers []string) []model.RawHistoricalRow {
	dateIdx := indexContaining(headers, "date")
	if dateIdx < 0 {
		dateIdx = 0
	}
	closeIdx := firstIndex(headers, "close", "price", "last")
	if closeIdx < 0 {
		closeIdx = 1
	}
	changeIdx := firstIndex(headers, "change", "chg")
	volIdx := firstIndex(headers, "volume", "vol")
	dealsIdx := indexContaining(headers, "deal")

	var rows []model.RawHistoricalRow
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		allEmpty := true
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			text := strings.TrimSpace(td.Text())
			if text != "" {
				allEmpty = false
			}
			cells = append(cells, text)
		})
		if len(cells) == 0 || allEmpty {
			return
		}
		// Ticker pages carry Date | Close | Change | Change% | Volume |
		// Deals; open/high/low never appear on the free pages.
		rows = append(rows, model.RawHistoricalRow{
			Date:   cellAt(cells, dateIdx),
			Close:  cellAt(cells, closeIdx),
			Change: cellAt(cells, changeIdx),
			Volume: cellAt(cells, volIdx),
			Deals:  cellAt(cells, dealsIdx),
		})
	})
	return rows
}

// positionalRows is the last-resort heuristic for headerless tables:
// assume Date | Open | High | Low | Close | Change | Volume and gate each
// row on the first cell looking like a date.
func positionalRows(doc *goquery.Document) []model.RawHistoricalRow {
	var rows []model.RawHistoricalRow
	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) < 2 {
			return
		}
		if !looksLikeDate(cells[0]) {
			return
		}
		rows = append(rows, model.RawHistoricalRow{
			Date:   cellAt(cells, 0),
			Open:   cellAt(cells, 1),
			High:   cellAt(cells, 2),
			Low:    cellAt(cells, 3),
			Close:  cellAt(cells, 4),
			Change: cellAt(cells, 5),
			Volume: cellAt(cells, 6),
		})
	})
	return rows
}

func looksLikeDate(s string) bool {
	return strings.Contains(s, "-") || strings.Contains(s, "/") || len(s) >= 8
}

func anyContains(headers []string, sub string) bool {
	return indexContaining(headers, sub) >= 0
}

func indexContaining(headers []string, sub string) int {
	for i, h := range headers {
		if strings.Contains(h, sub) {
			return i
		}
	}
	return -1
}

func firstIndex(headers []string, subs ...string) int {
	for i, h := range headers {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return i
			}
		}
	}
	return -1
}
