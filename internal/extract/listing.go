// Package extract locates tabular market data in scraped HTML. All
// extraction degrades gracefully against layout drift: malformed or
// unrecognized markup yields fewer rows (or none), never an error.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"MarketIngest/internal/model"
)

// ListingPage returns raw equity rows and ticker-page hrefs from the
// exchange listing index. Cells map positionally: symbol, name, price,
// change, change%, volume, deals. Rows with fewer than two cells are
// skipped.
func ListingPage(html string) ([]model.RawEquityRow, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}

	var rows []model.RawEquityRow
	var hrefs []string

	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) < 2 {
			return
		}

		if href, ok := tr.Find("td").First().Find("a").First().Attr("href"); ok {
			hrefs = append(hrefs, href)
		}

		symbol := strings.ToUpper(strings.TrimSpace(cells[0]))
		rows = append(rows, model.RawEquityRow{
			Symbol:    &symbol,
			Name:      cellAt(cells, 1),
			Price:     cellAt(cells, 2),
			Change:    cellAt(cells, 3),
			ChangePct: cellAt(cells, 4),
			Volume:    cellAt(cells, 5),
			Deals:     cellAt(cells, 6),
		})
	})

	return rows, hrefs
}

// HasNextPage reports whether the listing markup advertises another page.
// A cheap string heuristic; the pipeline caps pagination regardless.
func HasNextPage(html string) bool {
	return (strings.Contains(html, "?page=") && strings.Contains(html, "Next")) ||
		strings.Contains(html, "next") ||
		strings.Contains(html, "›")
}

func cellAt(cells []string, i int) *string {
	if i < 0 || i >= len(cells) {
		return nil
	}
	s := cells[i]
	return &s
}
