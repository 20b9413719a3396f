package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"MarketIngest/internal/model"
)

// TickerMeta reads company metadata opportunistically from a ticker
// detail page: the name from the first plausible heading, and
// isin/sector/board from definition-list key/value pairs matched by
// case-insensitive substring. Missing fields stay nil.
func TickerMeta(html string) model.TickerMeta {
	var meta model.TickerMeta

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return meta
	}

	for _, sel := range []string{"h1", "h2", ".company-name", "title"} {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" && !strings.Contains(strings.ToLower(text), "kwayisi") {
			meta.Name = &text
			break
		}
	}

	var keys, values []string
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		keys = append(keys, strings.ToLower(strings.TrimSpace(dt.Text())))
	})
	doc.Find("dd").Each(func(_ int, dd *goquery.Selection) {
		values = append(values, strings.TrimSpace(dd.Text()))
	})

	for i, key := range keys {
		if i >= len(values) {
			break
		}
		value := values[i]
		switch {
		case strings.Contains(key, "isin"):
			meta.ISIN = &value
		case strings.Contains(key, "sector") || strings.Contains(key, "industry"):
			meta.Sector = &value
		case strings.Contains(key, "board") || strings.Contains(key, "segment"):
			meta.Board = &value
		}
	}

	return meta
}
