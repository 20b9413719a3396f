package extract

import (
	"testing"
)

const listingHTML = `
<html><body>
<table>
<thead><tr><th>Ticker</th><th>Name</th><th>Price</th><th>Change</th><th>%Chg</th><th>Volume</th><th>Deals</th></tr></thead>
<tbody>
<tr><td><a href="/ngx/dangcem.html">dangcem</a></td><td>Dangote Cement</td><td>610.00</td><td>+12.50</td><td>+2.09%</td><td>1.2M</td><td>245</td></tr>
<tr><td><a href="/ngx/gtco.html">GTCO</a></td><td>Guaranty Trust</td><td>45.20</td><td>-0.30</td><td>-0.66%</td><td>8.4M</td><td>512</td></tr>
<tr><td>orphan</td></tr>
</tbody>
</table>
<a href="/ngx/?page=2">Next</a>
</body></html>`

func TestListingPage(t *testing.T) {
	rows, hrefs := ListingPage(listingHTML)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (single-cell row skipped)", len(rows))
	}
	if *rows[0].Symbol != "DANGCEM" {
		t.Errorf("symbol = %q, want DANGCEM", *rows[0].Symbol)
	}
	if *rows[0].Name != "Dangote Cement" {
		t.Errorf("name = %q", *rows[0].Name)
	}
	if *rows[0].Price != "610.00" {
		t.Errorf("price = %q", *rows[0].Price)
	}
	if *rows[0].Volume != "1.2M" {
		t.Errorf("volume = %q", *rows[0].Volume)
	}
	if *rows[0].Deals != "245" {
		t.Errorf("deals = %q", *rows[0].Deals)
	}
	if len(hrefs) != 2 || hrefs[0] != "/ngx/dangcem.html" {
		t.Errorf("hrefs = %v", hrefs)
	}
}

func TestListingPage_MalformedHTML(t *testing.T) {
	rows, _ := ListingPage("<table><tbody><tr><td>X</td>")
	if len(rows) != 0 {
		t.Errorf("expected no rows from a single-cell fragment, got %d", len(rows))
	}
	rows, _ = ListingPage("not html at all")
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestHasNextPage(t *testing.T) {
	if !HasNextPage(listingHTML) {
		t.Error("expected next page")
	}
	if HasNextPage("<html><body>Last page</body></html>") {
		t.Error("expected no next page")
	}
}

const historyWithHeaders = `
<html><body>
<table id="t">
<thead><tr><th>Date</th><th>Close</th><th>Change</th><th>Volume</th><th>Deals</th></tr></thead>
<tbody>
<tr><td>2024-02-20</td><td>610.00</td><td>+12.50</td><td>345K</td><td>245</td></tr>
<tr><td>2024-02-19</td><td>597.50</td><td>-2.00</td><td>120K</td><td>180</td></tr>
<tr><td></td><td></td><td></td><td></td><td></td></tr>
</tbody>
</table>
</body></html>`

func TestHistoryRows_HeaderDriven(t *testing.T) {
	rows := HistoryRows(historyWithHeaders)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (empty row skipped)", len(rows))
	}
	if *rows[0].Date != "2024-02-20" {
		t.Errorf("date = %q", *rows[0].Date)
	}
	if *rows[0].Close != "610.00" {
		t.Errorf("close = %q", *rows[0].Close)
	}
	if *rows[0].Volume != "345K" {
		t.Errorf("volume = %q", *rows[0].Volume)
	}
	if *rows[0].Deals != "245" {
		t.Errorf("deals = %q", *rows[0].Deals)
	}
}

const historyShuffledColumns = `
<table id="t">
<thead><tr><th>Volume</th><th>Price</th><th>Date</th></tr></thead>
<tbody>
<tr><td>1.2M</td><td>610.00</td><td>2024-02-20</td></tr>
</tbody>
</table>`

func TestHistoryRows_ColumnIndicesFromHeaders(t *testing.T) {
	rows := HistoryRows(historyShuffledColumns)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if *rows[0].Date != "2024-02-20" {
		t.Errorf("date = %q, want 2024-02-20", *rows[0].Date)
	}
	if *rows[0].Close != "610.00" {
		t.Errorf("close = %q, want 610.00", *rows[0].Close)
	}
	if *rows[0].Volume != "1.2M" {
		t.Errorf("volume = %q, want 1.2M", *rows[0].Volume)
	}
}

const historyHeaderless = `
<table>
<tbody>
<tr><td>2024-02-20</td><td>605.50</td><td>612.00</td><td>603.00</td><td>610.00</td><td>+12.50</td><td>1.2M</td></tr>
<tr><td>Summary</td><td>ignored</td></tr>
</tbody>
</table>`

func TestHistoryRows_PositionalFallback(t *testing.T) {
	rows := HistoryRows(historyHeaderless)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (non-date row gated out)", len(rows))
	}
	if *rows[0].Date != "2024-02-20" {
		t.Errorf("date = %q", *rows[0].Date)
	}
	if *rows[0].Open != "605.50" {
		t.Errorf("open = %q", *rows[0].Open)
	}
	if *rows[0].Close != "610.00" {
		t.Errorf("close = %q", *rows[0].Close)
	}
}

func TestHistoryRows_NoTable(t *testing.T) {
	if rows := HistoryRows("<html><body><p>maintenance</p></body></html>"); len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

const tickerPageHTML = `
<html><head><title>kwayisi.org NGX</title></head><body>
<h1>Dangote Cement Plc</h1>
<dl>
<dt>ISIN</dt><dd>NGDANGCEM008</dd>
<dt>Sector</dt><dd>Industrial Goods</dd>
<dt>Board</dt><dd>Main Board</dd>
</dl>
</body></html>`

func TestTickerMeta(t *testing.T) {
	meta := TickerMeta(tickerPageHTML)
	if meta.Name == nil || *meta.Name != "Dangote Cement Plc" {
		t.Errorf("name = %v", meta.Name)
	}
	if meta.ISIN == nil || *meta.ISIN != "NGDANGCEM008" {
		t.Errorf("isin = %v", meta.ISIN)
	}
	if meta.Sector == nil || *meta.Sector != "Industrial Goods" {
		t.Errorf("sector = %v", meta.Sector)
	}
	if meta.Board == nil || *meta.Board != "Main Board" {
		t.Errorf("board = %v", meta.Board)
	}
}

func TestTickerMeta_MissingFieldsStayAbsent(t *testing.T) {
	meta := TickerMeta("<html><body><h1>Zenith Bank</h1></body></html>")
	if meta.Name == nil || *meta.Name != "Zenith Bank" {
		t.Errorf("name = %v", meta.Name)
	}
	if meta.ISIN != nil || meta.Sector != nil || meta.Board != nil {
		t.Error("expected absent metadata fields")
	}
}
