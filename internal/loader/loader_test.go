package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSymbolFromFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"DANGCEM_history.csv", "DANGCEM"},
		{"dangcem history 2024.csv", "DANGCEM"},
		{"GTCO.daily.csv", "GTCO"},
		{"/some/dir/zenith_q1.csv", "ZENITH"},
		{"_.csv", ""},
	}
	for _, c := range cases {
		if got := SymbolFromFilename(c.in); got != c.want {
			t.Errorf("SymbolFromFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsFxFile(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"USD_NGN Historical Data.csv", true},
		{"eur_ngn.csv", true},
		{"GBPNGN.csv", true},
		{"DANGCEM_history.csv", false},
		// Documented false-positive potential of the substring heuristic.
		{"USDPROP_equity.csv", true},
	}
	for _, c := range cases {
		if got := IsFxFile(c.in); got != c.want {
			t.Errorf("IsFxFile(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDiscoverCSVFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "x")
	writeFile(t, dir, "b.CSV", "x")
	writeFile(t, dir, "notes.txt", "x")
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := DiscoverCSVFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want 2 csv files", files)
	}

	files, err = DiscoverCSVFiles(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

const equityCSV = `Date,Price,Open,High,Low,Vol.,Change %
"Feb 20, 2024","610.00","605.50","612.00","603.00","1.20M","2.09%"
"Feb 19, 2024","597.50","600.00","601.00","595.00","845.2K","-0.42%"
"Feb 18, 2024","0.00","1.00","1.00","1.00","10K","0.00%"
"garbage date","10.00","","","","",""
`

func TestLoadEquityCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "DANGCEM_history.csv", equityCSV)

	symbol, bars, err := LoadEquityCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if symbol != "DANGCEM" {
		t.Errorf("symbol = %q", symbol)
	}
	// Zero close and garbage date rows dropped, rest loaded.
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if bars[0].Close != 610.0 {
		t.Errorf("close = %v", bars[0].Close)
	}
	if bars[0].Volume == nil || *bars[0].Volume != 1_200_000 {
		t.Errorf("volume = %v", bars[0].Volume)
	}
	if bars[1].ChangePct == nil || *bars[1].ChangePct != -0.42 {
		t.Errorf("changePct = %v", bars[1].ChangePct)
	}
}

func TestLoadEquityCSV_NoSymbolInFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "_.csv", equityCSV)
	if _, _, err := LoadEquityCSV(path); err == nil {
		t.Fatal("expected error for filename without symbol")
	}
}

const fxCSV = `Date,Price,Open,High,Low,Change %
"2024-02-20","1,502.50","1,489.00","1,510.00","1,485.00","0.91%"
"2024-02-19","1,489.00","1,480.00","1,495.00","1,478.00","0.61%"
`

func TestLoadFxCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "USDNGN Historical Data.csv", fxCSV)

	src := "investing"
	pair, rates, err := LoadFxCSV(path, &src)
	if err != nil {
		t.Fatal(err)
	}
	if pair != "USDNGN" {
		t.Errorf("pair = %q, want USDNGN", pair)
	}
	if len(rates) != 2 {
		t.Fatalf("rates = %d, want 2", len(rates))
	}
	if rates[0].Close != 1502.50 {
		t.Errorf("close = %v", rates[0].Close)
	}
	if rates[0].Source == nil || *rates[0].Source != "investing" {
		t.Errorf("source = %v", rates[0].Source)
	}
}

const tickerCSV = `symbol,name,sector,industry,exchange
DANGCEM,Dangote Cement,Industrials,Cement,NGX
gtco,Guaranty Trust,Financials,Banking,NGX
,,Missing,Symbol,Row
`

func TestLoadTickerCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tickers.csv", tickerCSV)

	tickers, err := LoadTickerCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 2 {
		t.Fatalf("tickers = %d, want 2 (blank-symbol row dropped)", len(tickers))
	}
	if tickers[1].Symbol != "GTCO" {
		t.Errorf("symbol = %q, want GTCO", tickers[1].Symbol)
	}
	if tickers[0].Sector == nil || *tickers[0].Sector != "Industrials" {
		t.Errorf("sector = %v", tickers[0].Sector)
	}
}
