package model

// Raw row types carry uncleaned string cells between the extract/load
// layer and the cleaner. Every field is optional: a missing cell is an
// empty string pointer, not an error.

// RawEquityRow is one row of the exchange listing page.
type RawEquityRow struct {
	Symbol    *string
	Name      *string
	Price     *string
	Change    *string
	ChangePct *string
	Volume    *string
	Deals     *string
	Sector    *string
}

// RawHistoricalRow is one row of a per-ticker price history table.
type RawHistoricalRow struct {
	Date      *string
	Open      *string
	High      *string
	Low       *string
	Close     *string
	Change    *string
	ChangePct *string
	Volume    *string
	Deals     *string
}

// RawCsvRow is one record of an equity history CSV
// (Date, Price, Open, High, Low, Volume, Change%).
type RawCsvRow struct {
	Date      *string
	Price     *string
	Open      *string
	High      *string
	Low       *string
	Volume    *string
	ChangePct *string
}

// RawFxCsvRow is one record of an FX history CSV
// (Date, Price, Open, High, Low, Change% — no volume).
type RawFxCsvRow struct {
	Date      *string
	Price     *string
	Open      *string
	High      *string
	Low       *string
	ChangePct *string
}

// RawTickerRow is one record of a ticker metadata CSV
// (symbol, name, sector, industry, exchange).
type RawTickerRow struct {
	Symbol   *string
	Name     *string
	Sector   *string
	Industry *string
	Exchange *string
}

// TickerMeta holds fields read opportunistically from a ticker detail
// page header; anything not found stays nil.
type TickerMeta struct {
	Name   *string
	Sector *string
	ISIN   *string
	Board  *string
}
