package models

// Robinhood activity export column headers, exact and case-sensitive.
const (
	ColActivityDate = "Activity Date"
	ColProcessDate  = "Process Date"
	ColSettleDate   = "Settle Date"
	ColInstrument   = "Instrument"
	ColDescription  = "Description"
	ColTransCode    = "Trans Code"
	ColQuantity     = "Quantity"
	ColPrice        = "Price"
	ColAmount       = "Amount"
)

// RequiredColumns are the headers an activity export must carry for
// ingestion. Amount and the secondary dates are informational only.
var RequiredColumns = []string{
	ColActivityDate,
	ColInstrument,
	ColDescription,
	ColTransCode,
	ColQuantity,
	ColPrice,
}

// TransCodeSellToOpen marks the opening sale of an options contract,
// the only activity type the tracker ingests.
const TransCodeSellToOpen = "STO"

// RawActivityRow holds the direct string values from a single row of a
// Robinhood activity CSV. It only lives for the duration of one upload.
type RawActivityRow struct {
	ActivityDate string `json:"activity_date"`
	ProcessDate  string `json:"process_date"`
	SettleDate   string `json:"settle_date"`
	Instrument   string `json:"instrument"`
	Description  string `json:"description"`
	TransCode    string `json:"trans_code"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
}
