package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType is the contract kind as it appears in the description field.
type OptionType string

const (
	OptionTypeCall OptionType = "Call"
	OptionTypePut  OptionType = "Put"
)

// ParsedOption is the typed result of normalizing one accepted activity
// row: the option attributes extracted from the description plus the
// derived financial quantities.
type ParsedOption struct {
	Symbol     string          `json:"symbol"`
	OptionType OptionType      `json:"option_type"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration time.Time       `json:"expiration"`
	OpenDate   time.Time       `json:"open_date"`
	OpenPrice  decimal.Decimal `json:"open_price"` // per-share price
	Contracts  int64           `json:"contracts"`
	Premium    decimal.Decimal `json:"premium"` // open_price * 100 * contracts
}

// PositionStatusOpen is the status every ingested position starts in.
const PositionStatusOpen = "open"

// Position is a persisted option position, one row per accepted open.
type Position struct {
	ID         int64           `json:"id,omitempty"`
	UserID     int64           `json:"-"`
	Symbol     string          `json:"symbol"`
	OptionType OptionType      `json:"option_type"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration string          `json:"expiration"` // YYYY-MM-DD
	OpenDate   string          `json:"open_date"`  // YYYY-MM-DD
	OpenPrice  decimal.Decimal `json:"open_price"`
	Contracts  int64           `json:"contracts"`
	Premium    decimal.Decimal `json:"premium"`
	Status     string          `json:"status"`
}

// OptionTransaction is a persisted activity record linked to its position.
type OptionTransaction struct {
	ID         int64           `json:"id,omitempty"`
	UserID     int64           `json:"-"`
	PositionID int64           `json:"position_id"`
	Action     string          `json:"action"`     // trans code, e.g. STO
	TradeDate  string          `json:"trade_date"` // YYYY-MM-DD
	Price      decimal.Decimal `json:"price"`      // per-share
	Amount     decimal.Decimal `json:"amount"`     // total cash flow
}

// IngestionReport summarizes how every row of one upload was handled.
// It is returned to the uploader and never persisted.
type IngestionReport struct {
	AcceptedRows int64    `json:"acceptedRows"`
	IgnoredRows  int64    `json:"ignoredRows"`
	NewPositions int64    `json:"newPositions"`
	Warnings     []string `json:"warnings"`
}

// PortfolioSummary aggregates a user's persisted positions for the
// dashboard header cards.
type PortfolioSummary struct {
	OpenPositions  int64           `json:"open_positions"`
	Transactions   int64           `json:"transactions"`
	TotalPremium   decimal.Decimal `json:"total_premium"`
	TotalContracts int64           `json:"total_contracts"`
}
