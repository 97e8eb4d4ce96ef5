package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/wheeltracker/src/models"
)

// SummaryProcessor aggregates persisted positions and transactions into
// the dashboard summary figures.
type SummaryProcessor struct{}

func NewSummaryProcessor() *SummaryProcessor { return &SummaryProcessor{} }

// Process computes totals over a user's positions. Premium is summed as
// decimals; no float rounding is involved.
func (p *SummaryProcessor) Process(positions []models.Position, transactions []models.OptionTransaction) models.PortfolioSummary {
	summary := models.PortfolioSummary{
		Transactions: int64(len(transactions)),
		TotalPremium: decimal.Zero,
	}

	for _, pos := range positions {
		if pos.Status == models.PositionStatusOpen {
			summary.OpenPositions++
		}
		summary.TotalContracts += pos.Contracts
		summary.TotalPremium = summary.TotalPremium.Add(pos.Premium)
	}

	return summary
}
