package matching

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Summary aggregates a recommendation list for logging and audit records.
// Totals are exact decimals so repeated submissions don't accumulate float
// drift in reports.
type Summary struct {
	Matches     int
	TotalEnergy decimal.Decimal
	TotalValue  decimal.Decimal
}

// Summarize computes the match count, total selected energy and total
// traded value (selected energy times trade rate) of a recommendation list.
func Summarize(matches []*BidOfferMatch) Summary {
	s := Summary{
		Matches:     len(matches),
		TotalEnergy: decimal.Zero,
		TotalValue:  decimal.Zero,
	}
	for _, m := range matches {
		energy := decimal.NewFromFloat(m.SelectedEnergy)
		rate := decimal.NewFromFloat(m.TradeRate)
		s.TotalEnergy = s.TotalEnergy.Add(energy)
		s.TotalValue = s.TotalValue.Add(energy.Mul(rate))
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d matches, %s kWh, value %s",
		s.Matches, s.TotalEnergy.String(), s.TotalValue.String())
}
