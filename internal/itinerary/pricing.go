package itinerary

import (
	"math"

	"github.com/kitasuro/kitasuro/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// usdPrinter renders thousands-separated numbers in English locale.
var usdPrinter = message.NewPrinter(language.English)

// TotalPrice sums count x unit price across all pricing rows plus the price of
// every selected extra.
func TotalPrice(rows []domain.PricingRow, extras []domain.ExtraOption) float64 {
	var total float64
	for _, row := range rows {
		total += float64(row.Count) * row.UnitPrice
	}
	for _, extra := range extras {
		if extra.Selected {
			total += extra.Price
		}
	}
	return total
}

// PerPersonPrice divides a total by the combined traveler count. A trip with
// no travelers yields 0 rather than a division error.
func PerPersonPrice(total float64, groups []domain.TravelerGroup) float64 {
	var travelers int
	for _, g := range groups {
		travelers += g.Count
	}
	if travelers == 0 {
		return 0
	}
	return total / float64(travelers)
}

// FormatUSD renders an amount as a whole-dollar, thousands-separated string
// prefixed with "$", e.g. "$12,345".
func FormatUSD(amount float64) string {
	return usdPrinter.Sprintf("$%d", int64(math.Round(amount)))
}

// SyncPricingRows reconciles pricing rows with the current traveler groups.
// Rows are matched to groups by ID: an existing row keeps its unit price when
// one is already set, a new group gets a row at the base price, and rows whose
// group was removed are dropped. Labels and counts always follow the group.
func SyncPricingRows(groups []domain.TravelerGroup, rows []domain.PricingRow, basePrice float64) []domain.PricingRow {
	existing := make(map[string]domain.PricingRow, len(rows))
	for _, row := range rows {
		existing[row.ID] = row
	}

	synced := make([]domain.PricingRow, 0, len(groups))
	for _, g := range groups {
		unitPrice := basePrice
		if row, ok := existing[g.ID]; ok && row.UnitPrice != 0 {
			unitPrice = row.UnitPrice
		}
		synced = append(synced, domain.PricingRow{
			ID:        g.ID,
			Label:     g.Label,
			Count:     g.Count,
			UnitPrice: unitPrice,
		})
	}
	return synced
}
