package activity

import "github.com/fekuna/omnipos-workshop-service/internal/model"

// Summarize folds an item's activity into purchased, sold and returned totals.
// activities are expected newest first; the first Purchase seen is the last purchase.
func Summarize(activities []model.ItemActivity, availableStock int) model.ActivitySummary {
	s := model.ActivitySummary{AvailableStock: availableStock}
	for i := range activities {
		a := &activities[i]
		switch a.ActivityType {
		case model.ActivityPurchase, model.ActivityStockIn:
			s.TotalPurchased += a.Quantity
			if a.ActivityType == model.ActivityPurchase && s.LastPurchase == nil {
				s.LastPurchase = a
			}
		case model.ActivitySale, model.ActivityJobUsage, model.ActivityStockOut:
			s.TotalSold += a.Quantity
		case model.ActivityReturn:
			s.TotalReturned += a.Quantity
		}
	}
	return s
}
