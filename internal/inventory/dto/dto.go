package dto

import "github.com/fekuna/omnipos-workshop-service/internal/model"

type ItemFilters struct {
	Search   string
	Category string
	Status   model.StockStatus // "" for all
	Page     int
	PageSize int
}

type ItemActivityReport struct {
	Item       *model.InventoryItem  `json:"item"`
	Activities []model.ItemActivity  `json:"activities"`
	Summary    model.ActivitySummary `json:"summary"`
}
