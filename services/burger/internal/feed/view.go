package feed

import "github.com/appetiteclub/burger/services/burger/internal/burger"

// CatalogProvider gives access to the ingredient catalog used to resolve
// feed orders.
type CatalogProvider interface {
	Catalog() *burger.Catalog
}

// View is a feed slice projected for display: summaries newest first and
// the ready/in-progress board.
type View struct {
	Name       string                `json:"name"`
	Status     Status                `json:"status"`
	Error      string                `json:"error,omitempty"`
	Total      int                   `json:"total"`
	TotalToday int                   `json:"total_today"`
	Orders     []burger.OrderSummary `json:"orders"`
	Board      burger.Board          `json:"board"`
}

func BuildView(name string, s Slice, dict map[string]burger.Ingredient) View {
	summaries := burger.SortByCreatedDesc(burger.SummarizeAll(s.Orders, dict))
	return View{
		Name:       name,
		Status:     s.Status,
		Error:      s.Error,
		Total:      s.Total,
		TotalToday: s.TotalToday,
		Orders:     summaries,
		Board:      burger.BuildBoard(summaries),
	}
}
