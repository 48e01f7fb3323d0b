package burger

import (
	"sort"
	"time"

	"github.com/appetiteclub/burger/pkg/enums/orderstatus"
)

// RawOrder is an order as the feeds and the order lookup deliver it.
// Ingredients may repeat an id; the bun appears twice.
type RawOrder struct {
	ID          string   `json:"_id"`
	Ingredients []string `json:"ingredients"`
	Status      string   `json:"status"`
	Name        string   `json:"name"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	Number      int      `json:"number"`
}

type OrderIngredient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderSummary is a RawOrder with its ingredient ids resolved and grouped.
type OrderSummary struct {
	ID          string            `json:"id"`
	Number      int               `json:"number"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	StatusLabel string            `json:"status_label"`
	CreatedAt   string            `json:"created_at"`
	Ingredients []OrderIngredient `json:"ingredients"`
}

// Summarize groups the order ingredients by id in first-seen order and counts
// repeats. Ids missing from the dictionary are dropped. It reports false when
// nothing resolves.
func Summarize(order RawOrder, dict map[string]Ingredient) (OrderSummary, bool) {
	index := make(map[string]int)
	grouped := make([]OrderIngredient, 0, len(order.Ingredients))

	for _, id := range order.Ingredients {
		ing, ok := dict[id]
		if !ok {
			continue
		}
		if i, seen := index[id]; seen {
			grouped[i].Quantity++
			continue
		}
		index[id] = len(grouped)
		grouped = append(grouped, OrderIngredient{
			ID:       id,
			Name:     ing.Name,
			Image:    ing.Image,
			Price:    ing.Price,
			Quantity: 1,
		})
	}

	if len(grouped) == 0 {
		return OrderSummary{}, false
	}

	return OrderSummary{
		ID:          order.ID,
		Number:      order.Number,
		Name:        order.Name,
		Status:      order.Status,
		StatusLabel: orderstatus.LabelFor(order.Status),
		CreatedAt:   order.CreatedAt,
		Ingredients: grouped,
	}, true
}

// SummarizeAll keeps input order and discards orders with no summary.
func SummarizeAll(orders []RawOrder, dict map[string]Ingredient) []OrderSummary {
	out := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		if summary, ok := Summarize(order, dict); ok {
			out = append(out, summary)
		}
	}
	return out
}

// SortByCreatedDesc returns a copy with the newest orders first. Timestamps
// that do not parse sort last.
func SortByCreatedDesc(summaries []OrderSummary) []OrderSummary {
	out := make([]OrderSummary, len(summaries))
	copy(out, summaries)

	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

func createdAt(s OrderSummary) time.Time {
	t, err := time.Parse(time.RFC3339, s.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Total is the sum of price times quantity over the grouped ingredients.
func (s OrderSummary) Total() int {
	total := 0
	for _, ing := range s.Ingredients {
		total += ing.Price * ing.Quantity
	}
	return total
}
