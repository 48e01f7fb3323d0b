package burger

type AddIngredientRequest struct {
	IngredientID string `json:"ingredient_id"`
}

type ReorderRequest struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

type AddIngredientResponse struct {
	UID          string          `json:"uid"`
	IngredientID string          `json:"ingredient_id"`
	Constructor  ConstructorView `json:"constructor"`
}

type CatalogView struct {
	Groups  []CatalogGroup `json:"groups"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
}

type OrderLookupResponse struct {
	Summary OrderSummary `json:"summary"`
	Total   int          `json:"total"`
}
