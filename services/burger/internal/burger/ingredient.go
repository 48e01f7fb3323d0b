package burger

import "github.com/appetiteclub/burger/pkg/enums/ingredienttype"

// Ingredient is a catalog entry as served by the ingredients endpoint.
type Ingredient struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Proteins      int    `json:"proteins"`
	Fat           int    `json:"fat"`
	Carbohydrates int    `json:"carbohydrates"`
	Calories      int    `json:"calories"`
	Price         int    `json:"price"`
	Image         string `json:"image"`
	ImageMobile   string `json:"image_mobile"`
	ImageLarge    string `json:"image_large"`
}

func (i Ingredient) IsBun() bool {
	return i.Type == ingredienttype.Types.Bun.Name
}
