package burger

import "github.com/appetiteclub/burger/pkg/enums/ingredienttype"

// Catalog is the immutable ingredient list fetched at startup, indexed by id.
type Catalog struct {
	items []Ingredient
	byID  map[string]Ingredient
}

// CatalogGroup is one catalog tab: all ingredients of a type.
type CatalogGroup struct {
	Type  string       `json:"type"`
	Label string       `json:"label"`
	Items []Ingredient `json:"items"`
}

func NewCatalog(items []Ingredient) *Catalog {
	c := &Catalog{
		items: make([]Ingredient, len(items)),
		byID:  make(map[string]Ingredient, len(items)),
	}
	copy(c.items, items)
	for _, item := range items {
		c.byID[item.ID] = item
	}
	return c
}

func (c *Catalog) Get(id string) (Ingredient, bool) {
	if c == nil {
		return Ingredient{}, false
	}
	ing, ok := c.byID[id]
	return ing, ok
}

func (c *Catalog) List() []Ingredient {
	if c == nil {
		return nil
	}
	out := make([]Ingredient, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Dictionary returns the id index used by the order summary projection.
func (c *Catalog) Dictionary() map[string]Ingredient {
	dict := make(map[string]Ingredient)
	if c == nil {
		return dict
	}
	for id, ing := range c.byID {
		dict[id] = ing
	}
	return dict
}

// Groups splits the catalog by type in display order. Ingredients of an
// unknown type are left out.
func (c *Catalog) Groups() []CatalogGroup {
	groups := make([]CatalogGroup, 0, len(ingredienttype.All))
	for _, t := range ingredienttype.All {
		group := CatalogGroup{Type: t.Code(), Label: t.Label(), Items: []Ingredient{}}
		if c != nil {
			for _, item := range c.items {
				if item.Type == t.Code() {
					group.Items = append(group.Items, item)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}
