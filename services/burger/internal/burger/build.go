package burger

// Filling is one build order position resolved against the catalog.
type Filling struct {
	UID        string     `json:"uid"`
	Ingredient Ingredient `json:"ingredient"`
}

// Build is the burger as the constructor shows it: one bun (top and bottom
// halves) around the fillings in build order.
type Build struct {
	Bun      *Ingredient `json:"bun"`
	Fillings []Filling   `json:"fillings"`
}

// DeriveBuild resolves the selection against the catalog. Entries are grouped
// first so every filling uid maps to its ingredient, then the build order is
// walked to keep the manipulation order. Uids that no longer resolve are
// skipped.
func DeriveBuild(catalog *Catalog, sel *Selection) Build {
	build := Build{Fillings: []Filling{}}
	if sel == nil {
		return build
	}

	byUID := make(map[string]Ingredient)
	for _, entry := range sel.entries {
		ing, ok := catalog.Get(entry.IngredientID)
		if !ok || len(entry.UIDs) == 0 {
			continue
		}
		if ing.IsBun() {
			bun := ing
			build.Bun = &bun
			continue
		}
		for _, uid := range entry.UIDs {
			byUID[uid] = ing
		}
	}

	for _, uid := range sel.buildOrder {
		ing, ok := byUID[uid]
		if !ok {
			continue
		}
		build.Fillings = append(build.Fillings, Filling{UID: uid, Ingredient: ing})
	}

	return build
}

// TotalPrice counts the bun twice, one per half.
func TotalPrice(bun *Ingredient, fillings []Filling) int {
	total := 0
	for _, f := range fillings {
		total += f.Ingredient.Price
	}
	if bun != nil {
		total += bun.Price * 2
	}
	return total
}

func (b Build) TotalPrice() int {
	return TotalPrice(b.Bun, b.Fillings)
}

// FillingIDs lists the ingredient ids of the fillings in build order.
func (b Build) FillingIDs() []string {
	ids := make([]string, 0, len(b.Fillings))
	for _, f := range b.Fillings {
		ids = append(ids, f.Ingredient.ID)
	}
	return ids
}

// OrderIngredients is the order creation payload: the bun id opens and closes
// the list, fillings sit in between in build order.
func OrderIngredients(bunID string, fillingIDs []string) []string {
	ids := make([]string, 0, len(fillingIDs)+2)
	ids = append(ids, bunID)
	ids = append(ids, fillingIDs...)
	ids = append(ids, bunID)
	return ids
}
