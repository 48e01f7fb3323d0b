package burger

import (
	"sort"

	"github.com/google/uuid"
)

// SelectionEntry groups every uid picked for one ingredient. An entry only
// exists while it holds at least one uid.
type SelectionEntry struct {
	IngredientID string   `json:"ingredient_id"`
	UIDs         []string `json:"uids"`
	bun          bool
}

// Selection holds the picked ingredients grouped by id plus the build order,
// the on-screen sequence of filling uids. Bun uids never enter the build order.
// Selection is not safe for concurrent use; Constructor serializes access.
type Selection struct {
	entries    map[string]*SelectionEntry
	buildOrder []string
	newUID     func(ingredientID string) string
}

func NewSelection() *Selection {
	return &Selection{
		entries: make(map[string]*SelectionEntry),
		newUID:  newUID,
	}
}

func newUID(ingredientID string) string {
	return ingredientID + "_" + uuid.NewString()
}

// Add selects one more instance of ing and returns its uid. A bun replaces
// whatever bun was selected before.
func (s *Selection) Add(ing Ingredient) string {
	uid := s.newUID(ing.ID)

	if ing.IsBun() {
		for id, entry := range s.entries {
			if entry.bun {
				delete(s.entries, id)
			}
		}
		s.entries[ing.ID] = &SelectionEntry{IngredientID: ing.ID, UIDs: []string{uid}, bun: true}
		return uid
	}

	entry, ok := s.entries[ing.ID]
	if !ok {
		entry = &SelectionEntry{IngredientID: ing.ID}
		s.entries[ing.ID] = entry
	}
	entry.UIDs = append(entry.UIDs, uid)
	s.buildOrder = append(s.buildOrder, uid)

	return uid
}

// Remove drops uid from the ingredient entry and from the build order.
// Unknown ids and uids are ignored.
func (s *Selection) Remove(ingredientID, uid string) {
	if entry, ok := s.entries[ingredientID]; ok {
		entry.UIDs = without(entry.UIDs, uid)
		if len(entry.UIDs) == 0 {
			delete(s.entries, ingredientID)
		}
	}
	s.buildOrder = without(s.buildOrder, uid)
}

// Reorder moves the build order item at from to position to. Equal or out of
// range indices leave the build order untouched.
func (s *Selection) Reorder(from, to int) {
	n := len(s.buildOrder)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return
	}

	uid := s.buildOrder[from]
	rest := append(s.buildOrder[:from:from], s.buildOrder[from+1:]...)

	moved := make([]string, 0, n)
	moved = append(moved, rest[:to]...)
	moved = append(moved, uid)
	moved = append(moved, rest[to:]...)
	s.buildOrder = moved
}

func (s *Selection) Reset() {
	s.entries = make(map[string]*SelectionEntry)
	s.buildOrder = nil
}

// Count is the number of selected instances of an ingredient.
func (s *Selection) Count(ingredientID string) int {
	if entry, ok := s.entries[ingredientID]; ok {
		return len(entry.UIDs)
	}
	return 0
}

// Counts returns Count for every selected ingredient.
func (s *Selection) Counts() map[string]int {
	counts := make(map[string]int, len(s.entries))
	for id, entry := range s.entries {
		counts[id] = len(entry.UIDs)
	}
	return counts
}

// Entries returns a copy of the selection sorted by ingredient id.
func (s *Selection) Entries() []SelectionEntry {
	out := make([]SelectionEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		uids := make([]string, len(entry.UIDs))
		copy(uids, entry.UIDs)
		out = append(out, SelectionEntry{IngredientID: entry.IngredientID, UIDs: uids, bun: entry.bun})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out
}

func (s *Selection) BuildOrder() []string {
	out := make([]string, len(s.buildOrder))
	copy(out, s.buildOrder)
	return out
}

func (s *Selection) Empty() bool {
	return len(s.entries) == 0
}

func without(list []string, value string) []string {
	out := list[:0:0]
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}
