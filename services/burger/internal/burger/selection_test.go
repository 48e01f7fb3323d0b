package burger

import (
	"reflect"
	"strings"
	"testing"
)

func TestSelectionAdd(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name           string
		add            []string
		wantEntries    map[string]int
		wantBuildOrder int
	}{
		{
			name:           "singleFilling",
			add:            []string{"main-1"},
			wantEntries:    map[string]int{"main-1": 1},
			wantBuildOrder: 1,
		},
		{
			name:           "repeatedFilling",
			add:            []string{"main-1", "main-1", "sauce-1"},
			wantEntries:    map[string]int{"main-1": 2, "sauce-1": 1},
			wantBuildOrder: 3,
		},
		{
			name:           "bunStaysOutOfBuildOrder",
			add:            []string{"bun-1"},
			wantEntries:    map[string]int{"bun-1": 1},
			wantBuildOrder: 0,
		},
		{
			name:           "secondBunReplacesFirst",
			add:            []string{"bun-1", "main-1", "bun-2"},
			wantEntries:    map[string]int{"bun-2": 1, "main-1": 1},
			wantBuildOrder: 1,
		},
		{
			name:           "sameBunTwiceKeepsOneUID",
			add:            []string{"bun-1", "bun-1"},
			wantEntries:    map[string]int{"bun-1": 1},
			wantBuildOrder: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection()
			for _, id := range tt.add {
				sel.Add(mustGet(catalog, id))
			}

			if got := sel.Counts(); !reflect.DeepEqual(got, tt.wantEntries) {
				t.Errorf("Counts() = %v, want %v", got, tt.wantEntries)
			}
			if got := len(sel.BuildOrder()); got != tt.wantBuildOrder {
				t.Errorf("len(BuildOrder()) = %d, want %d", got, tt.wantBuildOrder)
			}
		})
	}
}

func TestSelectionAddUIDFormat(t *testing.T) {
	sel := NewSelection()
	uid := sel.Add(mustGet(testCatalog(), "main-1"))

	if !strings.HasPrefix(uid, "main-1_") {
		t.Errorf("uid %q lacks ingredient prefix", uid)
	}

	other := sel.Add(mustGet(testCatalog(), "main-1"))
	if uid == other {
		t.Error("Add() returned the same uid twice")
	}
}

func TestSelectionAtMostOneBun(t *testing.T) {
	catalog := testCatalog()
	sel := NewSelection()

	for _, id := range []string{"bun-1", "main-1", "bun-2", "sauce-1", "bun-1", "bun-2"} {
		sel.Add(mustGet(catalog, id))

		buns := 0
		for _, entry := range sel.Entries() {
			ing := mustGet(catalog, entry.IngredientID)
			if ing.IsBun() {
				buns++
				if len(entry.UIDs) != 1 {
					t.Errorf("bun entry holds %d uids, want 1", len(entry.UIDs))
				}
			}
		}
		if buns > 1 {
			t.Fatalf("after adding %s: %d bun entries, want at most 1", id, buns)
		}
	}
}

func TestSelectionRemove(t *testing.T) {
	catalog := testCatalog()

	t.Run("removesEntryAndBuildOrder", func(t *testing.T) {
		sel := NewSelection()
		uid := sel.Add(mustGet(catalog, "main-1"))

		sel.Remove("main-1", uid)

		if sel.Count("main-1") != 0 {
			t.Error("entry still present after removing its only uid")
		}
		if len(sel.BuildOrder()) != 0 {
			t.Errorf("BuildOrder() = %v, want empty", sel.BuildOrder())
		}
		if !sel.Empty() {
			t.Error("Empty() = false after removing everything")
		}
	})

	t.Run("keepsOtherUIDs", func(t *testing.T) {
		sel := NewSelection()
		first := sel.Add(mustGet(catalog, "main-1"))
		second := sel.Add(mustGet(catalog, "main-1"))

		sel.Remove("main-1", first)

		if sel.Count("main-1") != 1 {
			t.Errorf("Count() = %d, want 1", sel.Count("main-1"))
		}
		if got := sel.BuildOrder(); !reflect.DeepEqual(got, []string{second}) {
			t.Errorf("BuildOrder() = %v, want [%s]", got, second)
		}
	})

	t.Run("unknownUIDIsNoop", func(t *testing.T) {
		sel := NewSelection()
		uid := sel.Add(mustGet(catalog, "main-1"))

		sel.Remove("main-1", "main-1_missing")
		sel.Remove("nope", "nope_1")

		if sel.Count("main-1") != 1 {
			t.Errorf("Count() = %d, want 1", sel.Count("main-1"))
		}
		if got := sel.BuildOrder(); !reflect.DeepEqual(got, []string{uid}) {
			t.Errorf("BuildOrder() = %v", got)
		}
	})
}

func TestSelectionReorder(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want []string
	}{
		{name: "moveForward", from: 0, to: 2, want: []string{"b", "c", "a"}},
		{name: "moveBackward", from: 2, to: 0, want: []string{"c", "a", "b"}},
		{name: "adjacentSwap", from: 1, to: 2, want: []string{"a", "c", "b"}},
		{name: "sameIndex", from: 1, to: 1, want: []string{"a", "b", "c"}},
		{name: "fromOutOfRange", from: 3, to: 0, want: []string{"a", "b", "c"}},
		{name: "toOutOfRange", from: 0, to: 3, want: []string{"a", "b", "c"}},
		{name: "negativeIndex", from: -1, to: 0, want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection()
			sel.buildOrder = []string{"a", "b", "c"}

			sel.Reorder(tt.from, tt.to)

			if got := sel.BuildOrder(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reorder(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSelectionReorderRoundTrip(t *testing.T) {
	start := []string{"a", "b", "c", "d", "e"}

	for from := range start {
		for to := range start {
			sel := NewSelection()
			sel.buildOrder = append([]string(nil), start...)

			sel.Reorder(from, to)
			sel.Reorder(to, from)

			if got := sel.BuildOrder(); !reflect.DeepEqual(got, start) {
				t.Errorf("Reorder(%d,%d) then back = %v, want %v", from, to, got, start)
			}
		}
	}
}

func TestSelectionReset(t *testing.T) {
	catalog := testCatalog()
	sel := NewSelection()
	sel.Add(mustGet(catalog, "bun-1"))
	sel.Add(mustGet(catalog, "main-1"))

	sel.Reset()

	if !sel.Empty() {
		t.Error("entries remain after Reset()")
	}
	if len(sel.BuildOrder()) != 0 {
		t.Error("build order remains after Reset()")
	}
}
