package model

import (
	"sort"
	"strings"
)

// FilterSpec is a conjunction of optional predicates. A zero-value field means
// no constraint on that axis.
type FilterSpec struct {
	Name        string
	Genre       string
	Playtime    *int
	PlayerCount *int
}

// Matches reports whether g satisfies every predicate that is set. Substring
// matches are case-insensitive; a range predicate only matches items that
// carry both ends of the corresponding range.
func (f FilterSpec) Matches(g *Game) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Genre != "" && !strings.Contains(strings.ToLower(g.Genre), strings.ToLower(f.Genre)) {
		return false
	}
	if f.Playtime != nil && !inRange(*f.Playtime, g.MinPlaytime, g.MaxPlaytime) {
		return false
	}
	if f.PlayerCount != nil && !inRange(*f.PlayerCount, g.MinPlayerCount, g.MaxPlayerCount) {
		return false
	}
	return true
}

func inRange(v int, min, max *int) bool {
	return min != nil && max != nil && *min <= v && v <= *max
}

// SortField selects the attribute a SortSpec orders by.
type SortField string

const (
	SortByName           SortField = "name"
	SortByMinPlayerCount SortField = "minPlayerCount"
	SortByMinPlaytime    SortField = "minPlaytime"
	SortByCheckoutCount  SortField = "checkoutCount"
)

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case SortByName, SortByMinPlayerCount, SortByMinPlaytime, SortByCheckoutCount:
		return SortField(s), nil
	}
	return "", ErrUnknownField
}

// SortSpec orders items by a single field. String comparison is
// case-insensitive; items missing the field sort after items that have it,
// whatever the direction.
type SortSpec struct {
	Field      SortField
	Descending bool
}

// DefaultSort matches the catalog's initial presentation.
var DefaultSort = SortSpec{Field: SortByName}

// ApplyFilterSort returns the derived view: items matching the filter, in
// stable sorted order. The input slice is not modified.
func ApplyFilterSort(games []Game, filter FilterSpec, spec SortSpec) []Game {
	view := make([]Game, 0, len(games))
	for i := range games {
		if filter.Matches(&games[i]) {
			view = append(view, games[i])
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		return spec.less(&view[i], &view[j])
	})
	return view
}

// less implements the ordering for one pair. Ties report false so
// SliceStable preserves input order.
func (s SortSpec) less(a, b *Game) bool {
	av, aok := s.value(a)
	bv, bok := s.value(b)

	// Missing values sort last regardless of direction.
	if !aok || !bok {
		return aok && !bok
	}

	var cmp int
	switch x := av.(type) {
	case string:
		cmp = strings.Compare(strings.ToLower(x), strings.ToLower(bv.(string)))
	case int:
		y := bv.(int)
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		}
	}
	if s.Descending {
		return cmp > 0
	}
	return cmp < 0
}

func (s SortSpec) value(g *Game) (interface{}, bool) {
	switch s.Field {
	case SortByName:
		return g.Name, true
	case SortByMinPlayerCount:
		if g.MinPlayerCount == nil {
			return nil, false
		}
		return *g.MinPlayerCount, true
	case SortByMinPlaytime:
		if g.MinPlaytime == nil {
			return nil, false
		}
		return *g.MinPlaytime, true
	case SortByCheckoutCount:
		return g.CheckoutCount, true
	}
	return nil, false
}
