package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func playtimeGame(name string, min, max int) Game {
	return Game{Name: name, MinPlaytime: intp(min), MaxPlaytime: intp(max)}
}

func TestFilterSpec_PlaytimeRange(t *testing.T) {
	games := []Game{
		playtimeGame("A", 30, 60),
		playtimeGame("B", 60, 120),
	}

	view := ApplyFilterSort(games, FilterSpec{Playtime: intp(45)}, DefaultSort)
	require.Len(t, view, 1)
	assert.Equal(t, "A", view[0].Name)

	view = ApplyFilterSort(games, FilterSpec{Playtime: intp(90)}, DefaultSort)
	require.Len(t, view, 1)
	assert.Equal(t, "B", view[0].Name)

	view = ApplyFilterSort(games, FilterSpec{Playtime: intp(200)}, DefaultSort)
	assert.Empty(t, view)

	// Boundary values are inclusive on both ends.
	view = ApplyFilterSort(games, FilterSpec{Playtime: intp(60)}, DefaultSort)
	assert.Len(t, view, 2)
}

func TestFilterSpec_AbsentPredicatesMatchAll(t *testing.T) {
	games := []Game{
		{Name: "Catan", Genre: "strategy"},
		{Name: "Uno"},
	}
	view := ApplyFilterSort(games, FilterSpec{}, DefaultSort)
	assert.Len(t, view, 2)
}

func TestFilterSpec_NameSubstringCaseInsensitive(t *testing.T) {
	games := []Game{
		{Name: "Ticket to Ride"},
		{Name: "Catan"},
	}
	view := ApplyFilterSort(games, FilterSpec{Name: "RIDE"}, DefaultSort)
	require.Len(t, view, 1)
	assert.Equal(t, "Ticket to Ride", view[0].Name)
}

func TestFilterSpec_Conjunction(t *testing.T) {
	games := []Game{
		{Name: "Catan", Genre: "strategy", MinPlaytime: intp(60), MaxPlaytime: intp(90)},
		{Name: "Carcassonne", Genre: "strategy", MinPlaytime: intp(30), MaxPlaytime: intp(45)},
	}
	// Both match the genre, only one matches the playtime.
	view := ApplyFilterSort(games, FilterSpec{Genre: "strat", Playtime: intp(75)}, DefaultSort)
	require.Len(t, view, 1)
	assert.Equal(t, "Catan", view[0].Name)
}

func TestFilterSpec_RangePredicateNeedsBothEnds(t *testing.T) {
	games := []Game{
		{Name: "NoRange"},
		{Name: "HalfRange", MinPlaytime: intp(30)},
		playtimeGame("Full", 30, 60),
	}
	view := ApplyFilterSort(games, FilterSpec{Playtime: intp(45)}, DefaultSort)
	require.Len(t, view, 1)
	assert.Equal(t, "Full", view[0].Name)
}

func TestFilterSpec_Idempotent(t *testing.T) {
	games := []Game{
		playtimeGame("A", 30, 60),
		playtimeGame("B", 60, 120),
		{Name: "C"},
	}
	filter := FilterSpec{Playtime: intp(60)}
	once := ApplyFilterSort(games, filter, DefaultSort)
	twice := ApplyFilterSort(once, filter, DefaultSort)
	assert.Equal(t, once, twice)
}

func TestSortSpec_NameCaseInsensitive(t *testing.T) {
	games := []Game{{Name: "Zoo"}, {Name: "apple"}}

	view := ApplyFilterSort(games, FilterSpec{}, SortSpec{Field: SortByName})
	require.Len(t, view, 2)
	assert.Equal(t, "apple", view[0].Name)
	assert.Equal(t, "Zoo", view[1].Name)

	view = ApplyFilterSort(games, FilterSpec{}, SortSpec{Field: SortByName, Descending: true})
	assert.Equal(t, "Zoo", view[0].Name)
	assert.Equal(t, "apple", view[1].Name)
}

func TestSortSpec_Stable(t *testing.T) {
	games := []Game{
		{ID: 1, Name: "Same", CheckoutCount: 5},
		{ID: 2, Name: "same", CheckoutCount: 5},
		{ID: 3, Name: "SAME", CheckoutCount: 5},
	}
	for _, desc := range []bool{false, true} {
		view := ApplyFilterSort(games, FilterSpec{}, SortSpec{Field: SortByCheckoutCount, Descending: desc})
		require.Len(t, view, 3)
		assert.Equal(t, int64(1), view[0].ID, "desc=%v", desc)
		assert.Equal(t, int64(2), view[1].ID, "desc=%v", desc)
		assert.Equal(t, int64(3), view[2].ID, "desc=%v", desc)
	}
}

func TestSortSpec_MissingFieldSortsLast(t *testing.T) {
	games := []Game{
		{ID: 1, Name: "NoTime"},
		{ID: 2, Name: "Quick", MinPlaytime: intp(15)},
		{ID: 3, Name: "Long", MinPlaytime: intp(120)},
	}
	for _, desc := range []bool{false, true} {
		view := ApplyFilterSort(games, FilterSpec{}, SortSpec{Field: SortByMinPlaytime, Descending: desc})
		require.Len(t, view, 3)
		assert.Equal(t, int64(1), view[2].ID, "missing value must sort last, desc=%v", desc)
	}
}

func TestSortSpec_Numeric(t *testing.T) {
	games := []Game{
		{Name: "Big", MinPlayerCount: intp(6)},
		{Name: "Small", MinPlayerCount: intp(2)},
		{Name: "Mid", MinPlayerCount: intp(4)},
	}
	view := ApplyFilterSort(games, FilterSpec{}, SortSpec{Field: SortByMinPlayerCount})
	require.Len(t, view, 3)
	assert.Equal(t, "Small", view[0].Name)
	assert.Equal(t, "Mid", view[1].Name)
	assert.Equal(t, "Big", view[2].Name)
}

func TestSortSpec_InputNotModified(t *testing.T) {
	games := []Game{{Name: "Zoo"}, {Name: "apple"}}
	_ = ApplyFilterSort(games, FilterSpec{}, SortSpec{Field: SortByName})
	assert.Equal(t, "Zoo", games[0].Name)
}

func TestParseSortField(t *testing.T) {
	for _, ok := range []string{"name", "minPlayerCount", "minPlaytime", "checkoutCount"} {
		_, err := ParseSortField(ok)
		assert.NoError(t, err, ok)
	}
	_, err := ParseSortField("quantity")
	assert.ErrorIs(t, err, ErrUnknownField)
}
