package model

import "strings"

// Game is a single catalog entry. Field names mirror the wire format of the
// remote store; optional numeric ranges are pointers so an absent value can be
// told apart from zero.
type Game struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Genre           string `json:"genre,omitempty"`
	Description     string `json:"description,omitempty"`
	BoxImageURL     string `json:"boxImageUrl,omitempty"`
	InternalNotes   string `json:"internalNotes,omitempty"`
	MinPlayerCount  *int   `json:"minPlayerCount,omitempty"`
	MaxPlayerCount  *int   `json:"maxPlayerCount,omitempty"`
	MinPlaytime     *int   `json:"minPlaytime,omitempty"`
	MaxPlaytime     *int   `json:"maxPlaytime,omitempty"`
	Quantity        int    `json:"quantity"`
	AvailableCopies int    `json:"availableCopies"`
	CheckoutCount   int    `json:"checkoutCount"`
}

// Validate checks the invariants a well-formed entry must hold. The server is
// the authority; this is a pre-flight check for drafts built locally.
func (g *Game) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrNameRequired
	}
	if g.Quantity < 0 || g.AvailableCopies < 0 || g.AvailableCopies > g.Quantity {
		return ErrBadInventory
	}
	if g.CheckoutCount < 0 {
		return ErrBadInventory
	}
	if !validRange(g.MinPlayerCount, g.MaxPlayerCount) || !validRange(g.MinPlaytime, g.MaxPlaytime) {
		return ErrBadRange
	}
	return nil
}

func validRange(min, max *int) bool {
	if min != nil && *min < 0 {
		return false
	}
	if max != nil && *max < 0 {
		return false
	}
	if min != nil && max != nil && *min > *max {
		return false
	}
	return true
}

// CanCheckout reports whether a checkout is allowed right now.
func (g *Game) CanCheckout() bool {
	return g.AvailableCopies > 0
}

// CanReturn reports whether a return is allowed right now.
func (g *Game) CanReturn() bool {
	return g.AvailableCopies < g.Quantity
}

// GamePatch is a sparse update for an existing entry. Nil fields are left
// untouched by the server.
type GamePatch struct {
	Name           *string `json:"name,omitempty"`
	Genre          *string `json:"genre,omitempty"`
	Description    *string `json:"description,omitempty"`
	BoxImageURL    *string `json:"boxImageUrl,omitempty"`
	InternalNotes  *string `json:"internalNotes,omitempty"`
	MinPlayerCount *int    `json:"minPlayerCount,omitempty"`
	MaxPlayerCount *int    `json:"maxPlayerCount,omitempty"`
	MinPlaytime    *int    `json:"minPlaytime,omitempty"`
	MaxPlaytime    *int    `json:"maxPlaytime,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
}

// Stats is the one-shot aggregate payload from the stats endpoint. It is
// returned to the caller directly and never stored.
type Stats struct {
	MostPopularGameID      string  `json:"mostPopularGameId"`
	MostPopularGameName    string  `json:"mostPopularGameName"`
	MostPopularGameNight   string  `json:"mostPopularGameNight"`
	TotalCheckouts         int     `json:"totalCheckouts"`
	TotalAvailableCopies   int     `json:"totalAvailableCopies"`
	AverageGamesCheckout   float64 `json:"averageGamesCheckout"`
	AveragePlayersPerGame  float64 `json:"averagePlayersPerGame"`
	AveragePlaytimePerGame float64 `json:"averagePlaytimePerGame"`
}
