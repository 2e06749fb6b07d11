package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameValidate(t *testing.T) {
	ok := Game{Name: "Catan", Quantity: 3, AvailableCopies: 2, MinPlayerCount: intp(3), MaxPlayerCount: intp(4)}
	assert.NoError(t, ok.Validate())

	blank := Game{Name: "   "}
	assert.ErrorIs(t, blank.Validate(), ErrNameRequired)

	overdrawn := Game{Name: "X", Quantity: 1, AvailableCopies: 2}
	assert.ErrorIs(t, overdrawn.Validate(), ErrBadInventory)

	negative := Game{Name: "X", AvailableCopies: -1}
	assert.ErrorIs(t, negative.Validate(), ErrBadInventory)

	inverted := Game{Name: "X", MinPlaytime: intp(60), MaxPlaytime: intp(30)}
	assert.ErrorIs(t, inverted.Validate(), ErrBadRange)
}

func TestGameGuards(t *testing.T) {
	g := Game{Name: "X", Quantity: 2, AvailableCopies: 0}
	assert.False(t, g.CanCheckout())
	assert.True(t, g.CanReturn())

	g.AvailableCopies = 2
	assert.True(t, g.CanCheckout())
	assert.False(t, g.CanReturn())

	g.AvailableCopies = 1
	assert.True(t, g.CanCheckout())
	assert.True(t, g.CanReturn())
}
