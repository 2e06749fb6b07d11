package model

import "errors"

var (
	ErrNameRequired = errors.New("name is required and cannot be blank")
	ErrBadInventory = errors.New("available copies must stay within [0, quantity]")
	ErrBadRange     = errors.New("range fields must be non-negative with min <= max")
	ErrUnknownRole  = errors.New("unknown role")
	ErrUnknownField = errors.New("unknown sort field")
)
