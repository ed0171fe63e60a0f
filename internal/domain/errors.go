package domain

import "errors"

var (
	// ErrInvalidInput is returned before any computation when the start stop
	// is missing or the order batch is empty or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoFeasibleTransition is returned by the greedy strategy when it cannot
	// pick a next order although orders remain. The route returned alongside
	// it is partial.
	ErrNoFeasibleTransition = errors.New("no feasible transition")
)
