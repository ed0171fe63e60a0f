package domain

import (
	"fmt"
	"time"
)

// Represents a single delivery job: collect at Pickup, hand over at Dropoff.
// ReadyDuration is how long after dispatch the item is ready for collection
// (preparation time).
type Order struct {
	ID            string
	Pickup        Stop
	Dropoff       Stop
	ReadyDuration time.Duration
}

// Validate checks the order invariants the optimizer relies on.
func (o Order) Validate() error {
	if o.Pickup.IsZero() {
		return fmt.Errorf("%w: order %q has no pickup stop", ErrInvalidInput, o.ID)
	}
	if o.Dropoff.IsZero() {
		return fmt.Errorf("%w: order %q has no dropoff stop", ErrInvalidInput, o.ID)
	}
	if o.Pickup == o.Dropoff {
		return fmt.Errorf("%w: order %q pickup and dropoff are the same stop", ErrInvalidInput, o.ID)
	}
	if o.ReadyDuration < 0 {
		return fmt.Errorf("%w: order %q has negative ready duration %s", ErrInvalidInput, o.ID, o.ReadyDuration)
	}
	return nil
}
