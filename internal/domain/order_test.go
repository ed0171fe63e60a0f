package domain

import (
	"errors"
	"testing"
	"time"
)

func TestOrderValidate(t *testing.T) {
	pickup := NewStop("Restaurant 1", 12.9344, 77.6200)
	dropoff := NewStop("Consumer 1", 12.9380, 77.6270)

	tests := []struct {
		name    string
		order   Order
		wantErr bool
	}{
		{name: "valid", order: Order{ID: "o1", Pickup: pickup, Dropoff: dropoff, ReadyDuration: 15 * time.Minute}},
		{name: "missing pickup", order: Order{ID: "o2", Dropoff: dropoff}, wantErr: true},
		{name: "missing dropoff", order: Order{ID: "o3", Pickup: pickup}, wantErr: true},
		{name: "same stop", order: Order{ID: "o4", Pickup: pickup, Dropoff: pickup}, wantErr: true},
		{name: "negative ready", order: Order{ID: "o5", Pickup: pickup, Dropoff: dropoff, ReadyDuration: -time.Minute}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("Validate() = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCoordinatesKey(t *testing.T) {
	c := Coordinates{Lat: 12.933, Lon: 77.62}
	if got, want := c.Key(), "12.933000,77.620000"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}

	if err := (Coordinates{Lat: 91}).Validate(); err == nil {
		t.Fatal("expected latitude out of range error")
	}
}
