package hooks

import (
	"time"

	"github.com/google/uuid"
)

// HookStatus is the closed set of states a key hook can be in.
type HookStatus string

const (
	HookStatusAvailable HookStatus = "available"
	HookStatusOccupied  HookStatus = "occupied"
)

// Valid reports whether s is a known hook status.
func (s HookStatus) Valid() bool {
	return s == HookStatusAvailable || s == HookStatusOccupied
}

// Hook represents one numbered physical key-storage slot on the board.
// ReservedFor carries the card of the vehicle whose keys hang on it.
type Hook struct {
	Number      int        `json:"number"`
	Status      HookStatus `json:"status"`
	ReservedFor *uuid.UUID `json:"reserved_for,omitempty"`
	ReservedAt  *time.Time `json:"reserved_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Stats summarizes board occupancy.
type Stats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}
