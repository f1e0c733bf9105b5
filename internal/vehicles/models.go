package vehicles

import (
	"time"

	"github.com/google/uuid"
)

// VehicleStatus is the closed set of states a vehicle can be in.
type VehicleStatus string

const (
	VehicleStatusParked    VehicleStatus = "parked"
	VehicleStatusRequested VehicleStatus = "requested"
	VehicleStatusRetrieved VehicleStatus = "retrieved"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusParked, VehicleStatusRequested, VehicleStatusRetrieved:
		return true
	}
	return false
}

// Vehicle is the canonical record of a car checked in at the venue. CardID
// is the identifier printed on the claim ticket handed to the guest.
type Vehicle struct {
	ID             int64         `json:"id"`
	CardID         uuid.UUID     `json:"card_id"`
	SequenceNumber int64         `json:"sequence_number"`
	HookNumber     int           `json:"hook_number"`
	LicensePlate   *string       `json:"license_plate,omitempty"`
	Make           *string       `json:"make,omitempty"`
	Model          *string       `json:"model,omitempty"`
	Color          *string       `json:"color,omitempty"`
	CustomerPhone  *string       `json:"customer_phone,omitempty"`
	Status         VehicleStatus `json:"status"`
	CheckInTime    time.Time     `json:"check_in_time"`
	CheckOutTime   *time.Time    `json:"check_out_time,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CheckInRequest is the booth-side check-in payload. HookNumber is optional;
// when omitted the lowest-numbered free hook is assigned.
type CheckInRequest struct {
	CardID        string  `json:"card_id" binding:"required,uuid"`
	HookNumber    *int    `json:"hook_number" binding:"omitempty,hook_number"`
	LicensePlate  *string `json:"license_plate" binding:"omitempty,plate"`
	Make          *string `json:"make" binding:"omitempty,max=50"`
	Model         *string `json:"model" binding:"omitempty,max=50"`
	Color         *string `json:"color" binding:"omitempty,max=30"`
	CustomerPhone *string `json:"customer_phone" binding:"omitempty,phone"`
}

// UpdateRequest corrects vehicle attributes after check-in. Only the
// fields present are touched.
type UpdateRequest struct {
	LicensePlate  *string `json:"license_plate" binding:"omitempty,plate"`
	Make          *string `json:"make" binding:"omitempty,max=50"`
	Model         *string `json:"model" binding:"omitempty,max=50"`
	Color         *string `json:"color" binding:"omitempty,max=30"`
	CustomerPhone *string `json:"customer_phone" binding:"omitempty,phone"`
}

// FeeQuote is a walk-up quote for a currently parked vehicle.
type FeeQuote struct {
	CardID        uuid.UUID `json:"card_id"`
	ParkedMinutes int       `json:"parked_minutes"`
	Amount        float64   `json:"amount"`
}
