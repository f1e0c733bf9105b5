package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// VehicleCheckedInData is emitted when a valet parks a car and assigns a hook.
type VehicleCheckedInData struct {
	VehicleID      int64     `json:"vehicle_id"`
	CardID         uuid.UUID `json:"card_id"`
	SequenceNumber int64     `json:"sequence_number"`
	HookNumber     int       `json:"hook_number"`
	LicensePlate   string    `json:"license_plate,omitempty"`
	CheckInTime    time.Time `json:"check_in_time"`
}

// VehicleRetrievedData is emitted when a car leaves the venue.
type VehicleRetrievedData struct {
	VehicleID    int64     `json:"vehicle_id"`
	CardID       uuid.UUID `json:"card_id"`
	HookNumber   int       `json:"hook_number"`
	CheckOutTime time.Time `json:"check_out_time"`
}

// RetrievalRequestedData is emitted when a guest asks for their car back.
type RetrievalRequestedData struct {
	RequestID   int64     `json:"request_id"`
	VehicleID   int64     `json:"vehicle_id"`
	CardID      uuid.UUID `json:"card_id"`
	HookNumber  int       `json:"hook_number"`
	IsPriority  bool      `json:"is_priority"`
	Amount      float64   `json:"amount"`
	RequestedAt time.Time `json:"requested_at"`
}

// RetrievalAssignedData is emitted when a runner claims a request.
type RetrievalAssignedData struct {
	RequestID  int64     `json:"request_id"`
	DriverID   int64     `json:"driver_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// RetrievalReadyData is emitted when the car is staged at the pickup lane.
type RetrievalReadyData struct {
	RequestID  int64     `json:"request_id"`
	HookNumber int       `json:"hook_number"`
	ReadyAt    time.Time `json:"ready_at"`
}

// RetrievalCompletedData is emitted when keys are handed over.
type RetrievalCompletedData struct {
	RequestID   int64     `json:"request_id"`
	VehicleID   int64     `json:"vehicle_id"`
	CardID      uuid.UUID `json:"card_id"`
	HookNumber  int       `json:"hook_number"`
	Amount      float64   `json:"amount"`
	CompletedAt time.Time `json:"completed_at"`
}

// RetrievalCancelledData is emitted when a request is cancelled before pickup.
type RetrievalCancelledData struct {
	RequestID   int64     `json:"request_id"`
	VehicleID   int64     `json:"vehicle_id"`
	CardID      uuid.UUID `json:"card_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// PaymentCollectedData is emitted when cash for a retrieval is collected.
type PaymentCollectedData struct {
	RequestID   int64     `json:"request_id"`
	Method      string    `json:"method"`
	Amount      float64   `json:"amount"`
	Tip         float64   `json:"tip,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// DriverStatusChangedData is emitted when a runner changes availability.
type DriverStatusChangedData struct {
	DriverID  int64     `json:"driver_id"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}
