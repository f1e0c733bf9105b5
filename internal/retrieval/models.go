package retrieval

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the closed set of states a retrieval request moves through.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusReady      RequestStatus = "ready"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions is the full table of legal state changes. A request can jump
// straight from pending to ready when the runner stages the car before
// formally accepting the job.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusAssigned, StatusReady, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusReady, StatusCancelled},
	StatusInProgress: {StatusReady},
	StatusReady:      {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether moving from one status to another is legal.
// Unknown statuses never transition anywhere.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RetrievalRequest is one guest's ask to get their car back. Amount is
// locked in at request time so the price cannot move while they wait.
type RetrievalRequest struct {
	ID            int64         `json:"id"`
	VehicleID     int64         `json:"vehicle_id"`
	CardID        uuid.UUID     `json:"card_id"`
	IsPriority    bool          `json:"is_priority"`
	Status        RequestStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Tip           float64       `json:"tip"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	DriverID      *int64        `json:"driver_id,omitempty"`
	CancelReason  *string       `json:"cancel_reason,omitempty"`
	RequestedAt   time.Time     `json:"requested_at"`
	AssignedAt    *time.Time    `json:"assigned_at,omitempty"`
	PickedUpAt    *time.Time    `json:"picked_up_at,omitempty"`
	CarReadyAt    *time.Time    `json:"car_ready_at,omitempty"`
	KeysHandedAt  *time.Time    `json:"keys_handed_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CashCollectedAt *time.Time  `json:"cash_collected_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// QueueEntry is the joined read model used by every queue-style view, so
// the request/vehicle/driver join lives in exactly one query.
type QueueEntry struct {
	RequestID      int64         `json:"request_id"`
	VehicleID      int64         `json:"vehicle_id"`
	CardID         uuid.UUID     `json:"card_id"`
	SequenceNumber int64         `json:"sequence_number"`
	HookNumber     int           `json:"hook_number"`
	LicensePlate   *string       `json:"license_plate,omitempty"`
	Make           *string       `json:"make,omitempty"`
	Model          *string       `json:"model,omitempty"`
	Color          *string       `json:"color,omitempty"`
	IsPriority     bool          `json:"is_priority"`
	Status         RequestStatus `json:"status"`
	Amount         float64       `json:"amount"`
	DriverID       *int64        `json:"driver_id,omitempty"`
	DriverName     *string       `json:"driver_name,omitempty"`
	RequestedAt    time.Time     `json:"requested_at"`
	CarReadyAt     *time.Time    `json:"car_ready_at,omitempty"`
}

// EnqueueRequest is the guest-facing retrieval request payload.
type EnqueueRequest struct {
	CardID     string `json:"card_id" binding:"required,uuid"`
	IsPriority bool   `json:"is_priority"`
}

// EnqueueConflict is returned alongside a duplicate-request conflict so the
// client can resume tracking the existing request.
type EnqueueConflict struct {
	ExistingID     int64         `json:"existing_request_id"`
	ExistingStatus RequestStatus `json:"existing_status"`
}

// AcceptRequest identifies the runner claiming a request.
type AcceptRequest struct {
	DriverID int64 `json:"driver_id" binding:"required,gte=1"`
}

// CancelRequest carries an optional cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// PaymentMethodRequest selects how the guest will settle the fee.
type PaymentMethodRequest struct {
	Method string `json:"method" binding:"required,payment_method"`
}

// CollectCashRequest records a cash settlement with an optional tip.
type CollectCashRequest struct {
	Tip float64 `json:"tip" binding:"omitempty,gte=0"`
}

// CompleteByCardRequest finalizes a retrieval looked up by claim card.
type CompleteByCardRequest struct {
	CardID string `json:"card_id" binding:"required,uuid"`
}
