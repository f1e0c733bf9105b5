package station

import (
	"time"

	"github.com/google/uuid"
)

// Overview is the live dashboard snapshot shown at the station terminal.
type Overview struct {
	HooksTotal       int     `json:"hooks_total"`
	HooksAvailable   int     `json:"hooks_available"`
	HooksOccupied    int     `json:"hooks_occupied"`
	VehiclesParked   int     `json:"vehicles_parked"`
	QueueDepth       int     `json:"queue_depth"`
	PendingHandovers int     `json:"pending_handovers"`
	DriversOnline    int     `json:"drivers_online"`
	DriversBusy      int     `json:"drivers_busy"`
	CheckInsToday    int     `json:"check_ins_today"`
	RetrievalsToday  int     `json:"retrievals_today"`
	RevenueToday     float64 `json:"revenue_today"`
}

// DailyReport aggregates a single operating day.
type DailyReport struct {
	Date              string  `json:"date"`
	CheckIns          int     `json:"check_ins"`
	CompletedPickups  int     `json:"completed_pickups"`
	CancelledRequests int     `json:"cancelled_requests"`
	PriorityRequests  int     `json:"priority_requests"`
	Revenue           float64 `json:"revenue"`
	Tips              float64 `json:"tips"`
	CashCollected     float64 `json:"cash_collected"`
}

// Closeout is a finalized operating day. One closeout per date.
type Closeout struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	CheckIns  int       `json:"check_ins"`
	Pickups   int       `json:"pickups"`
	Revenue   float64   `json:"revenue"`
	Tips      float64   `json:"tips"`
	ClosedBy  *string   `json:"closed_by,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CashPayment is a cash-settled retrieval as seen from the station drawer.
type CashPayment struct {
	RequestID       int64      `json:"request_id"`
	CardID          uuid.UUID  `json:"card_id"`
	SequenceNumber  int64      `json:"sequence_number"`
	HookNumber      *int       `json:"hook_number,omitempty"`
	Amount          float64    `json:"amount"`
	Tip             float64    `json:"tip"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CashCollectedAt *time.Time `json:"cash_collected_at,omitempty"`
}

// CashPayments splits the drawer into money still owed and money taken today.
type CashPayments struct {
	Pending        []CashPayment `json:"pending"`
	CollectedToday []CashPayment `json:"collected_today"`
	PendingTotal   float64       `json:"pending_total"`
	CollectedTotal float64       `json:"collected_total"`
}

// CloseoutRequest finalizes the given operating day.
type CloseoutRequest struct {
	Date     string  `json:"date" binding:"required,datetime=2006-01-02"`
	ClosedBy *string `json:"closed_by" binding:"omitempty,max=100"`
	Notes    *string `json:"notes" binding:"omitempty,max=1000"`
}
