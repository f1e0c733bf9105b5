package pricing

import "time"

// Tariff holds the venue's pricing knobs, loaded from the settings table.
type Tariff struct {
	BaseFee         float64 `json:"base_fee"`
	PriorityFee     float64 `json:"priority_fee"`
	HourlyRate      float64 `json:"hourly_rate"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	SurgeEnabled    bool    `json:"surge_enabled"`
}

// Walk-up fee band constants. These apply only to the on-the-spot quote
// shown at the booth, not to settings-driven retrieval pricing.
const (
	WalkUpBaseFee     = 15.0
	WalkUpHourlyFee   = 5.0
	WalkUpCoveredMins = 180
	WalkUpDailyMax    = 40.0
)

// DefaultTariff is used to seed the settings table on first boot.
func DefaultTariff() Tariff {
	return Tariff{
		BaseFee:         15,
		PriorityFee:     10,
		HourlyRate:      5,
		SurgeMultiplier: 1.0,
		SurgeEnabled:    false,
	}
}

// Breakdown itemizes a retrieval fee quote.
type Breakdown struct {
	Base     float64 `json:"base"`
	Hourly   float64 `json:"hourly"`
	Priority float64 `json:"priority"`
	Surge    float64 `json:"surge"`
	Total    float64 `json:"total"`
}

// PaymentRecord is one row of the payment history view.
type PaymentRecord struct {
	RequestID     int64      `json:"request_id"`
	CardID        string     `json:"card_id"`
	LicensePlate  *string    `json:"license_plate,omitempty"`
	Amount        float64    `json:"amount"`
	Tip           float64    `json:"tip"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	IsPriority    bool       `json:"is_priority"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// CalculateFeeRequest is the booth-side quote request.
type CalculateFeeRequest struct {
	CardID     string `json:"card_id" binding:"required,uuid"`
	IsPriority bool   `json:"is_priority"`
}

// UpdateTariffRequest updates one or more pricing settings.
type UpdateTariffRequest struct {
	BaseFee         *float64 `json:"base_fee" binding:"omitempty,gte=0"`
	PriorityFee     *float64 `json:"priority_fee" binding:"omitempty,gte=0"`
	HourlyRate      *float64 `json:"hourly_rate" binding:"omitempty,gte=0"`
	SurgeMultiplier *float64 `json:"surge_multiplier" binding:"omitempty,gte=1"`
	SurgeEnabled    *bool    `json:"surge_enabled"`
}

// FeeQuote is the response for a booth-side quote.
type FeeQuote struct {
	CardID        string    `json:"card_id"`
	ParkedMinutes int       `json:"parked_minutes"`
	IsPriority    bool      `json:"is_priority"`
	Breakdown     Breakdown `json:"breakdown"`
}
