package pricing

import (
	"math"
	"time"
)

// BandTariff parameterizes the duration-banded walk-up quote. The base fee
// covers the first ThresholdMinutes; every additional started hour adds the
// hourly fee, with the duration-based portion capped at the daily maximum.
type BandTariff struct {
	Base             float64
	Hourly           float64
	ThresholdMinutes int
	PrioritySurcharge float64
	DailyMax         float64
}

// DefaultBandTariff returns the booth's standing walk-up rates.
func DefaultBandTariff() BandTariff {
	return BandTariff{
		Base:              WalkUpBaseFee,
		Hourly:            WalkUpHourlyFee,
		ThresholdMinutes:  WalkUpCoveredMins,
		PrioritySurcharge: DefaultTariff().PriorityFee,
		DailyMax:          WalkUpDailyMax,
	}
}

// Quote computes the duration-banded fee for a stay of parkedMinutes.
// The priority surcharge is flat and added after the daily cap, so an
// expedited pickup always costs more than a standard one.
func Quote(parkedMinutes int, isPriority bool, t BandTariff) float64 {
	fee := t.Base
	if parkedMinutes > t.ThresholdMinutes {
		extraHours := math.Ceil(float64(parkedMinutes-t.ThresholdMinutes) / 60)
		fee += extraHours * t.Hourly
	}
	if t.DailyMax > 0 {
		fee = math.Min(fee, t.DailyMax)
	}
	if isPriority {
		fee += t.PrioritySurcharge
	}
	return roundCents(fee)
}

// WalkUpFee is the standard-rate banded quote for a parked duration.
func WalkUpFee(parked time.Duration) float64 {
	return Quote(int(parked.Minutes()), false, DefaultBandTariff())
}

// RetrievalFee computes the settings-driven fee charged when a car is
// requested back. The base fee covers the first hour; each further started
// hour adds the hourly rate. Priority requests pay the priority surcharge.
// Surge, when enabled, multiplies the whole amount. There is no cap.
//
// This formula and Quote evolved independently at their two call sites and
// are kept separate on purpose. See DESIGN.md.
func RetrievalFee(t Tariff, parked time.Duration, isPriority bool) Breakdown {
	hours := math.Ceil(parked.Hours())
	if hours < 1 {
		hours = 1
	}

	b := Breakdown{
		Base:   t.BaseFee,
		Hourly: (hours - 1) * t.HourlyRate,
	}
	if isPriority {
		b.Priority = t.PriorityFee
	}

	subtotal := b.Base + b.Hourly + b.Priority
	total := subtotal
	if t.SurgeEnabled && t.SurgeMultiplier > 1 {
		total = subtotal * t.SurgeMultiplier
		b.Surge = roundCents(total - subtotal)
	}

	b.Total = roundCents(total)
	return b
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
