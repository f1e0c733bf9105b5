package drivers

import "time"

// DriverStatus is the closed set of availability states for a runner.
// Status is advisory for dispatch boards; it is not enforced against the
// requests a driver currently holds.
type DriverStatus string

const (
	DriverStatusOffline DriverStatus = "offline"
	DriverStatusOnline  DriverStatus = "online"
	DriverStatusBusy    DriverStatus = "busy"
	DriverStatusBreak   DriverStatus = "break"
)

// Valid reports whether s is a known driver status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusOffline, DriverStatusOnline, DriverStatusBusy, DriverStatusBreak:
		return true
	}
	return false
}

// Driver is a valet runner who parks and retrieves cars.
type Driver struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Phone     *string      `json:"phone,omitempty"`
	Status    DriverStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// RegisterRequest creates a new driver.
type RegisterRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=100"`
	Phone *string `json:"phone" binding:"omitempty,phone"`
}

// StatusRequest updates a driver's availability.
type StatusRequest struct {
	Status string `json:"status" binding:"required,driver_status"`
}
