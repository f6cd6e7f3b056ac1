package models

// Reservation is a scheduled block instruction for a controller
type Reservation struct {
	ID           int    `json:"id"`
	ControllerID int    `json:"controllerId"`
	Time         string `json:"time"`      // "HH:MM", 24-hour
	DateLabel    string `json:"dateLabel"` // absolute date or "매주 ..." weekday set
	IsOn         bool   `json:"isOn"`
}

// Controller is a power-switching device
type Controller struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}
