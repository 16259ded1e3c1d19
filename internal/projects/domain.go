package projects

import "time"

// Status enumerates the lifecycle of a construction project.
type Status string

const (
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusDone     Status = "done"
)

// Statuses lists every valid project status.
func Statuses() []Status {
	return []Status{StatusPlanning, StatusActive, StatusPaused, StatusDone}
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPlanning, StatusActive, StatusPaused, StatusDone:
		return true
	}
	return false
}

// Project is a construction / social-impact project.
type Project struct {
	ID          int64    `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	BudgetCents int64    `json:"budget_cents"`
	Progress    int      `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusCount aggregates projects per status for the dashboard.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// StatusLabel returns the Portuguese label shown in the UI.
func StatusLabel(s Status) string {
	switch s {
	case StatusPlanning:
		return "planejamento"
	case StatusActive:
		return "em andamento"
	case StatusPaused:
		return "pausado"
	case StatusDone:
		return "concluído"
	}
	return string(s)
}

// ProgressPoint is the average progress of ongoing projects in one month.
type ProgressPoint struct {
	Month   string  `json:"month"`
	Average float64 `json:"average"`
}
