package reports

import (
	"encoding/json"
	"time"
)

// ID tipe untuk Report
type ReportID string

// Severity enum
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity checks the enum case-sensitively; the oracle is told to use
// lowercase values and anything else falls back to the degraded report.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Location is a center point on the scan image, both axes in percent 0-100.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Abnormality value object. Location is optional: legacy oracle output
// emits bare strings without coordinates.
type Abnormality struct {
	Description string    `json:"text"`
	Location    *Location `json:"coordinates,omitempty"`
}

// UnmarshalJSON accepts both abnormality shapes the oracle has produced over
// time: a bare string, or {"text": ..., "coordinates": {"x":..,"y":..}}.
// Coordinates outside [0,100] are clamped, not rejected.
func (a *Abnormality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Description = s
		a.Location = nil
		return nil
	}

	var obj struct {
		Text        string    `json:"text"`
		Description string    `json:"description"`
		Coordinates *Location `json:"coordinates"`
		Location    *Location `json:"location"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Description = obj.Text
	if a.Description == "" {
		a.Description = obj.Description
	}
	a.Location = obj.Coordinates
	if a.Location == nil {
		a.Location = obj.Location
	}
	if a.Location != nil {
		a.Location.X = clampPercent(a.Location.X)
		a.Location.Y = clampPercent(a.Location.Y)
	}
	return nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Aggregate Root: Report
//
// Every field except Name is write-once: a report is created from one
// normalized oracle response and never mutated afterwards.
type Report struct {
	ID              ReportID      `json:"id"`
	OwnerID         string        `json:"user_id"`
	ImageURL        string        `json:"scan_url"`
	Name            string        `json:"scan_name"`
	Narrative       string        `json:"analysis"`
	Severity        Severity      `json:"severity"`
	Abnormalities   []Abnormality `json:"abnormalities"`
	Precautions     []string      `json:"precautions"`
	Recommendations []string      `json:"recommendations"`
	CreatedAt       time.Time     `json:"created_at"`
}

// SeveritySummary aggregate over a time window.
type SeveritySummary struct {
	Total    int `json:"total_reports"`
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}
