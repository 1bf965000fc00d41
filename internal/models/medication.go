// internal/models/medication.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder values used when a source or parser cannot supply a field.
// Records never carry empty strings for these fields.
const (
	DosageSeeLabel       = "See label"
	FormNotSpecified     = "Not specified"
	GenericPlaceholder   = "Prescription Medication"
	ScheduleAsDirected   = "As directed"
	ScheduleAsPrescribed = "As prescribed"
	DurationNotSpecified = "Not specified"
)

// ClockTime is a time of day with minute resolution, serialized as "HH:MM".
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("clock time %q out of range", s)
	}
	c.Hour, c.Minute = hour, minute
	return nil
}

type MedicationRecord struct {
	ID                     string      `json:"id,omitempty"`
	BrandName              string      `json:"brand_name"`
	GenericName            string      `json:"generic_name"`
	DosageText             string      `json:"dosage_text"`
	Form                   string      `json:"form"`
	ScheduleText           string      `json:"schedule_text"`
	DurationText           string      `json:"duration_text"`
	ProductCode            string      `json:"product_code,omitempty"`
	PharmacyCode           string      `json:"pharmacy_code,omitempty"`
	Description            string      `json:"description,omitempty"`
	ImageURL               string      `json:"image_url,omitempty"`
	Warnings               string      `json:"warnings,omitempty"`
	TimesPerDay            int         `json:"times_per_day"`
	SimplifiedInstructions string      `json:"simplified_instructions"`
	ScheduledTimes         []ClockTime `json:"scheduled_times"`
	CreatedAt              time.Time   `json:"created_at,omitempty"`
}

// ParsedLabel is the structured reply expected from the AI label interpreter.
type ParsedLabel struct {
	Name       string `json:"name"`
	Directions string `json:"directions"`
	Warnings   string `json:"warnings"`
}

// FormIcon maps a dosage form to a stable icon keyword for UI clients.
func FormIcon(form string) string {
	lower := strings.ToLower(form)
	switch {
	case strings.Contains(lower, "capsule"):
		return "capsule"
	case strings.Contains(lower, "gummy"), strings.Contains(lower, "gummies"):
		return "gummy"
	case strings.Contains(lower, "tablet"), strings.Contains(lower, "pill"):
		return "pill"
	case strings.Contains(lower, "liquid"):
		return "drop"
	case strings.Contains(lower, "powder"):
		return "powder"
	case strings.Contains(lower, "inhaler"):
		return "inhaler"
	case strings.Contains(lower, "injection"):
		return "syringe"
	case strings.Contains(lower, "cream"):
		return "cream"
	default:
		return "pill"
	}
}
