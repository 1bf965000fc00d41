// internal/dosage/schedule.go
package dosage

import "mcp-med-scan/internal/models"

// GenerateScheduledTimes returns canonical default reminder times for a
// given daily dose count. Counts above four are spaced evenly through the
// day starting at 08:00. Callers may override individual entries later.
func GenerateScheduledTimes(count int) []models.ClockTime {
	if count < 1 {
		count = 1
	}

	switch count {
	case 1:
		return []models.ClockTime{{Hour: 9}}
	case 2:
		return []models.ClockTime{{Hour: 9}, {Hour: 21}}
	case 3:
		return []models.ClockTime{{Hour: 8}, {Hour: 14}, {Hour: 20}}
	case 4:
		return []models.ClockTime{{Hour: 8}, {Hour: 12}, {Hour: 16}, {Hour: 20}}
	}

	step := 24 / count
	times := make([]models.ClockTime, 0, count)
	for i := 0; i < count; i++ {
		times = append(times, models.ClockTime{Hour: (8 + i*step) % 24})
	}
	return times
}

// ApplyDerived recomputes the derived scheduling fields on a record from
// its schedule text. Called once right after a record is built by any
// parse or lookup path.
func ApplyDerived(rec *models.MedicationRecord) {
	rec.TimesPerDay = ParseTimesPerDay(rec.ScheduleText)
	rec.SimplifiedInstructions = SimplifyInstructions(rec.ScheduleText, rec.Form)
	rec.ScheduledTimes = GenerateScheduledTimes(rec.TimesPerDay)
}
