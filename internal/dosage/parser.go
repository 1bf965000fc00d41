// internal/dosage/parser.go
package dosage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	everyHoursPattern = regexp.MustCompile(`every\s+(\d+)\s+hour`)
	quantityPattern   = regexp.MustCompile(`\b(\d+)\s+(tablet|pill|capsule|caplet)`)
)

// ParseTimesPerDay derives a dose count from free-text schedule instructions.
// Multi-word frequency phrases are checked before the generic "daily"/"once"
// forms so that "twice daily" is not misread as once a day. Always returns
// at least 1.
func ParseTimesPerDay(scheduleText string) int {
	lower := strings.ToLower(scheduleText)

	switch {
	case containsAny(lower, "four times", "4 times", "qid"):
		return 4
	case containsAny(lower, "three times", "3 times", "tid"):
		return 3
	case containsAny(lower, "twice", "two times", "2 times", "bid"):
		return 2
	case containsAny(lower, "once", "daily", "1 time", "one time"):
		return 1
	}

	if m := everyHoursPattern.FindStringSubmatch(lower); m != nil {
		if hours, err := strconv.Atoi(m[1]); err == nil && hours > 0 {
			if n := 24 / hours; n >= 1 {
				return n
			}
		}
	}

	// Default to once daily when nothing matches.
	return 1
}

// SimplifyInstructions rewrites schedule text as plain language suitable for
// low-literacy or elderly users, e.g. "Take 2 tablets twice a day".
func SimplifyInstructions(scheduleText, form string) string {
	lower := strings.ToLower(scheduleText)
	timesPerDay := ParseTimesPerDay(scheduleText)

	quantity := 1
	if m := quantityPattern.FindStringSubmatch(lower); m != nil {
		if q, err := strconv.Atoi(m[1]); err == nil {
			quantity = q
		}
	}

	formName := formNoun(form, quantity)

	// Deferral phrases override any quantity or frequency in the text.
	if containsAny(lower, "as directed", "as needed") {
		return "Take as your doctor tells you"
	}

	var frequency string
	switch timesPerDay {
	case 1:
		frequency = "each day"
	case 2:
		frequency = "twice a day"
	default:
		frequency = fmt.Sprintf("%d times a day", timesPerDay)
	}

	return fmt.Sprintf("Take %d %s %s", quantity, formName, frequency)
}

func formNoun(form string, quantity int) string {
	lower := strings.ToLower(form)

	var noun string
	switch {
	case strings.Contains(lower, "capsule"):
		noun = "capsule"
	case strings.Contains(lower, "tablet"):
		noun = "tablet"
	default:
		noun = "pill"
	}

	if quantity != 1 {
		noun += "s"
	}
	return noun
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
