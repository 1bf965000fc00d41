// internal/label/parse.go
package label

import (
	"errors"
	"strings"

	"mcp-med-scan/internal/models"
)

// ErrNotEnoughText is returned when OCR text has too few usable lines to
// split into a name and directions.
var ErrNotEnoughText = errors.New("not enough text on label")

// NameParts is the result of splitting a single medication-name line into
// its components. BrandName is never empty; when stripping the dosage and
// form leaves nothing, the original line is kept instead.
type NameParts struct {
	BrandName   string
	GenericName string
	DosageText  string
	Form        string
}

// ParseNameLine splits a name line such as "LISINOPRIL (Zestril) 10MG TABLET"
// into brand, generic, dosage and form, with placeholders for anything
// that cannot be extracted.
func ParseNameLine(line string) NameParts {
	brand := line

	dosage, hasDosage := ExtractDosage(line)
	if hasDosage {
		brand = strings.TrimSpace(strings.ReplaceAll(brand, dosage, ""))
	}

	form, hasForm := ExtractForm(strings.ToLower(line))
	if hasForm {
		brand = strings.ReplaceAll(brand, strings.ToUpper(form), "")
		brand = strings.ReplaceAll(brand, form, "")
		brand = strings.TrimSpace(brand)
	}

	if brand == "" {
		brand = line
	}

	generic := brand
	if p, ok := ExtractParenthetical(line); ok {
		generic = p
	}

	parts := NameParts{
		BrandName:   brand,
		GenericName: generic,
		DosageText:  models.DosageSeeLabel,
		Form:        models.FormNotSpecified,
	}
	if hasDosage {
		parts.DosageText = dosage
	}
	if hasForm {
		parts.Form = form
	}
	return parts
}

// ParseOCRText is the rule-based fallback for scanned prescription labels:
// the first non-empty line is the medication name, the remaining lines
// joined by spaces are the directions.
func ParseOCRText(text string) (*models.MedicationRecord, error) {
	cleaned := strings.ReplaceAll(text, "\n\n", "\n")

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return nil, ErrNotEnoughText
	}

	parts := ParseNameLine(lines[0])
	directions := strings.Join(lines[1:], " ")
	if directions == "" {
		directions = models.ScheduleAsDirected
	}

	return &models.MedicationRecord{
		BrandName:    parts.BrandName,
		GenericName:  parts.GenericName,
		DosageText:   parts.DosageText,
		Form:         parts.Form,
		ScheduleText: directions,
		DurationText: models.ScheduleAsPrescribed,
	}, nil
}
