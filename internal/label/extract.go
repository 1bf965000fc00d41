// internal/label/extract.go
package label

import (
	"regexp"
	"strings"
)

var dosagePattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(mg|mcg|g|ml|iu|units?|%)\b`)

// formKeywords is scanned in order; earlier entries win so that plural and
// abbreviated spellings canonicalize before the generic forms.
var formKeywords = []string{
	"tablet", "tablets", "tab",
	"capsule", "capsules", "cap",
	"softgel", "softgels",
	"liquid", "solution", "suspension",
	"cream", "ointment", "gel",
	"patch", "patches",
	"inhaler", "spray",
	"injection", "injectable",
}

// ExtractDosage returns the first strength expression in text, verbatim
// including its unit, e.g. "10MG" from "LISINOPRIL 10MG TABLET".
func ExtractDosage(text string) (string, bool) {
	m := dosagePattern.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// ExtractForm returns the canonical dosage form matched in already
// lowercased text: "Tablet", "Capsule", or the capitalized keyword.
func ExtractForm(lowerText string) (string, bool) {
	for _, keyword := range formKeywords {
		if !strings.Contains(lowerText, keyword) {
			continue
		}
		switch keyword {
		case "tablets", "tab":
			return "Tablet", true
		case "capsules", "cap":
			return "Capsule", true
		default:
			return capitalize(keyword), true
		}
	}
	return "", false
}

// ExtractParenthetical returns the trimmed content between the first "("
// and the first ")" after it. Brand-name lines often carry the generic
// name this way, e.g. "LISINOPRIL (Zestril) 10mg".
func ExtractParenthetical(text string) (string, bool) {
	start := strings.Index(text, "(")
	if start == -1 {
		return "", false
	}
	end := strings.Index(text[start:], ")")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(text[start+1 : start+end]), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
