// internal/label/extract_test.go
package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDosage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		found    bool
	}{
		{"uppercase mg", "LISINOPRIL 10MG TABLET", "10MG", true},
		{"spaced unit", "Vitamin C 500 mg. 500 Tablets", "500 mg", true},
		{"decimal strength", "Levothyroxine 0.5 mg", "0.5 mg", true},
		{"micrograms", "25 mcg daily", "25 mcg", true},
		{"international units", "Vitamin D 1000 IU", "1000 IU", true},
		{"milliliters", "5 ml twice daily", "5 ml", true},
		{"no dosage", "Aspirin tablets", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDosage(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractForm(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		found    bool
	}{
		{"tablet", "lisinopril 10mg tablet", "Tablet", true},
		{"tablets plural", "500 tablets", "Tablet", true},
		{"tab abbreviation", "1 tab daily", "Tablet", true},
		{"capsule", "omeprazole capsule", "Capsule", true},
		{"caps plural", "30 capsules", "Capsule", true},
		{"softgel", "fish oil softgel", "Softgel", true},
		{"liquid", "children's liquid", "Liquid", true},
		{"suspension", "oral suspension", "Suspension", true},
		{"cream", "topical cream", "Cream", true},
		{"inhaler", "albuterol inhaler", "Inhaler", true},
		{"injection", "insulin injection", "Injection", true},
		{"none", "lisinopril 10mg", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractForm(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractParenthetical(t *testing.T) {
	got, ok := ExtractParenthetical("LISINOPRIL (Zestril) 10mg")
	require.True(t, ok)
	assert.Equal(t, "Zestril", got)

	got, ok = ExtractParenthetical("METFORMIN ( glucophage ) 500mg")
	require.True(t, ok)
	assert.Equal(t, "glucophage", got)

	_, ok = ExtractParenthetical("no parens here")
	assert.False(t, ok)

	_, ok = ExtractParenthetical("unclosed (paren")
	assert.False(t, ok)
}

func TestParseNameLine(t *testing.T) {
	parts := ParseNameLine("LISINOPRIL 10MG TABLET")
	assert.Equal(t, "LISINOPRIL", parts.BrandName)
	assert.Equal(t, "LISINOPRIL", parts.GenericName)
	assert.Equal(t, "10MG", parts.DosageText)
	assert.Equal(t, "Tablet", parts.Form)
}

func TestParseNameLineGenericFromParenthetical(t *testing.T) {
	parts := ParseNameLine("ZESTRIL (lisinopril) 10MG TABLET")
	assert.Equal(t, "lisinopril", parts.GenericName)
	assert.Contains(t, parts.BrandName, "ZESTRIL")
}

func TestParseNameLinePlaceholders(t *testing.T) {
	parts := ParseNameLine("Mystery Medicine")
	assert.Equal(t, "Mystery Medicine", parts.BrandName)
	assert.Equal(t, "See label", parts.DosageText)
	assert.Equal(t, "Not specified", parts.Form)
}

// Stripping dosage and form must never leave an empty brand name.
func TestParseNameLineNeverEmptyBrand(t *testing.T) {
	parts := ParseNameLine("10MG TABLET")
	assert.Equal(t, "10MG TABLET", parts.BrandName)
}

func TestParseOCRText(t *testing.T) {
	text := "LISINOPRIL 10MG TABLET\nTake 1 tablet twice daily\nwith food"

	rec, err := ParseOCRText(text)
	require.NoError(t, err)
	assert.Equal(t, "LISINOPRIL", rec.BrandName)
	assert.Equal(t, "10MG", rec.DosageText)
	assert.Equal(t, "Tablet", rec.Form)
	assert.Equal(t, "Take 1 tablet twice daily with food", rec.ScheduleText)
	assert.Equal(t, "As prescribed", rec.DurationText)
}

func TestParseOCRTextCollapsesBlankLines(t *testing.T) {
	text := "AMOXICILLIN 500MG CAPSULE\n\n\nTake 1 capsule three times daily"

	rec, err := ParseOCRText(text)
	require.NoError(t, err)
	assert.Equal(t, "AMOXICILLIN", rec.BrandName)
	assert.Equal(t, "Take 1 capsule three times daily", rec.ScheduleText)
}

func TestParseOCRTextNotEnoughLines(t *testing.T) {
	_, err := ParseOCRText("LISINOPRIL 10MG")
	assert.ErrorIs(t, err, ErrNotEnoughText)

	_, err = ParseOCRText("")
	assert.ErrorIs(t, err, ErrNotEnoughText)
}
