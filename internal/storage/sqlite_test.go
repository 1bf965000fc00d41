// internal/storage/sqlite_test.go
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-med-scan/internal/models"
)

func newTestStore(t *testing.T) *MedicationStore {
	t.Helper()
	store, err := NewMedicationStore(filepath.Join(t.TempDir(), "med-scan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(brand, productCode string) *models.MedicationRecord {
	return &models.MedicationRecord{
		BrandName:              brand,
		GenericName:            "Lisinopril",
		DosageText:             "10MG",
		Form:                   "Tablet",
		ScheduleText:           "Take 1 tablet twice daily",
		DurationText:           "As prescribed",
		ProductCode:            productCode,
		TimesPerDay:            2,
		SimplifiedInstructions: "Take 1 tablet twice a day",
		ScheduledTimes:         []models.ClockTime{{Hour: 9}, {Hour: 21}},
	}
}

func TestSaveIfNewInsertsAndAssignsID(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRecord("Zestril", "312345678903")
	saved, err := store.SaveIfNew(rec)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSaveIfNewRejectsDuplicateBrand(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveIfNew(sampleRecord("Zestril", "312345678903"))
	require.NoError(t, err)
	require.True(t, saved)

	// Brand comparison is case-insensitive.
	saved, err = store.SaveIfNew(sampleRecord("ZESTRIL", "999999999999"))
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestSaveIfNewRejectsDuplicateProductCode(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveIfNew(sampleRecord("Zestril", "312345678903"))
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = store.SaveIfNew(sampleRecord("Different Name", "312345678903"))
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestFindExisting(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveIfNew(sampleRecord("Zestril", "312345678903"))
	require.NoError(t, err)

	found, err := store.FindExisting("zestril", "")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Zestril", found.BrandName)

	found, err = store.FindExisting("Unknown", "312345678903")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Zestril", found.BrandName)

	found, err = store.FindExisting("Unknown", "000000000000")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRecord("Zestril", "312345678903")
	rec.PharmacyCode = "12345-6789-0"
	rec.Description = "ACE inhibitor"
	rec.Warnings = "May cause dizziness"

	_, err := store.SaveIfNew(rec)
	require.NoError(t, err)

	records, err := store.ListMedications("", "", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, rec.BrandName, got.BrandName)
	assert.Equal(t, rec.DosageText, got.DosageText)
	assert.Equal(t, rec.PharmacyCode, got.PharmacyCode)
	assert.Equal(t, rec.Warnings, got.Warnings)
	assert.Equal(t, rec.TimesPerDay, got.TimesPerDay)
	assert.Equal(t, []models.ClockTime{{Hour: 9}, {Hour: 21}}, got.ScheduledTimes)
}

func TestListMedicationsLimitAndOrder(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().UTC().Add(-3 * time.Hour)
	for i, brand := range []string{"First", "Second", "Third"} {
		rec := sampleRecord(brand, "")
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		saved, err := store.SaveIfNew(rec)
		require.NoError(t, err)
		require.True(t, saved)
	}

	records, err := store.ListMedications("", "", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Third", records[0].BrandName)
	assert.Equal(t, "Second", records[1].BrandName)
}
