// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mcp-med-scan/internal/models"
)

// MedicationStore persists saved medications in a local SQLite database.
// This core only writes fully-built records; ownership beyond duplicate
// checking belongs to the application shell.
type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(dbPath string) (*MedicationStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MedicationStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *MedicationStore) Close() error {
	return s.db.Close()
}

func (s *MedicationStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS medications (
        id TEXT PRIMARY KEY,
        brand_name TEXT NOT NULL,
        generic_name TEXT NOT NULL,
        dosage_text TEXT NOT NULL,
        form TEXT NOT NULL,
        schedule_text TEXT NOT NULL,
        duration_text TEXT NOT NULL,
        product_code TEXT,
        pharmacy_code TEXT,
        description TEXT,
        image_url TEXT,
        warnings TEXT,
        times_per_day INTEGER NOT NULL,
        simplified_instructions TEXT NOT NULL,
        scheduled_times TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_medications_brand_name ON medications(brand_name);
    CREATE INDEX IF NOT EXISTS idx_medications_product_code ON medications(product_code);
    CREATE INDEX IF NOT EXISTS idx_medications_created_at ON medications(created_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const medicationColumns = `id, brand_name, generic_name, dosage_text, form, schedule_text,
    duration_text, product_code, pharmacy_code, description, image_url, warnings,
    times_per_day, simplified_instructions, scheduled_times, created_at`

// FindExisting returns a saved medication matching by brand name
// (case-insensitive) or, failing that, by product code. Returns nil when
// no duplicate exists.
func (s *MedicationStore) FindExisting(brandName, productCode string) (*models.MedicationRecord, error) {
	rec, err := s.queryOne(`SELECT `+medicationColumns+` FROM medications WHERE LOWER(brand_name) = ? LIMIT 1`,
		strings.ToLower(brandName))
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	if productCode == "" {
		return nil, nil
	}
	return s.queryOne(`SELECT `+medicationColumns+` FROM medications WHERE product_code = ? LIMIT 1`, productCode)
}

// SaveIfNew inserts the record unless a duplicate already exists, and
// reports whether a row was written. The record's ID and CreatedAt are
// assigned here when missing.
func (s *MedicationStore) SaveIfNew(rec *models.MedicationRecord) (bool, error) {
	existing, err := s.FindExisting(rec.BrandName, rec.ProductCode)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	times, err := json.Marshal(rec.ScheduledTimes)
	if err != nil {
		return false, fmt.Errorf("failed to encode scheduled times: %w", err)
	}

	query := `
        INSERT INTO medications (id, brand_name, generic_name, dosage_text, form, schedule_text,
            duration_text, product_code, pharmacy_code, description, image_url, warnings,
            times_per_day, simplified_instructions, scheduled_times, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.Exec(query,
		rec.ID, rec.BrandName, rec.GenericName, rec.DosageText, rec.Form, rec.ScheduleText,
		rec.DurationText, rec.ProductCode, rec.PharmacyCode, rec.Description, rec.ImageURL,
		rec.Warnings, rec.TimesPerDay, rec.SimplifiedInstructions, string(times),
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to insert medication: %w", err)
	}

	return true, nil
}

// ListMedications returns saved medications newest first, optionally
// bounded by YYYY-MM-DD dates.
func (s *MedicationStore) ListMedications(startDate, endDate string, limit int) ([]*models.MedicationRecord, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE 1=1`
	args := []interface{}{}

	if startDate != "" {
		query += " AND DATE(created_at) >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND DATE(created_at) <= ?"
		args = append(args, endDate)
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var records []*models.MedicationRecord
	for rows.Next() {
		rec, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *MedicationStore) queryOne(query string, args ...interface{}) (*models.MedicationRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medication: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanMedication(rows)
}

func scanMedication(rows *sql.Rows) (*models.MedicationRecord, error) {
	rec := &models.MedicationRecord{}
	var productCode, pharmacyCode, description, imageURL, warnings sql.NullString
	var timesJSON, createdAtStr string

	err := rows.Scan(
		&rec.ID, &rec.BrandName, &rec.GenericName, &rec.DosageText, &rec.Form, &rec.ScheduleText,
		&rec.DurationText, &productCode, &pharmacyCode, &description, &imageURL, &warnings,
		&rec.TimesPerDay, &rec.SimplifiedInstructions, &timesJSON, &createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to scan medication: %w", err)
	}

	rec.ProductCode = productCode.String
	rec.PharmacyCode = pharmacyCode.String
	rec.Description = description.String
	rec.ImageURL = imageURL.String
	rec.Warnings = warnings.String

	if err := json.Unmarshal([]byte(timesJSON), &rec.ScheduledTimes); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled times: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return rec, nil
}
