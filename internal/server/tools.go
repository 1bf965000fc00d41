// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-med-scan/internal/dosage"
	"mcp-med-scan/internal/label"
	"mcp-med-scan/internal/models"
)

type LookupMedicationParams struct {
	Barcode string `json:"barcode" description:"Scanned barcode/UPC to look up"`
	Save    bool   `json:"save,omitempty" description:"Whether to save the medication when found"`
}

type ParseLabelParams struct {
	Text string `json:"text" description:"OCR'd prescription label text"`
	Save bool   `json:"save,omitempty" description:"Whether to save the medication when parsed"`
}

type SimplifyScheduleParams struct {
	ScheduleText string `json:"schedule_text" description:"Free-text dosing instructions"`
	Form         string `json:"form,omitempty" description:"Dosage form (Tablet, Capsule, ...)"`
}

type GetMedicationsParams struct {
	StartDate string `json:"start_date,omitempty" description:"Start date for medication query (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"End date for medication query (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of medications to return"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

// handleLookupMedication resolves a scanned barcode through the fallback
// chain and optionally saves the result.
func (s *MedScanServer) handleLookupMedication(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LookupMedicationParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Barcode == "" {
		return nil, fmt.Errorf("barcode is required")
	}

	rec, source, err := s.orchestrator.Lookup(ctx, params.Barcode)
	if err != nil {
		// Lookup failures are data for the caller's UI, not tool errors.
		return s.createJSONResponse(map[string]interface{}{
			"found": false,
			"error": err.Error(),
		})
	}

	result := map[string]interface{}{
		"found":      true,
		"source":     source,
		"medication": rec,
		"form_icon":  models.FormIcon(rec.Form),
	}

	if params.Save {
		saved, err := s.storage.SaveIfNew(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to save medication: %w", err)
		}
		result["saved"] = saved
		result["duplicate"] = !saved
	}

	return s.createJSONResponse(result)
}

// handleParseLabel turns OCR'd prescription label text into a medication
// record, asking the AI interpreter first and falling back to rule-based
// parsing when it is unavailable.
func (s *MedScanServer) handleParseLabel(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ParseLabelParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Text == "" {
		return nil, fmt.Errorf("label text is required")
	}

	rec, origin, err := s.parseLabelText(ctx, params.Text)
	if err != nil {
		if errors.Is(err, label.ErrNotEnoughText) {
			return s.createJSONResponse(map[string]interface{}{
				"found": false,
				"error": "could not read prescription label",
			})
		}
		return nil, err
	}

	result := map[string]interface{}{
		"found":      true,
		"origin":     origin,
		"medication": rec,
		"form_icon":  models.FormIcon(rec.Form),
	}

	if params.Save {
		saved, err := s.storage.SaveIfNew(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to save medication: %w", err)
		}
		result["saved"] = saved
		result["duplicate"] = !saved
	}

	return s.createJSONResponse(result)
}

// parseLabelText is the AI-first label pipeline. Both paths feed the same
// dosage parser so all data origins normalize identically.
func (s *MedScanServer) parseLabelText(ctx context.Context, text string) (*models.MedicationRecord, string, error) {
	if parsed := s.interpreter.ParseLabel(ctx, text); parsed != nil {
		parts := label.ParseNameLine(parsed.Name)

		schedule := parsed.Directions
		if schedule == "" {
			schedule = models.ScheduleAsDirected
		}

		rec := &models.MedicationRecord{
			BrandName:    parts.BrandName,
			GenericName:  parts.GenericName,
			DosageText:   parts.DosageText,
			Form:         parts.Form,
			ScheduleText: schedule,
			DurationText: models.ScheduleAsPrescribed,
			Warnings:     parsed.Warnings,
		}
		dosage.ApplyDerived(rec)
		return rec, "ai", nil
	}

	rec, err := label.ParseOCRText(text)
	if err != nil {
		return nil, "", err
	}
	dosage.ApplyDerived(rec)
	return rec, "manual", nil
}

// handleSimplifySchedule exposes the dosage parser directly: times per
// day, plain-language instructions and default reminder times for a
// schedule string.
func (s *MedScanServer) handleSimplifySchedule(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SimplifyScheduleParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.ScheduleText == "" {
		return nil, fmt.Errorf("schedule text is required")
	}

	timesPerDay := dosage.ParseTimesPerDay(params.ScheduleText)
	result := map[string]interface{}{
		"times_per_day":           timesPerDay,
		"simplified_instructions": dosage.SimplifyInstructions(params.ScheduleText, params.Form),
		"scheduled_times":         dosage.GenerateScheduledTimes(timesPerDay),
	}

	return s.createJSONResponse(result)
}

// handleGetMedications retrieves saved medications from storage
func (s *MedScanServer) handleGetMedications(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMedicationsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}

	records, err := s.storage.ListMedications(params.StartDate, params.EndDate, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve medications: %w", err)
	}

	return s.createJSONResponse(records)
}

// Register all tools - handled manually in the HTTP handler, this just
// verifies the handlers exist.
func (s *MedScanServer) registerTools() error {
	tools := []string{
		"lookup_medication",
		"parse_label",
		"simplify_schedule",
		"get_medications",
	}

	for _, name := range tools {
		s.log.Debug().Str("tool", name).Msg("registered tool")
	}

	return nil
}
