// internal/lookup/druglabel.go
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mcp-med-scan/internal/label"
	"mcp-med-scan/internal/models"
)

const defaultDrugLabelURL = "https://api.fda.gov/drug/label.json"

// drugLabelResponse is the structured drug-label database envelope. Every
// field is an array of strings in this schema, usually with one entry.
type drugLabelResponse struct {
	Results []drugLabelResult `json:"results"`
}

type drugLabelResult struct {
	OpenFDA                 *drugLabelMeta `json:"openfda,omitempty"`
	Purpose                 []string       `json:"purpose,omitempty"`
	Description             []string       `json:"description,omitempty"`
	DosageAndAdministration []string       `json:"dosage_and_administration,omitempty"`
}

type drugLabelMeta struct {
	BrandName     []string `json:"brand_name,omitempty"`
	GenericName   []string `json:"generic_name,omitempty"`
	ProductNDC    []string `json:"product_ndc,omitempty"`
	DosageForm    []string `json:"dosage_form,omitempty"`
	Strength      []string `json:"strength,omitempty"`
	SubstanceName []string `json:"substance_name,omitempty"`
}

// DrugLabelClient queries a drug-label database by the retail UPC embedded
// in the label metadata.
type DrugLabelClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewDrugLabelClient() *DrugLabelClient {
	return &DrugLabelClient{
		BaseURL:    defaultDrugLabelURL,
		httpClient: &http.Client{Timeout: lookupTimeout},
	}
}

func (c *DrugLabelClient) Lookup(ctx context.Context, barcode string) (*models.MedicationRecord, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf("openfda.upc:%s", barcode))
	query.Set("limit", "1")
	reqURL := fmt.Sprintf("%s?%s", c.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &models.LookupError{Kind: models.ErrTransport, Source: models.SourceDrugLabelDB, Message: "building request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.LookupError{Kind: models.ErrTransport, Source: models.SourceDrugLabelDB, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceDrugLabelDB, Message: fmt.Sprintf("no drug label found for barcode %s", barcode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &models.LookupError{Kind: models.ErrServer, Source: models.SourceDrugLabelDB, Message: fmt.Sprintf("server returned status %d", resp.StatusCode)}
	}

	var result drugLabelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.LookupError{Kind: models.ErrDecode, Source: models.SourceDrugLabelDB, Message: "decoding response", Err: err}
	}

	if len(result.Results) == 0 {
		return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceDrugLabelDB, Message: fmt.Sprintf("no drug label found for barcode %s", barcode)}
	}

	return mapDrugLabelResult(result.Results[0]), nil
}

func mapDrugLabelResult(result drugLabelResult) *models.MedicationRecord {
	meta := result.OpenFDA
	if meta == nil {
		meta = &drugLabelMeta{}
	}

	brand := firstOf(meta.BrandName, firstOf(meta.GenericName, firstOf(meta.SubstanceName, models.GenericPlaceholder)))
	generic := firstOf(meta.GenericName, firstOf(meta.SubstanceName, brand))

	dosageText := firstOf(meta.Strength, models.DosageSeeLabel)

	form := models.FormNotSpecified
	if rawForm := firstOf(meta.DosageForm, ""); rawForm != "" {
		form = rawForm
		if canonical, ok := label.ExtractForm(strings.ToLower(rawForm)); ok {
			form = canonical
		}
	}

	rec := &models.MedicationRecord{
		BrandName:    brand,
		GenericName:  generic,
		DosageText:   dosageText,
		Form:         form,
		ScheduleText: scheduleFromAdministration(firstOf(result.DosageAndAdministration, "")),
		DurationText: models.ScheduleAsPrescribed,
		PharmacyCode: firstOf(meta.ProductNDC, ""),
		Description:  firstOf(result.Description, firstOf(result.Purpose, "")),
	}
	return rec
}

// administrationPhrases maps fixed phrases found in administration
// instructions to normalized schedule text, checked in order.
var administrationPhrases = []struct {
	phrase   string
	schedule string
}{
	{"once daily", "Once daily"},
	{"twice daily", "Twice daily"},
	{"three times daily", "Three times daily"},
	{"four times daily", "Four times daily"},
	{"every 4 hours", "Every 4 hours"},
	{"every 6 hours", "Every 6 hours"},
	{"every 8 hours", "Every 8 hours"},
	{"every 12 hours", "Every 12 hours"},
}

func scheduleFromAdministration(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range administrationPhrases {
		if strings.Contains(lower, entry.phrase) {
			return entry.schedule
		}
	}
	return models.ScheduleAsPrescribed
}

func firstOf(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
