// internal/lookup/registry.go
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

const defaultRegistryURL = "https://rxnav.nlm.nih.gov/REST/ndcproperties.json"

// ndcGroupings are the five segment layouts a 10-digit registry code may
// use. Lookups try each in this order until one yields a result.
var ndcGroupings = [][3]int{
	{4, 4, 2},
	{5, 3, 2},
	{5, 4, 1},
	{6, 3, 2},
	{6, 4, 1},
}

// IsPharmacyBarcode reports whether a barcode can embed a pharmacy
// registry code: exactly 12 digits with a leading "3".
func IsPharmacyBarcode(barcode string) bool {
	if len(barcode) != 12 || barcode[0] != '3' {
		return false
	}
	for _, r := range barcode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RegistryCode extracts the raw 10-digit registry code from a pharmacy
// barcode: the middle ten digits, dropping the leading "3" and the check
// digit.
func RegistryCode(barcode string) string {
	return barcode[1:11]
}

// FormatVariants renders a raw 10-digit registry code in all five segment
// groupings, in the fixed order they are tried against the registry.
// Groupings that overrun the raw code drop the empty trailing segment.
func FormatVariants(raw string) []string {
	variants := make([]string, 0, len(ndcGroupings))
	for _, g := range ndcGroupings {
		var segments []string
		offset := 0
		for _, width := range g {
			if offset >= len(raw) {
				break
			}
			end := offset + width
			if end > len(raw) {
				end = len(raw)
			}
			segments = append(segments, raw[offset:end])
			offset = end
		}
		variants = append(variants, strings.Join(segments, "-"))
	}
	return variants
}

type registryResponse struct {
	NDCPropertyList *struct {
		NDCProperty []registryProperty `json:"ndcProperty,omitempty"`
	} `json:"ndcPropertyList,omitempty"`
}

type registryProperty struct {
	ProprietaryName    string              `json:"proprietaryName,omitempty"`
	NonProprietaryName string              `json:"nonProprietaryName,omitempty"`
	DosageFormName     string              `json:"dosageFormName,omitempty"`
	LabelerName        string              `json:"labelerName,omitempty"`
	Packaging          []registryPackaging `json:"packaging,omitempty"`
}

type registryPackaging struct {
	PropertyConceptList *struct {
		PropertyConcept []struct {
			PropName  string `json:"propName,omitempty"`
			PropValue string `json:"propValue,omitempty"`
		} `json:"propertyConcept,omitempty"`
	} `json:"propertyConceptList,omitempty"`
}

// RegistryClient queries a pharmacy drug-registry by formatted NDC code.
type RegistryClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewRegistryClient() *RegistryClient {
	return &RegistryClient{
		BaseURL:    defaultRegistryURL,
		httpClient: &http.Client{Timeout: lookupTimeout},
	}
}

// Lookup tries all five formatted variants of the registry code embedded
// in barcode, returning on the first variant the registry recognizes.
func (c *RegistryClient) Lookup(ctx context.Context, barcode string) (*models.MedicationRecord, error) {
	if !IsPharmacyBarcode(barcode) {
		return nil, &models.LookupError{
			Kind:    models.ErrFormatUnsupported,
			Source:  models.SourceNDCRegistry,
			Message: fmt.Sprintf("barcode %s does not encode a pharmacy registry code", barcode),
		}
	}

	var lastErr error
	for _, variant := range FormatVariants(RegistryCode(barcode)) {
		rec, err := c.lookupVariant(ctx, variant)
		if err != nil {
			lastErr = err
			continue
		}
		return rec, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceNDCRegistry, Message: "no registry entry for any code format"}
}

func (c *RegistryClient) lookupVariant(ctx context.Context, code string) (*models.MedicationRecord, error) {
	reqURL := fmt.Sprintf("%s?id=%s", c.BaseURL, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &models.LookupError{Kind: models.ErrTransport, Source: models.SourceNDCRegistry, Message: "building request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.LookupError{Kind: models.ErrTransport, Source: models.SourceNDCRegistry, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceNDCRegistry, Message: fmt.Sprintf("no registry entry for code %s", code)}
	case resp.StatusCode != http.StatusOK:
		return nil, &models.LookupError{Kind: models.ErrServer, Source: models.SourceNDCRegistry, Message: fmt.Sprintf("server returned status %d", resp.StatusCode)}
	}

	var result registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.LookupError{Kind: models.ErrDecode, Source: models.SourceNDCRegistry, Message: "decoding response", Err: err}
	}

	if result.NDCPropertyList == nil || len(result.NDCPropertyList.NDCProperty) == 0 {
		return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceNDCRegistry, Message: fmt.Sprintf("no registry entry for code %s", code)}
	}

	return mapRegistryProperty(result.NDCPropertyList.NDCProperty[0], code), nil
}

func mapRegistryProperty(prop registryProperty, code string) *models.MedicationRecord {
	brand := prop.ProprietaryName
	if brand == "" {
		brand = prop.NonProprietaryName
	}
	if brand == "" {
		brand = models.GenericPlaceholder
	}

	generic := prop.NonProprietaryName
	if generic == "" {
		generic = brand
	}

	form := models.FormNotSpecified
	if prop.DosageFormName != "" {
		form = prop.DosageFormName
		if canonical, ok := label.ExtractForm(strings.ToLower(prop.DosageFormName)); ok {
			form = canonical
		}
	}

	dosageText := models.DosageSeeLabel
	if strength := packagingStrength(prop.Packaging); strength != "" {
		dosageText = strength
	} else if d, ok := label.ExtractDosage(prop.ProprietaryName); ok {
		dosageText = d
	}

	return &models.MedicationRecord{
		BrandName:    brand,
		GenericName:  generic,
		DosageText:   dosageText,
		Form:         form,
		ScheduleText: models.ScheduleAsPrescribed,
		DurationText: models.DurationNotSpecified,
		PharmacyCode: code,
		Description:  prop.LabelerName,
	}
}

func packagingStrength(packaging []registryPackaging) string {
	for _, pkg := range packaging {
		if pkg.PropertyConceptList == nil {
			continue
		}
		for _, concept := range pkg.PropertyConceptList.PropertyConcept {
			if strings.EqualFold(concept.PropName, "strength") {
				return concept.PropValue
			}
		}
	}
	return ""
}
