// internal/lookup/productdb.go
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

const defaultProductDBURL = "https://api.upcitemdb.com/prod/trial/lookup"

// productDBResponse is the retail UPC database envelope.
type productDBResponse struct {
	Code   string          `json:"code"`
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Items  []productDBItem `json:"items"`
}

type productDBItem struct {
	EAN         string   `json:"ean"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	UPC         string   `json:"upc"`
	Brand       string   `json:"brand,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// ProductDBClient queries a retail product database keyed by barcode/UPC.
type ProductDBClient struct {
	BaseURL    string
	httpClient *http.Client
}

func NewProductDBClient() *ProductDBClient {
	return &ProductDBClient{
		BaseURL:    defaultProductDBURL,
		httpClient: &http.Client{Timeout: lookupTimeout},
	}
}

func (c *ProductDBClient) Lookup(ctx context.Context, barcode string) (*models.MedicationRecord, error) {
	reqURL := fmt.Sprintf("%s?upc=%s", c.BaseURL, url.QueryEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &models.LookupError{Kind: models.ErrTransport, Source: models.SourceProductDB, Message: "building request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.LookupError{Kind: models.ErrTransport, Source: models.SourceProductDB, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceProductDB, Message: fmt.Sprintf("no product found for barcode %s", barcode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &models.LookupError{Kind: models.ErrServer, Source: models.SourceProductDB, Message: fmt.Sprintf("server returned status %d", resp.StatusCode)}
	}

	var result productDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.LookupError{Kind: models.ErrDecode, Source: models.SourceProductDB, Message: "decoding response", Err: err}
	}

	if len(result.Items) == 0 {
		return nil, &models.LookupError{Kind: models.ErrNotFound, Source: models.SourceProductDB, Message: fmt.Sprintf("no product found for barcode %s", barcode)}
	}

	return mapProductItem(result.Items[0], barcode), nil
}

func mapProductItem(item productDBItem, barcode string) *models.MedicationRecord {
	brand := item.Brand
	if brand == "" {
		brand = "Unknown"
	}

	dosageText := models.DosageSeeLabel
	if d, ok := label.ExtractDosage(item.Title); ok {
		dosageText = d
	}

	form := models.FormNotSpecified
	if f, ok := label.ExtractForm(strings.ToLower(item.Title)); ok {
		form = f
	}

	rec := &models.MedicationRecord{
		BrandName:    brand,
		GenericName:  genericFromTitle(item.Title, item.Description),
		DosageText:   dosageText,
		Form:         form,
		ScheduleText: models.ScheduleAsDirected,
		DurationText: models.DurationNotSpecified,
		ProductCode:  barcode,
		Description:  item.Description,
	}
	if len(item.Images) > 0 {
		rec.ImageURL = item.Images[0]
	}
	return rec
}

// commonGenericNames are supplement and OTC names matched against retail
// product titles to recover a generic name when no structured data exists.
var commonGenericNames = []string{
	"vitamin c", "vitamin d", "vitamin b", "multivitamin",
	"calcium", "iron", "zinc", "magnesium",
	"fish oil", "omega", "glucosamine", "chondroitin",
	"probiotic", "melatonin", "acetaminophen", "ibuprofen",
	"aspirin", "naproxen",
}

func genericFromTitle(title, description string) string {
	lowerTitle := strings.ToLower(title)
	lowerDesc := strings.ToLower(description)

	for _, name := range commonGenericNames {
		if strings.Contains(lowerTitle, name) || strings.Contains(lowerDesc, name) {
			return capitalizeWords(name)
		}
	}

	// Fall back to the word after the leading brand word.
	words := strings.Fields(title)
	if len(words) >= 2 {
		return words[1]
	}
	return "Dietary Supplement"
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
