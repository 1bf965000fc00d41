// internal/lookup/orchestrator.go
package lookup

import (
	"context"
	"fmt"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"mcp-med-scan/internal/dosage"
	"mcp-med-scan/internal/models"
)

// lookupTimeout bounds each external call. The upstream services publish
// no SLA, so lookups fail over rather than hang.
const lookupTimeout = 10 * time.Second

// Source is one external database the orchestrator can query.
type Source interface {
	Lookup(ctx context.Context, barcode string) (*models.MedicationRecord, error)
}

type cachedLookup struct {
	record *models.MedicationRecord
	source models.LookupSource
}

// Orchestrator resolves a barcode against three external databases in a
// strict fallback order: retail product DB, drug-label DB, then the
// pharmacy registry (only for barcodes that can embed a registry code).
// The first source to answer wins; its record is post-processed through
// the dosage parser so every data origin shares one normalization path.
type Orchestrator struct {
	product   Source
	drugLabel Source
	registry  Source
	cache     cmap.ConcurrentMap[string, cachedLookup]
	log       zerolog.Logger
}

func NewOrchestrator(log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		product:   NewProductDBClient(),
		drugLabel: NewDrugLabelClient(),
		registry:  NewRegistryClient(),
		cache:     cmap.New[cachedLookup](),
		log:       log,
	}
}

// NewOrchestratorWithSources wires explicit sources, used by tests.
func NewOrchestratorWithSources(log zerolog.Logger, product, drugLabel, registry Source) *Orchestrator {
	return &Orchestrator{
		product:   product,
		drugLabel: drugLabel,
		registry:  registry,
		cache:     cmap.New[cachedLookup](),
		log:       log,
	}
}

// Lookup resolves barcode to a medication record and reports which source
// supplied it. Repeated lookups for the same barcode are served from an
// in-process cache.
func (o *Orchestrator) Lookup(ctx context.Context, barcode string) (*models.MedicationRecord, models.LookupSource, error) {
	if cached, ok := o.cache.Get(barcode); ok {
		o.log.Debug().Str("barcode", barcode).Str("source", string(cached.source)).Msg("lookup served from cache")
		copied := *cached.record
		return &copied, cached.source, nil
	}

	attempts := []struct {
		source models.LookupSource
		run    Source
		usable bool
	}{
		{models.SourceProductDB, o.product, true},
		{models.SourceDrugLabelDB, o.drugLabel, true},
		{models.SourceNDCRegistry, o.registry, IsPharmacyBarcode(barcode)},
	}

	var lastErr error
	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, models.SourceNone, fmt.Errorf("lookup canceled: %w", err)
		}
		if !attempt.usable {
			continue
		}

		rec, err := attempt.run.Lookup(ctx, barcode)
		if err != nil {
			o.log.Debug().Str("barcode", barcode).Str("source", string(attempt.source)).Err(err).Msg("lookup source failed")
			lastErr = err
			continue
		}

		dosage.ApplyDerived(rec)
		o.cache.Set(barcode, cachedLookup{record: rec, source: attempt.source})
		o.log.Info().Str("barcode", barcode).Str("source", string(attempt.source)).Str("brand", rec.BrandName).Msg("medication resolved")

		copied := *rec
		return &copied, attempt.source, nil
	}

	if !IsPharmacyBarcode(barcode) {
		return nil, models.SourceNone, &models.LookupError{
			Kind:    models.ErrFormatUnsupported,
			Source:  models.SourceNone,
			Message: fmt.Sprintf("medication not found in any database for barcode %s", barcode),
			Err:     lastErr,
		}
	}
	return nil, models.SourceNone, lastErr
}
