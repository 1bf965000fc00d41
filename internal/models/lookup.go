// internal/models/lookup.go
package models

import "fmt"

// LookupSource identifies which external database populated a record.
type LookupSource string

const (
	SourceNone        LookupSource = ""
	SourceProductDB   LookupSource = "upc_item_db"
	SourceDrugLabelDB LookupSource = "open_fda"
	SourceNDCRegistry LookupSource = "ndc_registry"
)

// LookupErrorKind classifies why a lookup step failed.
type LookupErrorKind string

const (
	ErrNotFound          LookupErrorKind = "not_found"
	ErrFormatUnsupported LookupErrorKind = "format_unsupported"
	ErrTransport         LookupErrorKind = "transport_error"
	ErrServer            LookupErrorKind = "server_error"
	ErrDecode            LookupErrorKind = "decode_error"
)

// LookupError is a failure from a single lookup source. The orchestrator
// recovers from these by advancing to the next fallback; only the last
// attempted step's error reaches the caller.
type LookupError struct {
	Kind    LookupErrorKind
	Source  LookupSource
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
