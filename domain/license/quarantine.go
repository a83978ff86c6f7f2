package license

import "time"

// QuarantineRecord captures an input that failed normalization, with enough
// context to retry it later. Records are append-only: replay reads them and
// leaves them in place as an audit trail.
type QuarantineRecord struct {
	id           int64
	source       string
	url          string
	rawContent   string
	errorMessage string
	errorDetails map[string]any
	createdAt    time.Time
}

// NewQuarantineRecord creates a QuarantineRecord for a failed input.
func NewQuarantineRecord(source, url, rawContent, errorMessage string, errorDetails map[string]any) QuarantineRecord {
	return QuarantineRecord{
		source:       source,
		url:          url,
		rawContent:   rawContent,
		errorMessage: errorMessage,
		errorDetails: copyRaw(errorDetails),
	}
}

// ReconstructQuarantineRecord rebuilds a QuarantineRecord from storage.
func ReconstructQuarantineRecord(
	id int64,
	source, url, rawContent, errorMessage string,
	errorDetails map[string]any,
	createdAt time.Time,
) QuarantineRecord {
	return QuarantineRecord{
		id:           id,
		source:       source,
		url:          url,
		rawContent:   rawContent,
		errorMessage: errorMessage,
		errorDetails: copyRaw(errorDetails),
		createdAt:    createdAt,
	}
}

// ID returns the storage-assigned id.
func (r QuarantineRecord) ID() int64 { return r.id }

// Source returns the source id the input came from.
func (r QuarantineRecord) Source() string { return r.source }

// URL returns the unit URL or a symbolic location (e.g. "WA_CSV_ROW").
func (r QuarantineRecord) URL() string { return r.url }

// RawContent returns the original input, preserved for replay.
func (r QuarantineRecord) RawContent() string { return r.rawContent }

// ErrorMessage returns the failure message.
func (r QuarantineRecord) ErrorMessage() string { return r.errorMessage }

// ErrorDetails returns a copy of the structured failure details.
func (r QuarantineRecord) ErrorDetails() map[string]any { return copyRaw(r.errorDetails) }

// CreatedAt returns when the failure was recorded.
func (r QuarantineRecord) CreatedAt() time.Time { return r.createdAt }
