package types

import "errors"

// Pipeline error taxonomy. Each stage wraps one of these sentinels so
// callers can classify failures with errors.Is without depending on the
// stage packages.
var (
	// ErrSourceUnavailable: the listing page is unreachable or its
	// expected form tokens are absent.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoResultsForDate: the listing has no date header for the
	// requested day. Distinct from an empty result set.
	ErrNoResultsForDate = errors.New("no results for date")
	// ErrDownloadFailed: the document transfer returned a non-success
	// status or failed mid-stream.
	ErrDownloadFailed = errors.New("download failed")
	// ErrUnreadableDocument: the document could not be opened or
	// yielded no extractable text.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrGenerationFailure: the generation engine call failed at the
	// transport or engine level. Potentially transient.
	ErrGenerationFailure = errors.New("generation failure")
	// ErrSchemaViolation: the engine responded but the output does not
	// conform to the declared schema. Retrying is unlikely to help.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrStorageUnavailable: the record store rejected the operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrCorpusUnavailable: the company policy corpus could not be read.
	ErrCorpusUnavailable = errors.New("policy corpus unavailable")
)

// ErrorKind returns the taxonomy name for err, or "internal" when err
// does not wrap a pipeline sentinel.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrNoResultsForDate):
		return "no_results_for_date"
	case errors.Is(err, ErrDownloadFailed):
		return "download_failed"
	case errors.Is(err, ErrUnreadableDocument):
		return "unreadable_document"
	case errors.Is(err, ErrGenerationFailure):
		return "generation_failure"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrCorpusUnavailable):
		return "corpus_unavailable"
	default:
		return "internal"
	}
}
