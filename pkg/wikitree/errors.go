package wikitree

import "errors"

// Error sentinels for the resolution pipeline. Returned errors wrap one of
// these, so callers can classify failures with errors.Is.
var (
	// ErrInvalidReference marks a malformed identifier or URL. It is
	// detected at handle construction, before any network access.
	ErrInvalidReference = errors.New("wikitree: invalid profile reference")

	// ErrRetrieval marks a transient transport failure. The handle stays
	// unresolved and the next attribute access retries the fetch.
	ErrRetrieval = errors.New("wikitree: profile retrieval failed")

	// ErrNotFound marks a profile the site reports as absent. It is
	// terminal for the handle: every later access returns it without a
	// new fetch.
	ErrNotFound = errors.New("wikitree: profile not found")

	// ErrParse marks a page without a usable Person microdata item. The
	// handle stays unresolved and may be retried.
	ErrParse = errors.New("wikitree: profile page has no usable microdata")

	// ErrSchema marks a field whose content cannot be coerced to its
	// expected shape. It surfaces through FieldWarning entries; it never
	// aborts materialization of the remaining fields.
	ErrSchema = errors.New("wikitree: field value has unexpected shape")
)
