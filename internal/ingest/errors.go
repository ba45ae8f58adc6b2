package ingest

import "errors"

// Input errors are rejected before any provider call or write and map to
// client errors at the HTTP boundary. Everything else aborts the pipeline
// with no partial state.
var (
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoContent       = errors.New("no content extracted")
)

// IsInputError reports whether err should surface as a client error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrUnsupportedType)
}
