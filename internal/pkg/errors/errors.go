package errors

import "errors"

var (
	// ErrNotFound is returned by lookups that match zero rows. Upsert paths
	// treat it as "create", never as a failure.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousMatch marks a key lookup that matched more than one node or
	// relationship. Callers resolve it by taking the first match and logging.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrMalformedRecord marks a source row that cannot yield a usable entity.
	ErrMalformedRecord = errors.New("malformed record")
)
