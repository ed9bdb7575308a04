package store

import "errors"

// Sentinel errors returned by store methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when no row matches the requested
	// collection and id, or a QueryOne filter matches nothing.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrRecordExists is returned by Create when the id is already taken.
	ErrRecordExists = errors.New("record already exists")

	// ErrBlobNotFound is returned when no attachment is cached under the
	// requested record id and filename.
	ErrBlobNotFound = errors.New("blob was not found")

	// ErrInvalidBlobName is returned for empty names or names that would
	// escape the blob directory.
	ErrInvalidBlobName = errors.New("invalid blob name")

	// ErrResponseNotCached is returned when no response is cached for a key.
	ErrResponseNotCached = errors.New("response is not cached")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRows is returned when scanning column values fails.
	ErrScanningRows = errors.New("failed to scan record rows")

	// ErrEncodingData is returned when record data cannot be (de)serialised.
	ErrEncodingData = errors.New("failed to encode record data")
)
