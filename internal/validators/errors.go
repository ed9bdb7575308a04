package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidCollection = errors.New("invalid collection name")
	ErrInvalidRecordID   = errors.New("invalid record id")
	ErrInvalidMethod     = errors.New("invalid method")
	ErrMissingRecordID   = errors.New("record id is required")
	ErrEmptyBody         = errors.New("body is required")
	ErrInvalidFieldName  = errors.New("invalid field name")
	ErrInvalidFilename   = errors.New("invalid file name")
	ErrInvalidPath       = errors.New("path must be absolute")
	ErrEmptyBatch        = errors.New("batch cannot be empty")
	ErrBatchTooLarge     = errors.New("batch exceeds the request limit")
)
