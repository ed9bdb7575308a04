package validators

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

// Field name constants restrict validation to a subset of checks.
const (
	// FieldCollection targets the collection name.
	FieldCollection = "collection"

	// FieldRecordID targets the explicit record id of update and delete requests.
	FieldRecordID = "record_id"

	// FieldBodyID targets the optional id carried inside a request body.
	FieldBodyID = "body_id"

	// FieldMethod targets the batch method or the HTTP method of a passthrough call.
	FieldMethod = "method"

	// FieldBody requires a body on create and upsert.
	FieldBody = "body"

	// FieldFiles targets file attachments.
	FieldFiles = "files"

	// FieldPath targets the path of a passthrough call.
	FieldPath = "path"

	// FieldRequests targets every entry of a batch.
	FieldRequests = "requests"
)

const (
	maxNameLength = 64
	maxIDLength   = 128

	// MaxBatchRequests bounds the number of operations in one batch.
	MaxBatchRequests = 1000
)

var sendMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

type RecordValidator struct{}

func NewRecordValidator() Validator {
	return &RecordValidator{}
}

// Validate accepts models.BatchRequest, []models.BatchRequest,
// models.FileAttachment and models.SendRequest, by value or pointer.
func (v *RecordValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.BatchRequest:
		return v.validateRequest(ctx, value, fields...)
	case *models.BatchRequest:
		return v.validateRequest(ctx, *value, fields...)

	case []models.BatchRequest:
		return v.validateBatch(ctx, value, fields...)

	case models.FileAttachment:
		return v.validateFile(value)
	case *models.FileAttachment:
		return v.validateFile(*value)

	case models.SendRequest:
		return v.validateSend(value, fields...)
	case *models.SendRequest:
		return v.validateSend(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *RecordValidator) validateRequest(ctx context.Context, req models.BatchRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldMethod, FieldCollection, FieldRecordID, FieldBodyID, FieldBody, FieldFiles}
	}

	for _, f := range fields {
		switch f {
		case FieldMethod:
			switch req.Method {
			case models.BatchCreate, models.BatchUpdate, models.BatchUpsert, models.BatchDelete:
			default:
				return fmt.Errorf("%w: %q", ErrInvalidMethod, req.Method)
			}
		case FieldCollection:
			if !IsValidName(req.Collection) {
				return fmt.Errorf("%w: %q", ErrInvalidCollection, req.Collection)
			}
		case FieldRecordID:
			if req.Method != models.BatchUpdate && req.Method != models.BatchDelete {
				continue
			}
			if req.RecordID == "" {
				return ErrMissingRecordID
			}
			if !IsValidID(req.RecordID) {
				return fmt.Errorf("%w: %q", ErrInvalidRecordID, req.RecordID)
			}
		case FieldBodyID:
			raw, ok := req.Body[models.FieldID]
			if !ok {
				continue
			}
			id, isString := raw.(string)
			if !isString || (id != "" && !IsValidID(id)) {
				return fmt.Errorf("%w: %v", ErrInvalidRecordID, raw)
			}
		case FieldBody:
			if (req.Method == models.BatchCreate || req.Method == models.BatchUpsert) && req.Body == nil && len(req.Files) == 0 {
				return ErrEmptyBody
			}
		case FieldFiles:
			for i, file := range req.Files {
				if err := v.validateFile(file); err != nil {
					return fmt.Errorf("file %d: %w", i, err)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateBatch(ctx context.Context, requests []models.BatchRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRequests}
	}

	for _, f := range fields {
		switch f {
		case FieldRequests:
			if len(requests) == 0 {
				return ErrEmptyBatch
			}
			if len(requests) > MaxBatchRequests {
				return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(requests), MaxBatchRequests)
			}
			for i, req := range requests {
				if err := v.validateRequest(ctx, req); err != nil {
					return fmt.Errorf("validation error at index %d: %w", i, err)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateFile(file models.FileAttachment) error {
	if !IsValidName(file.Field) {
		return fmt.Errorf("%w: %q", ErrInvalidFieldName, file.Field)
	}
	if !IsValidFilename(file.Filename) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, file.Filename)
	}
	return nil
}

func (v *RecordValidator) validateSend(req models.SendRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldMethod, FieldPath}
	}

	for _, f := range fields {
		switch f {
		case FieldMethod:
			if req.Method == "" {
				continue
			}
			method := strings.ToUpper(req.Method)
			valid := false
			for _, m := range sendMethods {
				if m == method {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("%w: %q", ErrInvalidMethod, req.Method)
			}
		case FieldPath:
			if !strings.HasPrefix(req.Path, "/") {
				return fmt.Errorf("%w: %q", ErrInvalidPath, req.Path)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// IsValidName reports whether s is a usable collection or field name:
// letters, digits and underscores, not starting with a digit.
func IsValidName(s string) bool {
	if s == "" || len(s) > maxNameLength {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// IsValidID reports whether s is a usable record id.
func IsValidID(s string) bool {
	if s == "" || len(s) > maxIDLength {
		return false
	}
	for _, r := range s {
		switch {
		case r == '_', r == '-', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// IsValidFilename reports whether s is a plain file name without any
// directory component.
func IsValidFilename(s string) bool {
	if s == "" || s == "." || s == ".." || len(s) > 255 {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && path.Base(s) == s
}
