package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	jsonPayloadField = "@jsonPayload"
	maxMultipartMem  = 32 << 20
)

var (
	errMissingJSONPayload = errors.New("multipart body has no " + jsonPayloadField + " field")
	errInvalidFileField   = errors.New("invalid batch file field")
	errInvalidFilter      = errors.New("invalid filter expression")
)

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodeRecordPayload reads a record body sent either as JSON or as
// multipart form data. A multipart body carries the record as JSON in the
// @jsonPayload field; other plain fields are merged in and every file part
// becomes an attachment named after its form field.
func decodeRecordPayload(r *http.Request) (map[string]any, []models.FileAttachment, error) {
	if !isMultipart(r) {
		body := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("decode record body: %w", err)
		}
		return body, nil, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		return nil, nil, fmt.Errorf("parse multipart body: %w", err)
	}

	body := map[string]any{}
	if raw := r.MultipartForm.Value[jsonPayloadField]; len(raw) > 0 && raw[0] != "" {
		if err := json.Unmarshal([]byte(raw[0]), &body); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", jsonPayloadField, err)
		}
	}
	for field, values := range r.MultipartForm.Value {
		if field == jsonPayloadField || len(values) == 0 {
			continue
		}
		body[field] = values[0]
	}

	var files []models.FileAttachment
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := readFilePart(field, fh)
			if err != nil {
				return nil, nil, err
			}
			files = append(files, f)
		}
	}

	return body, files, nil
}

// decodeBatchPayload reads a batch sent as JSON or as multipart form data
// whose file parts are named "requests.N.field".
func decodeBatchPayload(r *http.Request) ([]models.BatchRequest, error) {
	var payload models.BatchRequestBody
	filesByIndex := map[int][]models.FileAttachment{}

	if !isMultipart(r) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode batch body: %w", err)
		}
	} else {
		if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
			return nil, fmt.Errorf("parse multipart body: %w", err)
		}
		raw := r.MultipartForm.Value[jsonPayloadField]
		if len(raw) == 0 {
			return nil, errMissingJSONPayload
		}
		if err := json.Unmarshal([]byte(raw[0]), &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", jsonPayloadField, err)
		}

		for key, headers := range r.MultipartForm.File {
			index, field, err := parseBatchFileField(key)
			if err != nil {
				return nil, err
			}
			for _, fh := range headers {
				f, err := readFilePart(field, fh)
				if err != nil {
					return nil, err
				}
				filesByIndex[index] = append(filesByIndex[index], f)
			}
		}
	}

	requests := make([]models.BatchRequest, len(payload.Requests))
	for i, sub := range payload.Requests {
		requests[i] = fromSubRequest(sub)
		requests[i].Files = filesByIndex[i]
	}
	return requests, nil
}

func parseBatchFileField(key string) (int, string, error) {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) != 3 || parts[0] != "requests" || parts[2] == "" {
		return 0, "", fmt.Errorf("%w: %q", errInvalidFileField, key)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return 0, "", fmt.Errorf("%w: %q", errInvalidFileField, key)
	}
	return index, parts[2], nil
}

func readFilePart(field string, fh *multipart.FileHeader) (models.FileAttachment, error) {
	f, err := fh.Open()
	if err != nil {
		return models.FileAttachment{}, fmt.Errorf("open file part %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.FileAttachment{}, fmt.Errorf("read file part %s: %w", field, err)
	}
	return models.FileAttachment{Field: field, Filename: fh.Filename, Data: data}, nil
}

// fromSubRequest turns a wire sub-request back into a batch request. A URL
// or method it cannot interpret leaves the fields empty so validation
// rejects that item alone.
func fromSubRequest(sub models.BatchSubRequest) models.BatchRequest {
	req := models.BatchRequest{Body: sub.Body, Headers: sub.Headers}

	u, err := url.Parse(sub.URL)
	if err != nil {
		return req
	}
	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segments) < 4 || segments[0] != "api" || segments[1] != "collections" || segments[3] != "records" {
		return req
	}
	req.Collection, _ = url.PathUnescape(segments[2])
	if len(segments) == 5 {
		req.RecordID, _ = url.PathUnescape(segments[4])
	}

	if q := u.Query(); len(q) > 0 {
		req.Query = make(map[string]string, len(q))
		for k := range q {
			req.Query[k] = q.Get(k)
		}
	}

	hasID := req.RecordID != ""
	switch strings.ToUpper(sub.Method) {
	case http.MethodPost:
		if !hasID {
			req.Method = models.BatchCreate
		}
	case http.MethodPut:
		if !hasID {
			req.Method = models.BatchUpsert
		}
	case http.MethodPatch:
		if hasID {
			req.Method = models.BatchUpdate
		}
	case http.MethodDelete:
		if hasID {
			req.Method = models.BatchDelete
			req.Body = nil
		}
	}

	return req
}

// parseFilter reads a conjunction of equality terms such as
//
//	status = 'open' && priority = 2
//
// into field -> raw value pairs. Quoted values are unquoted and encoded as
// JSON strings; anything else is kept verbatim and decoded by the service.
func parseFilter(expr string) (map[string]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	out := make(map[string]string)
	for _, term := range strings.Split(expr, "&&") {
		field, value, ok := strings.Cut(term, "=")
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if !ok || field == "" || value == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidFilter, term)
		}

		if n := len(value); n >= 2 && (value[0] == '\'' || value[0] == '"') && value[n-1] == value[0] {
			quoted, err := json.Marshal(value[1 : n-1])
			if err != nil {
				return nil, fmt.Errorf("%w: %q", errInvalidFilter, term)
			}
			value = string(quoted)
		}
		out[field] = value
	}
	return out, nil
}
