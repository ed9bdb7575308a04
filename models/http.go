package models

// BatchSubRequest is one entry of a batch submission on the wire.
type BatchSubRequest struct {
	// Method is the HTTP method of the sub-request.
	Method string `json:"method"`
	// URL is the path (with query string) relative to the service root.
	URL string `json:"url"`
	// Headers are optional per-request headers.
	Headers map[string]string `json:"headers,omitempty"`
	// Body is the JSON body of the sub-request.
	Body map[string]any `json:"body,omitempty"`
}

// BatchRequestBody is the payload of POST /api/batch.
type BatchRequestBody struct {
	Requests []BatchSubRequest `json:"requests"`
}

// BatchResponseItem is the per-request outcome returned by the batch endpoint.
// Results are matched back to requests positionally.
type BatchResponseItem struct {
	Status int `json:"status"`
	Body   any `json:"body"`
	// ID is an explicit per-operation identifier. Servers may omit it.
	ID string `json:"id,omitempty"`
}

// ListResponse is the paginated list payload of the records endpoint.
type ListResponse struct {
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Items      []map[string]any `json:"items"`
}

// ErrorResponse is the JSON error body produced by the remote service.
type ErrorResponse struct {
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// SendRequest describes an arbitrary passthrough call to the remote service.
type SendRequest struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// SendResponse is the outcome of a passthrough call.
type SendResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
	// FromCache is true when the response was served from the local response cache.
	FromCache bool `json:"from_cache"`
}
