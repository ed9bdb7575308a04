package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/go-resty/resty/v2"
)

// jsonPayloadField is the multipart field that carries the JSON part of a
// request that also uploads files.
const jsonPayloadField = "@jsonPayload"

type httpRemoteService struct {
	client *utils.HTTPClient
	// stream has no timeout; it serves long-lived realtime subscriptions.
	stream *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPRemoteService constructs an HTTP/REST implementation of
// [RemoteService]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures the underlying HTTP client with the
// resolved base URL and request timeout. adapterCfg.Token, when set, is
// installed as the initial bearer token.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteService(adapterCfg config.ClientAdapter, logger *logger.Logger) (RemoteService, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	h := &httpRemoteService{
		client: utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		stream: utils.NewHTTPClient(baseURL, 0),
		logger: logger,
	}
	h.SetToken(adapterCfg.Token)

	return h, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [RemoteService]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent requests.
func (h *httpRemoteService) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [RemoteService].
func (h *httpRemoteService) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// GetRecord implements [RemoteService] via
// GET /api/collections/{collection}/records/{id}.
func (h *httpRemoteService) GetRecord(ctx context.Context, collection, id string, opts RequestOptions) (map[string]any, error) {
	resp, err := h.request(ctx, opts).Get(recordPath(collection, id))
	if err != nil {
		return nil, transportError("get record request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body())
}

// ListRecords implements [RemoteService] via
// GET /api/collections/{collection}/records.
func (h *httpRemoteService) ListRecords(ctx context.Context, collection string, opts ListOptions) (models.ListResponse, error) {
	req := h.request(ctx, RequestOptions{})
	if opts.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		req.SetQueryParam("perPage", strconv.Itoa(opts.PerPage))
	}
	if opts.Filter != "" {
		req.SetQueryParam("filter", opts.Filter)
	}
	if opts.Sort != "" {
		req.SetQueryParam("sort", opts.Sort)
	}

	resp, err := req.Get(recordsPath(collection))
	if err != nil {
		return models.ListResponse{}, transportError("list records request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ListResponse{}, err
	}

	var list models.ListResponse
	if err = json.Unmarshal(resp.Body(), &list); err != nil {
		return models.ListResponse{}, fmt.Errorf("%w: decode list response: %w", ErrInvalidResponse, err)
	}
	return list, nil
}

// CreateRecord implements [RemoteService] via
// POST /api/collections/{collection}/records.
func (h *httpRemoteService) CreateRecord(ctx context.Context, collection string, body map[string]any, opts RequestOptions) (map[string]any, error) {
	req, err := h.writeRequest(ctx, body, opts)
	if err != nil {
		return nil, err
	}

	resp, err := req.Post(recordsPath(collection))
	if err != nil {
		return nil, transportError("create record request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body())
}

// UpdateRecord implements [RemoteService] via
// PATCH /api/collections/{collection}/records/{id}.
func (h *httpRemoteService) UpdateRecord(ctx context.Context, collection, id string, body map[string]any, opts RequestOptions) (map[string]any, error) {
	req, err := h.writeRequest(ctx, body, opts)
	if err != nil {
		return nil, err
	}

	resp, err := req.Patch(recordPath(collection, id))
	if err != nil {
		return nil, transportError("update record request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body())
}

// UpsertRecord implements [RemoteService] via
// PUT /api/collections/{collection}/records.
func (h *httpRemoteService) UpsertRecord(ctx context.Context, collection string, body map[string]any, opts RequestOptions) (map[string]any, error) {
	req, err := h.writeRequest(ctx, body, opts)
	if err != nil {
		return nil, err
	}

	resp, err := req.Put(recordsPath(collection))
	if err != nil {
		return nil, transportError("upsert record request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return decodeRecord(resp.Body())
}

// DeleteRecord implements [RemoteService] via
// DELETE /api/collections/{collection}/records/{id}.
func (h *httpRemoteService) DeleteRecord(ctx context.Context, collection, id string, opts RequestOptions) error {
	resp, err := h.request(ctx, opts).Delete(recordPath(collection, id))
	if err != nil {
		return transportError("delete record request", err)
	}

	return mapHTTPError(resp)
}

// SubmitBatch implements [RemoteService] via POST /api/batch. When any
// request carries files the batch is sent as multipart/form-data with the
// JSON under "@jsonPayload" and every file under "requests.N.field".
func (h *httpRemoteService) SubmitBatch(ctx context.Context, requests []models.BatchRequest) ([]models.BatchResponseItem, error) {
	payload := models.BatchRequestBody{Requests: make([]models.BatchSubRequest, 0, len(requests))}
	hasFiles := false
	for _, r := range requests {
		sub, err := toSubRequest(r)
		if err != nil {
			return nil, err
		}
		payload.Requests = append(payload.Requests, sub)
		hasFiles = hasFiles || len(r.Files) > 0
	}

	req := h.request(ctx, RequestOptions{})
	if hasFiles {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode batch payload: %w", err)
		}
		req.SetMultipartFormData(map[string]string{jsonPayloadField: string(raw)})
		for i, r := range requests {
			for _, f := range r.Files {
				field := fmt.Sprintf("requests.%d.%s", i, f.Field)
				req.SetFileReader(field, f.Filename, bytes.NewReader(f.Data))
			}
		}
	} else {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Post("/api/batch")
	if err != nil {
		return nil, transportError("batch request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var items []models.BatchResponseItem
	if err = json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("%w: decode batch response: %w", ErrInvalidResponse, err)
	}
	if len(items) != len(requests) {
		return nil, fmt.Errorf("%w: batch returned %d results for %d requests", ErrInvalidResponse, len(items), len(requests))
	}

	return items, nil
}

// Send implements [RemoteService]. Any non-2xx answer is returned together
// with the mapped error so callers can still inspect the body.
func (h *httpRemoteService) Send(ctx context.Context, sendReq models.SendRequest) (models.SendResponse, error) {
	req := h.request(ctx, RequestOptions{Query: sendReq.Query, Headers: sendReq.Headers})
	if sendReq.Body != nil {
		req.SetBody(sendReq.Body)
	}

	method := strings.ToUpper(sendReq.Method)
	if method == "" {
		method = http.MethodGet
	}

	resp, err := req.Execute(method, sendReq.Path)
	if err != nil {
		return models.SendResponse{}, transportError("send request", err)
	}

	out := models.SendResponse{Status: resp.StatusCode(), Body: resp.Body()}
	return out, mapHTTPError(resp)
}

// GetCollectionSchema implements [RemoteService] via
// GET /api/collections/{collection}.
func (h *httpRemoteService) GetCollectionSchema(ctx context.Context, collection string) (models.CollectionSchema, error) {
	var schema models.CollectionSchema

	resp, err := h.request(ctx, RequestOptions{}).
		SetResult(&schema).
		Get("/api/collections/" + url.PathEscape(collection))
	if err != nil {
		return models.CollectionSchema{}, transportError("get collection schema request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.CollectionSchema{}, err
	}

	return schema, nil
}

func (h *httpRemoteService) request(ctx context.Context, opts RequestOptions) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if len(opts.Query) > 0 {
		req.SetQueryParams(opts.Query)
	}
	if len(opts.Headers) > 0 {
		req.SetHeaders(opts.Headers)
	}
	return req
}

// writeRequest prepares a create/update/upsert request: plain JSON, or
// multipart with the body under "@jsonPayload" when files are attached.
func (h *httpRemoteService) writeRequest(ctx context.Context, body map[string]any, opts RequestOptions) (*resty.Request, error) {
	req := h.request(ctx, opts)
	if len(opts.Files) == 0 {
		return req.SetHeader("Content-Type", "application/json").SetBody(body), nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode record payload: %w", err)
	}
	req.SetMultipartFormData(map[string]string{jsonPayloadField: string(raw)})
	for _, f := range opts.Files {
		req.SetFileReader(f.Field, f.Filename, bytes.NewReader(f.Data))
	}

	h.logger.Debug().
		Str("func", "httpRemoteService.writeRequest").
		Int("files", len(opts.Files)).
		Msg("sending multipart record payload")

	return req, nil
}

func toSubRequest(r models.BatchRequest) (models.BatchSubRequest, error) {
	sub := models.BatchSubRequest{Headers: r.Headers, Body: r.Body}

	switch r.Method {
	case models.BatchCreate:
		sub.Method = http.MethodPost
		sub.URL = recordsPath(r.Collection)
	case models.BatchUpdate:
		sub.Method = http.MethodPatch
		sub.URL = recordPath(r.Collection, r.RecordID)
	case models.BatchUpsert:
		sub.Method = http.MethodPut
		sub.URL = recordsPath(r.Collection)
	case models.BatchDelete:
		sub.Method = http.MethodDelete
		sub.URL = recordPath(r.Collection, r.RecordID)
		sub.Body = nil
	default:
		return models.BatchSubRequest{}, fmt.Errorf("unsupported batch method %q", r.Method)
	}

	if len(r.Query) > 0 {
		values := url.Values{}
		for k, v := range r.Query {
			values.Set(k, v)
		}
		sub.URL += "?" + values.Encode()
	}

	return sub, nil
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func recordPath(collection, id string) string {
	return recordsPath(collection) + "/" + url.PathEscape(id)
}

func decodeRecord(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode record: %w", ErrInvalidResponse, err)
	}
	return rec, nil
}
