package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type clientSendService struct {
	remote        adapter.RemoteService
	responses     store.ResponseCache
	resolver      *policy.Resolver
	defaultPolicy models.RequestPolicy
	validator     validators.Validator
	logger        *logger.Logger
}

func NewClientSendService(
	storages *store.ClientStorages,
	remote adapter.RemoteService,
	resolver *policy.Resolver,
	defaultPolicy models.RequestPolicy,
	logger *logger.Logger,
) ClientSendService {
	return &clientSendService{
		remote:        remote,
		responses:     storages.Responses,
		resolver:      resolver,
		defaultPolicy: defaultPolicy.OrDefault(),
		validator:     validators.NewRecordValidator(),
		logger:        logger,
	}
}

// sendOutcome carries an answered request through the resolver. err is
// the mapped status error of a non-2xx answer; an answer is never a reason
// to fall back to the cache.
type sendOutcome struct {
	resp models.SendResponse
	err  error
}

// Send performs req under p. 2xx answers are cached under a fingerprint of
// the request; the cache is read only by the cache legs of the policy.
// A cacheFirst miss goes to the network as networkFirst.
func (s *clientSendService) Send(ctx context.Context, p models.RequestPolicy, req models.SendRequest) (models.SendResponse, error) {
	if p == "" {
		p = s.defaultPolicy
	}

	if err := s.validator.Validate(ctx, req); err != nil {
		return models.SendResponse{}, fmt.Errorf("invalid send request: %w", err)
	}

	key, err := sendKey(req)
	if err != nil {
		return models.SendResponse{}, err
	}

	op := policy.Operation[sendOutcome]{
		Name: "send",
		Network: func(ctx context.Context) (sendOutcome, error) {
			resp, err := s.remote.Send(ctx, req)
			if err != nil && (resp.Status == 0 || adapter.IsUnreachable(err)) {
				return sendOutcome{}, err
			}
			return sendOutcome{resp: resp, err: err}, nil
		},
		Mirror: func(ctx context.Context, out sendOutcome) (sendOutcome, error) {
			if out.err != nil || out.resp.Status < 200 || out.resp.Status >= 300 {
				return out, nil
			}
			if err := s.responses.PutResponse(ctx, key, out.resp); err != nil {
				return out, fmt.Errorf("cache response: %w", err)
			}
			return out, nil
		},
		Cache: func(ctx context.Context, _ policy.CacheMode) (sendOutcome, error) {
			resp, err := s.responses.GetResponse(ctx, key)
			if err != nil {
				return sendOutcome{}, err
			}
			return sendOutcome{resp: resp}, nil
		},
	}

	out, err := policy.Resolve(ctx, s.resolver, p, op)
	if errors.Is(err, store.ErrResponseNotCached) && p == models.CacheFirst && s.resolver.Online() {
		s.logger.Debug().
			Str("func", "clientSendService.Send").
			Str("path", req.Path).
			Msg("no cached response, going to the network")
		out, err = policy.Resolve(ctx, s.resolver, models.NetworkFirst, op)
	}
	if err != nil {
		return models.SendResponse{}, fmt.Errorf("send %s %s: %w", req.Method, req.Path, err)
	}

	return out.resp, out.err
}

// sendKey fingerprints method, path, sorted query and JSON body. Headers
// are not part of the key.
func sendKey(req models.SendRequest) (string, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	keys := make([]string, 0, len(req.Query))
	for k := range req.Query {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var query strings.Builder
	for _, k := range keys {
		query.WriteString(k)
		query.WriteByte('=')
		query.WriteString(req.Query[k])
		query.WriteByte('&')
	}

	var body []byte
	if req.Body != nil {
		var err error
		if body, err = json.Marshal(req.Body); err != nil {
			return "", fmt.Errorf("encode send body: %w", err)
		}
	}

	return utils.FingerprintString(method, req.Path, query.String(), string(body)), nil
}
