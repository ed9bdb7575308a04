package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

// eventBuffer bounds the realtime channel between the stream reader and the
// consumer applying events to the local store.
const eventBuffer = 64

// realtimeMessage is the JSON "data:" payload of one server-sent event.
type realtimeMessage struct {
	Action models.EventAction `json:"action"`
	Record map[string]any     `json:"record"`
}

// Subscribe implements [RemoteService] via GET /api/realtime?collection=...,
// a text/event-stream where every event's data is a JSON [realtimeMessage].
// Events with unknown actions or undecodable payloads are logged and skipped.
func (h *httpRemoteService) Subscribe(ctx context.Context, collection string) (<-chan models.RecordEvent, error) {
	req := h.stream.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}

	resp, err := req.
		SetHeader("Accept", "text/event-stream").
		SetQueryParam("collection", collection).
		SetDoNotParseResponse(true).
		Get("/api/realtime")
	if err != nil {
		return nil, transportError("realtime subscribe request", err)
	}

	rawBody := resp.RawBody()
	if resp.StatusCode() >= 300 {
		body, _ := io.ReadAll(rawBody)
		_ = rawBody.Close()
		return nil, mapStatus(resp.StatusCode(), body)
	}

	events := make(chan models.RecordEvent, eventBuffer)
	go func() {
		defer close(events)
		defer rawBody.Close()

		stop := context.AfterFunc(ctx, func() { _ = rawBody.Close() })
		defer stop()

		h.readEventStream(ctx, collection, rawBody, events)
	}()

	return events, nil
}

func (h *httpRemoteService) readEventStream(ctx context.Context, collection string, r io.Reader, out chan<- models.RecordEvent) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data strings.Builder
	flush := func() bool {
		if data.Len() == 0 {
			return true
		}
		payload := data.String()
		data.Reset()

		var msg realtimeMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			h.logger.Warn().Err(err).
				Str("func", "httpRemoteService.readEventStream").
				Str("collection", collection).
				Msg("skipping undecodable realtime event")
			return true
		}
		switch msg.Action {
		case models.EventCreate, models.EventUpdate, models.EventDelete:
		default:
			// connect and heartbeat messages carry no record change
			return true
		}

		select {
		case out <- models.RecordEvent{Action: msg.Action, Record: models.RecordFromMap(collection, msg.Record)}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if !flush() {
				return
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	flush()

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		h.logger.Warn().Err(err).
			Str("func", "httpRemoteService.readEventStream").
			Str("collection", collection).
			Msg("realtime stream interrupted")
	}
}
