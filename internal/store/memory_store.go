package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// MemoryStore is an in-process LocalStore and ResponseCache. When created
// with a file path, every mutation is persisted to that file as JSON and the
// state is reloaded from it on start.
type MemoryStore struct {
	path     string
	inMemory bool

	ids IDGenerator
	hub *changeHub
	now func() time.Time

	mu        sync.RWMutex
	order     []recordKey
	records   map[recordKey]models.Record
	responses map[string]models.SendResponse
}

type recordKey struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type memoryPersistedState struct {
	Records   []models.Record                 `json:"records"`
	Responses map[string]models.SendResponse `json:"responses,omitempty"`
}

// NewMemoryStore returns a MemoryStore. An empty path, ":memory:" or
// "memory" keep the state in process only.
func NewMemoryStore(path string, ids IDGenerator) (*MemoryStore, error) {
	inMemory := path == "" || path == ":memory:" || path == "memory"
	s := &MemoryStore{
		path:      path,
		inMemory:  inMemory,
		ids:       ids,
		hub:       newChangeHub(),
		now:       time.Now,
		records:   make(map[recordKey]models.Record),
		responses: make(map[string]models.SendResponse),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) load() error {
	if s.inMemory {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read local storage file: %w", err)
	}

	var st memoryPersistedState
	if err = json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode local storage file: %w", err)
	}

	for _, rec := range st.Records {
		key := recordKey{Collection: rec.Collection, ID: rec.ID}
		if _, ok := s.records[key]; !ok {
			s.order = append(s.order, key)
		}
		s.records[key] = rec
	}
	if st.Responses != nil {
		s.responses = st.Responses
	}

	return nil
}

// persistLocked writes the state to disk. Callers hold s.mu.
func (s *MemoryStore) persistLocked() error {
	if s.inMemory {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create local storage dir: %w", err)
		}
	}

	state := memoryPersistedState{Records: make([]models.Record, 0, len(s.order)), Responses: s.responses}
	for _, key := range s.order {
		state.Records = append(state.Records, s.records[key])
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write local storage file: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace local storage file: %w", err)
	}

	return nil
}

// storeLocked writes rec, keeping its position when the key already exists.
func (s *MemoryStore) storeLocked(rec models.Record) error {
	key := recordKey{Collection: rec.Collection, ID: rec.ID}
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = cloneRecord(rec)
	return s.persistLocked()
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data map[string]any, flags models.RecordFlags) (models.Record, error) {
	rec := newLocalRecord(collection, data, flags, s.ids, s.now())

	s.mu.Lock()
	if _, exists := s.records[recordKey{Collection: collection, ID: rec.ID}]; exists {
		s.mu.Unlock()
		return models.Record{}, fmt.Errorf("%w: %s/%s", ErrRecordExists, collection, rec.ID)
	}
	err := s.storeLocked(rec)
	s.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	s.hub.publish(collection)
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data map[string]any, flags models.RecordFlags) (models.Record, error) {
	s.mu.Lock()
	existing, ok := s.records[recordKey{Collection: collection, ID: id}]
	if !ok {
		s.mu.Unlock()
		return models.Record{}, ErrRecordNotFound
	}
	rec := mergeRecord(cloneRecord(existing), data, flags, s.now())
	err := s.storeLocked(rec)
	s.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	s.hub.publish(collection)
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Put(ctx context.Context, rec models.Record) (models.Record, error) {
	now := s.now()
	if rec.Created.IsZero() {
		rec.Created = now
	}
	if rec.Updated.IsZero() {
		rec.Updated = now
	}
	rec.Data = userFields(rec.Data)

	s.mu.Lock()
	err := s.storeLocked(rec)
	s.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	s.hub.publish(rec.Collection)
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	key := recordKey{Collection: collection, ID: id}

	s.mu.Lock()
	if _, ok := s.records[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.records, key)
	s.order = slices.DeleteFunc(s.order, func(k recordKey) bool { return k == key })
	err := s.persistLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.hub.publish(collection)
	return nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, collection, id string, flags models.RecordFlags) (models.Record, error) {
	s.mu.Lock()
	existing, ok := s.records[recordKey{Collection: collection, ID: id}]
	if !ok {
		s.mu.Unlock()
		return models.Record{}, ErrRecordNotFound
	}
	flags.Deleted = true
	flags.IsNew = existing.IsNew
	rec := cloneRecord(existing).WithFlags(flags)
	rec.Updated = s.now()
	err := s.storeLocked(rec)
	s.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	s.hub.publish(collection)
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{Collection: collection, ID: id}]
	if !ok {
		return models.Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Query(ctx context.Context, filter RecordFilter) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0)
	for _, key := range s.order {
		rec := s.records[key]
		if !matches(rec, filter) {
			continue
		}
		out = append(out, cloneRecord(rec))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) QueryOne(ctx context.Context, filter RecordFilter) (models.Record, error) {
	filter.Limit = 1
	records, err := s.Query(ctx, filter)
	if err != nil {
		return models.Record{}, err
	}
	if len(records) == 0 {
		return models.Record{}, ErrRecordNotFound
	}
	return records[0], nil
}

func (s *MemoryStore) Watch(ctx context.Context, filter RecordFilter) (<-chan []models.Record, error) {
	return watchQuery(ctx, s.hub, filter, s.Query)
}

func (s *MemoryStore) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, key := range s.order {
		if _, ok := seen[key.Collection]; ok {
			continue
		}
		seen[key.Collection] = struct{}{}
		out = append(out, key.Collection)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemoryStore) PutResponse(ctx context.Context, key string, resp models.SendResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp.FromCache = false
	resp.Body = slices.Clone(resp.Body)
	s.responses[key] = resp
	return s.persistLocked()
}

func (s *MemoryStore) GetResponse(ctx context.Context, key string) (models.SendResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp, ok := s.responses[key]
	if !ok {
		return models.SendResponse{}, ErrResponseNotCached
	}
	resp.Body = slices.Clone(resp.Body)
	resp.FromCache = true
	return resp, nil
}
