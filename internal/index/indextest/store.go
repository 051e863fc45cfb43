// Package indextest provides a recording in-memory index.Store used by engine
// tests. Writes honor doc-as-upsert merge semantics; reads either replay the
// stored documents or delegate to a test-supplied SearchFunc, since the fake
// does not interpret the query DSL.
package indextest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pazarly/search-service/internal/index"
)

// Query records one Search call.
type Query struct {
	Index string
	Body  map[string]any
}

// Store is an in-memory index.Store for tests.
type Store struct {
	mu       sync.Mutex
	mappings map[string]string
	docs     map[string]map[string]map[string]any
	order    map[string][]string

	// Queries records every Search call in order.
	Queries []Query

	// SearchFunc, when set, handles Search calls. Otherwise Search returns
	// every document of the index in insertion order.
	SearchFunc func(ctx context.Context, idx string, query map[string]any) (*index.SearchResult, error)

	// PingErrs is consumed one per Ping call; a nil entry (or exhaustion)
	// means success.
	PingErrs []error

	// UpsertErr and BulkErr, when set, fail the corresponding writes.
	UpsertErr error
	BulkErr   error
}

// New creates an empty fake store.
func New() *Store {
	return &Store{
		mappings: make(map[string]string),
		docs:     make(map[string]map[string]map[string]any),
		order:    make(map[string][]string),
	}
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.PingErrs) == 0 {
		return nil
	}
	err := s.PingErrs[0]
	s.PingErrs = s.PingErrs[1:]
	return err
}

func (s *Store) EnsureIndex(_ context.Context, name, mapping string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.mappings[name]; exists {
		return nil
	}
	s.mappings[name] = mapping
	return nil
}

// HasIndex reports whether EnsureIndex has been called for name.
func (s *Store) HasIndex(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mappings[name]
	return ok
}

func (s *Store) Get(_ context.Context, idx, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[idx][id]
	if !ok {
		return nil, index.ErrNotFound
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Store) Upsert(_ context.Context, idx, id string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	return s.merge(idx, id, doc)
}

func (s *Store) UpdateFields(_ context.Context, idx, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[idx][id]; !ok {
		return index.ErrNotFound
	}
	return s.merge(idx, id, fields)
}

func (s *Store) Delete(_ context.Context, idx, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[idx][id]; !ok {
		return nil
	}
	delete(s.docs[idx], id)
	ids := s.order[idx]
	for i, existing := range ids {
		if existing == id {
			s.order[idx] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Bulk(_ context.Context, ops []index.BulkOp) (index.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BulkErr != nil {
		return index.BulkResult{}, s.BulkErr
	}
	result := index.BulkResult{}
	for _, op := range ops {
		if err := s.merge(op.Index, op.ID, op.Doc); err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (s *Store) Search(ctx context.Context, idx string, query map[string]any) (*index.SearchResult, error) {
	s.mu.Lock()
	s.Queries = append(s.Queries, Query{Index: idx, Body: query})
	fn := s.SearchFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, idx, query)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result := &index.SearchResult{Total: len(s.order[idx])}
	for _, id := range s.order[idx] {
		raw, err := json.Marshal(s.docs[idx][id])
		if err != nil {
			return nil, err
		}
		result.Hits = append(result.Hits, index.Hit{ID: id, Source: raw})
	}
	return result, nil
}

// Doc returns the stored document for (index, id) and whether it exists.
func (s *Store) Doc(idx, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[idx][id]
	return doc, ok
}

// Count returns the number of documents stored in the given index.
func (s *Store) Count(idx string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[idx])
}

// Seed stores a document directly, bypassing error injection.
func (s *Store) Seed(idx, id string, doc any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.merge(idx, id, doc)
}

// merge applies doc-as-upsert semantics: the document is created when absent,
// otherwise the given fields are merged over the existing ones.
func (s *Store) merge(idx, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	if s.docs[idx] == nil {
		s.docs[idx] = make(map[string]map[string]any)
	}
	existing, ok := s.docs[idx][id]
	if !ok {
		s.docs[idx][id] = fields
		s.order[idx] = append(s.order[idx], id)
		return nil
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}
