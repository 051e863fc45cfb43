package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/pazarly/search-service/internal/index"
)

// Store is an Elasticsearch-backed implementation of the index.Store interface.
type Store struct {
	client *elasticsearch.Client
	logger *slog.Logger
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// esGetResponse is used to decode document get responses.
type esGetResponse struct {
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// esSearchResponse is used to decode search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int    `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// esBulkResponse is used to decode bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Update struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"update"`
	} `json:"items"`
}

// New creates a new Elasticsearch store connected to the given URL.
func New(esURL string, logger *slog.Logger) (*Store, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Store{client: client, logger: logger}, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex checks whether the index exists and creates it with the given
// mapping if not. An existing index is never recreated or altered; schema
// changes require an out-of-band reindex.
func (s *Store) EnsureIndex(ctx context.Context, name, mapping string) error {
	res, err := s.client.Indices.Exists([]string{name},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		s.logger.Info("elasticsearch index already exists", "index", name)
		return nil
	}

	res, err = s.client.Indices.Create(
		name,
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", name, decodeError(res.Body, res.Status()))
	}

	s.logger.Info("elasticsearch index created", "index", name)
	return nil
}

// DeleteIndex removes the named index. Used by integration tests to clean up
// throwaway indexes; production code never drops an index.
func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	res, err := s.client.Indices.Delete([]string{name},
		s.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete index %s: %s", name, decodeError(res.Body, res.Status()))
	}
	return nil
}

// Get returns the raw source of a document, or index.ErrNotFound.
func (s *Store) Get(ctx context.Context, idx, id string) (json.RawMessage, error) {
	res, err := s.client.Get(idx, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return nil, index.ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch get: %s", decodeError(res.Body, res.Status()))
	}

	var getResp esGetResponse
	if err := json.NewDecoder(res.Body).Decode(&getResp); err != nil {
		return nil, fmt.Errorf("elasticsearch get: decode response: %w", err)
	}
	if !getResp.Found {
		return nil, index.ErrNotFound
	}

	return getResp.Source, nil
}

// Upsert writes a document by id using update-with-doc_as_upsert, so a
// concurrent writer on the same id is merged with, never blindly overwritten.
func (s *Store) Upsert(ctx context.Context, idx, id string, doc any) error {
	body, err := json.Marshal(map[string]any{
		"doc":           doc,
		"doc_as_upsert": true,
	})
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: marshal document: %w", err)
	}

	res, err := s.client.Update(
		idx,
		id,
		bytes.NewReader(body),
		s.client.Update.WithContext(ctx),
		s.client.Update.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch upsert: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Debug("upserted document", "index", idx, "id", id)
	return nil
}

// UpdateFields merges only the given fields into an existing document.
func (s *Store) UpdateFields(ctx context.Context, idx, id string, fields map[string]any) error {
	body, err := json.Marshal(map[string]any{"doc": fields})
	if err != nil {
		return fmt.Errorf("elasticsearch partial update: marshal fields: %w", err)
	}

	res, err := s.client.Update(
		idx,
		id,
		bytes.NewReader(body),
		s.client.Update.WithContext(ctx),
		s.client.Update.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch partial update: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return index.ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("elasticsearch partial update: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Debug("partially updated document", "index", idx, "id", id)
	return nil
}

// Delete removes a document by id. A 404 is ignored so deletes are idempotent.
func (s *Store) Delete(ctx context.Context, idx, id string) error {
	res, err := s.client.Delete(idx, id,
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", decodeError(res.Body, res.Status()))
	}

	s.logger.Debug("deleted document", "index", idx, "id", id)
	return nil
}

// Bulk applies a batch of doc-as-upsert operations using the NDJSON bulk API
// and reports per-item outcomes.
func (s *Store) Bulk(ctx context.Context, ops []index.BulkOp) (index.BulkResult, error) {
	if len(ops) == 0 {
		return index.BulkResult{}, nil
	}

	var buf bytes.Buffer
	for i := range ops {
		action := map[string]any{
			"update": map[string]any{
				"_index": ops[i].Index,
				"_id":    ops[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return index.BulkResult{}, fmt.Errorf("elasticsearch bulk: encode action: %w", err)
		}

		payload := map[string]any{
			"doc":           ops[i].Doc,
			"doc_as_upsert": true,
		}
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return index.BulkResult{}, fmt.Errorf("elasticsearch bulk: encode document: %w", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return index.BulkResult{}, fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return index.BulkResult{}, fmt.Errorf("elasticsearch bulk: %s", decodeError(res.Body, res.Status()))
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return index.BulkResult{}, fmt.Errorf("elasticsearch bulk: decode response: %w", err)
	}

	result := index.BulkResult{}
	for _, item := range bulkResp.Items {
		if item.Update.Error.Type != "" {
			result.Failed++
			s.logger.Warn("bulk item failed",
				"id", item.Update.ID,
				"type", item.Update.Error.Type,
				"reason", item.Update.Error.Reason,
			)
			continue
		}
		result.Succeeded++
	}

	s.logger.Info("bulk flush completed",
		"ops", len(ops),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// Search executes a raw query DSL body against the named index.
func (s *Store) Search(ctx context.Context, idx string, query map[string]any) (*index.SearchResult, error) {
	data, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(idx),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithContext(ctx),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	result := &index.SearchResult{
		Total: esResp.Hits.Total.Value,
		Hits:  make([]index.Hit, 0, len(esResp.Hits.Hits)),
	}
	for _, hit := range esResp.Hits.Hits {
		result.Hits = append(result.Hits, index.Hit{
			ID:     hit.ID,
			Score:  hit.Score,
			Source: hit.Source,
		})
	}

	if len(esResp.Aggregations) > 0 {
		result.Buckets = make(map[string][]index.Bucket, len(esResp.Aggregations))
		for name, agg := range esResp.Aggregations {
			buckets := make([]index.Bucket, 0, len(agg.Buckets))
			for _, b := range agg.Buckets {
				buckets = append(buckets, index.Bucket{Key: b.Key, Count: b.DocCount})
			}
			result.Buckets[name] = buckets
		}
	}

	return result, nil
}

// decodeError extracts a readable message from an Elasticsearch error body,
// falling back to the HTTP status line.
func decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Sprintf("unexpected status %s", status)
}
