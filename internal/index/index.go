// Package index abstracts the inverted-index store. Implementations may use
// Elasticsearch or an in-memory fake; callers never see the document of
// record, only the denormalized projection used for scoring and filtering.
package index

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document id does not resolve.
var ErrNotFound = errors.New("document not found")

// BulkOp is a single doc-as-upsert operation in a bulk flush.
type BulkOp struct {
	Index string
	ID    string
	Doc   any
}

// BulkResult reports per-batch outcome so operators can observe sync health.
type BulkResult struct {
	Succeeded int
	Failed    int
}

// Hit is one search hit with its relevance score and raw source document.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// Bucket is one terms-aggregation bucket.
type Bucket struct {
	Key   string
	Count int
}

// SearchResult holds hits plus any requested terms aggregations.
type SearchResult struct {
	Total   int
	Hits    []Hit
	Buckets map[string][]Bucket
}

// Store is the index store contract. Per-document writes are atomic by id;
// upserts are always doc-as-upsert (create-if-missing, partial merge if
// present), never a blind full overwrite.
type Store interface {
	// Ping checks whether the index store is reachable.
	Ping(ctx context.Context) error

	// EnsureIndex creates the named index with the given field mapping if it
	// does not exist. An existing index is never recreated or altered.
	EnsureIndex(ctx context.Context, name, mapping string) error

	// Get returns the raw source of a document, or ErrNotFound.
	Get(ctx context.Context, index, id string) (json.RawMessage, error)

	// Upsert writes a document by id with create-if-missing semantics.
	Upsert(ctx context.Context, index, id string, doc any) error

	// UpdateFields merges only the given fields into an existing document,
	// preserving all other fields. Returns ErrNotFound for an absent id.
	UpdateFields(ctx context.Context, index, id string, fields map[string]any) error

	// Delete removes a document by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, index, id string) error

	// Bulk applies a batch of doc-as-upsert operations, reporting per-item
	// success and failure counts.
	Bulk(ctx context.Context, ops []BulkOp) (BulkResult, error)

	// Search executes a raw query DSL body against the named index.
	Search(ctx context.Context, index string, query map[string]any) (*SearchResult, error)
}
