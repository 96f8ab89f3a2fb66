package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps records in process. Used for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0)
	for _, r := range s.records {
		if !req.Filter.Matches(r.Metadata) {
			continue
		}
		matches = append(matches, Match{
			ID:       r.ID,
			Score:    cosineSimilarity(req.Vector, r.Values),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if req.TopK > 0 && len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return matches, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		values := make([]float32, len(r.Values))
		copy(values, r.Values)
		r.Values = values
		s.records[r.ID] = r
	}
	return nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, filter Filter) (int, error) {
	if filter.IsEmpty() {
		return 0, ErrEmptyFilter
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, r := range s.records {
		if filter.Matches(r.Metadata) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) List(ctx context.Context, req ListRequest) (*ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id, r := range s.records {
		if id > req.Cursor && req.Filter.Matches(r.Metadata) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	page := &ListPage{Records: make([]Record, 0)}
	if req.Limit > 0 && len(ids) > req.Limit {
		ids = ids[:req.Limit]
		page.NextCursor = ids[len(ids)-1]
	}
	for _, id := range ids {
		page.Records = append(page.Records, s.records[id])
	}
	return page, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
