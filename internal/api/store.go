package api

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/ggufmeta/internal/extract"
)

// ExtractionStore keeps completed extractions in memory so clients can
// re-fetch results without re-reading the checkpoint.
type ExtractionStore struct {
	mu          sync.Mutex
	extractions map[string]ExtractionResponse
}

func NewExtractionStore() *ExtractionStore {
	return &ExtractionStore{
		extractions: make(map[string]ExtractionResponse),
	}
}

func (s *ExtractionStore) Create(res *extract.Result, now time.Time) ExtractionResponse {
	resp := ExtractionResponse{
		ID:        newExtractionID(),
		Object:    "extraction",
		CreatedAt: now.Unix(),
		Path:      res.Path,
		KVCount:   res.KVCount,
		Count:     res.Count(),
		Entries:   res.Entries,
		Flagged:   res.Flagged,
	}

	s.mu.Lock()
	s.extractions[resp.ID] = resp
	s.mu.Unlock()
	return resp
}

func (s *ExtractionStore) Get(id string) (ExtractionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.extractions[id]
	return resp, ok
}

func (s *ExtractionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.extractions[id]; !ok {
		return false
	}
	delete(s.extractions, id)
	return true
}

// List returns all stored extractions, newest first.
func (s *ExtractionStore) List() []ExtractionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExtractionResponse, 0, len(s.extractions))
	for _, resp := range s.extractions {
		out = append(out, resp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

func newExtractionID() string {
	return "ext_" + uuid.NewString()
}
