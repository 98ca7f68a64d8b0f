package dynamock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nisimpson/dynarec"
)

// SeedFromJSON reads a JSON array of create requests and writes each one to
// the table. The field names are those of the create event:
//
//	[
//	  {"title": "Inception", "year": "2010", "actors": "DiCaprio"},
//	  {"title": "Heat", "year": "1995"}
//	]
//
// Every entry is decoded before anything is written, so a malformed document
// seeds nothing. Returns the number of records written.
func (s *SeedTestData) SeedFromJSON(ctx context.Context, r io.Reader) (int, error) {
	var reqs []dynarec.CreateRequest

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&reqs); err != nil {
		return 0, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	for i, req := range reqs {
		if req.Key == "" {
			return 0, fmt.Errorf("record at index %d: title is required", i)
		}
	}

	count := 0
	for _, req := range reqs {
		if err := s.SeedRecord(ctx, req); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
