package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"termo/internal/participant/models"
)

// Upserter is the part of a store the seed loader needs.
type Upserter interface {
	Upsert(ctx context.Context, p *models.Participant) error
}

// seedRecord is one entry of the seed file. Document ids may be formatted.
type seedRecord struct {
	DocumentID    string `json:"document_id"`
	FullName      string `json:"full_name"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Campus        string `json:"campus"`
	Email         string `json:"email"`
	Age           int    `json:"age"`
}

// LoadSeed reads a JSON array of registrations from path and upserts each.
// It returns the number of records loaded.
func LoadSeed(ctx context.Context, path string, s Upserter) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}
	for i, r := range records {
		id, err := models.ParseDocumentID(r.DocumentID)
		if err != nil {
			return i, fmt.Errorf("seed record %d: %w", i, err)
		}
		p := &models.Participant{
			DocumentID:    id,
			FullName:      r.FullName,
			GuardianName:  r.GuardianName,
			GuardianPhone: r.GuardianPhone,
			Campus:        r.Campus,
			Email:         r.Email,
			Age:           r.Age,
		}
		if err := s.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	return len(records), nil
}
