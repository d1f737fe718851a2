package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"curriculumcore/pkg/domain"
)

// MaxPayloadBytes caps the size of a snapshot document.
const MaxPayloadBytes = 64 << 20

// Decode reads a document from r, validates it and decodes it into a
// domain.Snapshot. Nothing is decoded unless validation passes.
func Decode(r io.Reader) (domain.Snapshot, Summary, error) {
	data, err := ReadPayload(r)
	if err != nil {
		return domain.Snapshot{}, Summary{}, err
	}
	return DecodeBytes(data)
}

// ReadPayload reads a whole document from r, rejecting anything larger
// than MaxPayloadBytes with a validation error.
func ReadPayload(r io.Reader) ([]byte, error) {
	return readPayload(r, MaxPayloadBytes)
}

func readPayload(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, domain.NewValidationError("payload", "exceeds %d bytes", limit)
	}
	return data, nil
}

// DecodeBytes is Decode for an in-memory document.
func DecodeBytes(data []byte) (domain.Snapshot, Summary, error) {
	sum, err := Validate(data)
	if err != nil {
		return domain.Snapshot{}, Summary{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, Summary{}, domain.NewValidationError("payload", "%v", err)
	}
	for i := range snap.CurriculumRows {
		snap.CurriculumRows[i].Standards = domain.NormalizeStandards(snap.CurriculumRows[i].Standards)
	}
	return snap, sum, nil
}

// Encode writes snap as an indented JSON document.
func Encode(w io.Writer, snap domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
