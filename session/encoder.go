package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// CurrentSchemaVersion is written by Encode.
	CurrentSchemaVersion uint8 = 2

	schemaVersionFlat uint8 = 1
)

var errEmptyRecord = errors.New("empty session record")

type recordV2 struct {
	Version        uint8             `json:"v"`
	UserID         string            `json:"userId"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastAccessedAt time.Time         `json:"lastAccessedAt"`
}

// Encode serializes s in the current schema version. SessionID is not part of the
// record; it is the key.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if s.UserID == "" {
		return nil, errors.New("session without user id")
	}
	return json.Marshal(recordV2{
		Version:        CurrentSchemaVersion,
		UserID:         s.UserID,
		Metadata:       s.Metadata,
		CreatedAt:      s.CreatedAt.UTC(),
		LastAccessedAt: s.LastAccessedAt.UTC(),
	})
}

// Decode parses a stored record. Version 1 records are flat objects in which every
// field other than userId, createdAt and lastAccessed is client metadata.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, errEmptyRecord
	}

	var probe struct {
		Version *uint8 `json:"v"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("malformed session record: %w", err)
	}

	if probe.Version == nil {
		return decodeFlat(data)
	}

	switch *probe.Version {
	case CurrentSchemaVersion:
		var rec recordV2
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("malformed session record: %w", err)
		}
		if rec.UserID == "" {
			return nil, errors.New("session record without user id")
		}
		return &Session{
			SchemaVersion:  CurrentSchemaVersion,
			UserID:         rec.UserID,
			Metadata:       rec.Metadata,
			CreatedAt:      rec.CreatedAt,
			LastAccessedAt: rec.LastAccessedAt,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported session schema version %d", *probe.Version)
	}
}

func decodeFlat(data []byte) (*Session, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("malformed session record: %w", err)
	}

	s := &Session{SchemaVersion: schemaVersionFlat, Metadata: map[string]string{}}
	for k, v := range fields {
		str, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "userId":
			s.UserID = str
		case "createdAt":
			s.CreatedAt, _ = time.Parse(time.RFC3339Nano, str)
		case "lastAccessed":
			s.LastAccessedAt, _ = time.Parse(time.RFC3339Nano, str)
		default:
			s.Metadata[k] = str
		}
	}
	if s.UserID == "" {
		return nil, errors.New("session record without user id")
	}
	return s, nil
}
