package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
)

// ProviderPayload is a raw marine-model response ingested for a coordinate.
type ProviderPayload struct {
	ID          int64
	Provider    string
	Latitude    float64
	Longitude   float64
	FetchedAt   time.Time
	Payload     []byte // decompressed
	PayloadHash string
}

// StoreProviderPayload compresses and stores a provider response for a coordinate.
// A later payload for the same provider and coordinate replaces the earlier one
// and keeps its id, so table-scan order stays stable across re-imports.
func (s *Store) StoreProviderPayload(ctx context.Context, provider string, lat, lng float64, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)
	hashHex := hex.EncodeToString(hash[:])

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO provider_payloads (provider, latitude, longitude, fetched_at, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, latitude, longitude) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload_compressed = excluded.payload_compressed,
			payload_hash = excluded.payload_hash
		RETURNING id
	`, provider, lat, lng, s.now().UTC(), buf.Bytes(), hashHex).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert provider payload: %w", err)
	}
	return id, nil
}

// FindProviderPayloadNear returns the first stored payload, in id order, whose
// coordinates are strictly within tolerance degrees on both axes. It returns
// nil when nothing matches.
func (s *Store) FindProviderPayloadNear(ctx context.Context, lat, lng, tolerance float64) (*ProviderPayload, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, latitude, longitude, fetched_at, payload_compressed, payload_hash
		FROM provider_payloads
		WHERE ABS(latitude - ?) < ? AND ABS(longitude - ?) < ?
		ORDER BY id ASC
		LIMIT 1
	`, lat, tolerance, lng, tolerance)

	var (
		p          ProviderPayload
		compressed []byte
	)
	err := row.Scan(&p.ID, &p.Provider, &p.Latitude, &p.Longitude, &p.FetchedAt, &compressed, &p.PayloadHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Payload, err = decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("provider payload %d: %w", p.ID, err)
	}
	return &p, nil
}

// CountProviderPayloads returns the number of stored provider payloads.
func (s *Store) CountProviderPayloads(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM provider_payloads`).Scan(&n)
	return n, err
}

func decompress(compressed []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
