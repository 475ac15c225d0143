package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/surfcast/internal/models"
)

const sample = `
locations:
  - id: trestles
    name: Trestles
    latitude: 33.382
    longitude: -117.588
    region: Orange County
    difficulty: intermediate
  - id: pipeline
    name: Pipeline
    latitude: 21.665
    longitude: -158.053
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Locations, 2)

	loc := f.Locations[0].Location()
	assert.Equal(t, "trestles", loc.ID)
	assert.Equal(t, 33.382, loc.Latitude)
	assert.Equal(t, "Orange County", loc.Region.String)
	assert.True(t, loc.Difficulty.Valid)

	loc = f.Locations[1].Location()
	assert.False(t, loc.Region.Valid)
	assert.False(t, loc.Difficulty.Valid)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing id", doc: "locations:\n  - name: X\n    latitude: 1\n    longitude: 1\n"},
		{name: "latitude out of range", doc: "locations:\n  - id: x\n    name: X\n    latitude: 91\n    longitude: 1\n"},
		{name: "longitude out of range", doc: "locations:\n  - id: x\n    name: X\n    latitude: 1\n    longitude: -181\n"},
		{name: "unknown difficulty", doc: "locations:\n  - id: x\n    name: X\n    latitude: 1\n    longitude: 1\n    difficulty: heroic\n"},
		{name: "duplicate id", doc: "locations:\n  - id: x\n    name: X\n    latitude: 1\n    longitude: 1\n  - id: x\n    name: Y\n    latitude: 2\n    longitude: 2\n"},
		{name: "not yaml", doc: "locations: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Locations, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type recordingWriter struct {
	locations []models.Location
	failOn    string
}

func (w *recordingWriter) UpsertLocation(ctx context.Context, loc models.Location) error {
	if loc.ID == w.failOn {
		return errors.New("disk full")
	}
	w.locations = append(w.locations, loc)
	return nil
}

func TestSeed(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	w := &recordingWriter{}
	n, err := Seed(context.Background(), w, f)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, w.locations, 2)

	failing := &recordingWriter{failOn: "pipeline"}
	n, err = Seed(context.Background(), failing, f)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}
