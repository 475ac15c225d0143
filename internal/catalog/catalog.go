package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lox/surfcast/internal/models"
)

var validate = validator.New()

// Entry is one surf location in a catalog seed file.
type Entry struct {
	ID         string  `yaml:"id" validate:"required"`
	Name       string  `yaml:"name" validate:"required"`
	Latitude   float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
	Region     string  `yaml:"region"`
	Difficulty string  `yaml:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
}

type File struct {
	Locations []Entry `yaml:"locations" validate:"dive"`
}

// Load reads and validates a catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Locations))
	for _, e := range f.Locations {
		if seen[e.ID] {
			return nil, fmt.Errorf("validate catalog: duplicate location id %q", e.ID)
		}
		seen[e.ID] = true
	}
	return &f, nil
}

func (e Entry) Location() models.Location {
	loc := models.Location{
		ID:        e.ID,
		Name:      e.Name,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
	}
	if e.Region != "" {
		loc.Region = sql.NullString{String: e.Region, Valid: true}
	}
	if e.Difficulty != "" {
		loc.Difficulty = sql.NullString{String: e.Difficulty, Valid: true}
	}
	return loc
}

// LocationWriter is satisfied by the store.
type LocationWriter interface {
	UpsertLocation(ctx context.Context, loc models.Location) error
}

// Seed upserts every catalog entry and returns how many were written.
func Seed(ctx context.Context, w LocationWriter, f *File) (int, error) {
	for i, e := range f.Locations {
		if err := w.UpsertLocation(ctx, e.Location()); err != nil {
			return i, fmt.Errorf("upsert location %s: %w", e.ID, err)
		}
	}
	return len(f.Locations), nil
}
