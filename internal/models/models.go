package models

import (
	"database/sql"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for forecast dates in storage and on the wire.
const DateLayout = "2006-01-02"

type Location struct {
	ID         string
	Name       string
	Latitude   float64
	Longitude  float64
	Region     sql.NullString
	Difficulty sql.NullString
}

type Rating string

const (
	RatingEpic Rating = "epic"
	RatingGood Rating = "good"
	RatingFair Rating = "fair"
	RatingPoor Rating = "poor"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingEpic, RatingGood, RatingFair, RatingPoor:
		return true
	}
	return false
}

// ParseRating accepts provider spellings case-insensitively.
// Unknown or empty values report false.
func ParseRating(s string) (Rating, bool) {
	r := Rating(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

type Source string

const (
	SourceSpotter        Source = "spotter-network"
	SourceStoredProvider Source = "stored-provider"
	SourceGlobalModel    Source = "global-model"
)

func (s Source) Valid() bool {
	switch s {
	case SourceSpotter, SourceStoredProvider, SourceGlobalModel:
		return true
	}
	return false
}

// DailyForecast is one normalized forecast day for a location.
// (LocationID, Date) is the natural key.
type DailyForecast struct {
	LocationID      string
	Date            time.Time // UTC midnight
	WaveHeightMinFt int
	WaveHeightMaxFt int
	SwellPeriodSec  sql.NullFloat64
	WindDirection   sql.NullString // 8-point compass
	Rating          Rating
	Source          Source
	LastUpdatedAt   time.Time
}

// Report is a partial forecast day as produced by a provider adapter.
// Any field other than Date may be absent.
type Report struct {
	Date          time.Time
	HeightMinFt   sql.NullFloat64
	HeightMaxFt   sql.NullFloat64
	HeightMeters  sql.NullFloat64 // single point estimate
	PeriodSec     sql.NullFloat64
	DirectionDeg  sql.NullFloat64
	WindDirection sql.NullString
	Rating        sql.NullString
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date, also accepting a full RFC3339 timestamp.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
