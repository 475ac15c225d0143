package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetersToFeet(t *testing.T) {
	tests := []struct {
		meters float64
		want   int
	}{
		{0, 0},
		{0.1, 0},
		{0.2, 1},
		{1.0, 3},
		{1.5, 5},
		{2.0, 7},
		{3.05, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MetersToFeet(tt.meters), "MetersToFeet(%v)", tt.meters)
	}
}

func TestDegreesToCompass(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{44, "N"},
		{45, "NE"},
		{46, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{359.9, "NW"},
		{360, "N"},
		{405, "NE"},
		{-90, "W"},
		{-1, "NW"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DegreesToCompass(tt.deg), "DegreesToCompass(%v)", tt.deg)
	}
}

func TestDeriveRange(t *testing.T) {
	tests := []struct {
		point   int
		wantMin int
		wantMax int
	}{
		{5, 4, 5},
		{2, 1, 2},
		{1, 1, 1},
		{0, 1, 0},
	}
	for _, tt := range tests {
		gotMin, gotMax := DeriveRange(tt.point)
		assert.Equal(t, tt.wantMin, gotMin, "min for %d", tt.point)
		assert.Equal(t, tt.wantMax, gotMax, "max for %d", tt.point)
	}
}

func TestIsCompassPoint(t *testing.T) {
	assert.True(t, IsCompassPoint("SW"))
	assert.False(t, IsCompassPoint("SSW"))
	assert.False(t, IsCompassPoint("sw"))
}
