package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeOutThresholdTable(t *testing.T) {
	expected := map[float64]float64{
		50:  90,
		100: 150,
		200: 260,
		300: 380,
		400: 500,
		500: 625,
	}
	for radius, threshold := range expected {
		assert.Equal(t, threshold, SafeOutThreshold(radius), "radius %v", radius)
	}
}

func TestSafeOutThresholdFallback(t *testing.T) {
	assert.Equal(t, 312.5, SafeOutThreshold(250))
	assert.Equal(t, 750.0, SafeOutThreshold(600))
}

func TestIsReliableExit(t *testing.T) {
	cases := []struct {
		name     string
		distance float64
		accuracy float64
		radius   float64
		want     bool
	}{
		{"precise fix past accuracy margin", 255, 12, 200, true},
		{"precise fix exactly usable", 230, 15, 200, true},
		{"inside accuracy margin", 205, 40, 200, false},
		{"overshoot trusted despite bad accuracy", 260, 999, 200, true},
		{"imprecise fix under threshold", 240, 60, 200, false},
		{"just inside minimum margin", 224, 10, 200, false},
		{"exactly at minimum margin", 225, 10, 200, true},
		{"inside fence", 150, 5, 200, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			threshold := SafeOutThreshold(tc.radius)
			assert.Equal(t, tc.want, IsReliableExit(tc.distance, tc.accuracy, tc.radius, threshold))
		})
	}
}
