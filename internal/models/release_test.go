package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelease_DisplayFields(t *testing.T) {
	r := &Release{Title: "Selected Ambient Works", Artist: "Aphex Twin"}

	assert.Equal(t, "Selected Ambient Works", r.DisplayTitle())
	assert.Equal(t, "Aphex Twin", r.DisplayArtist())

	r.UserCorrections = map[string]string{"title": "Selected Ambient Works 85-92"}
	assert.Equal(t, "Selected Ambient Works 85-92", r.DisplayTitle())
	assert.Equal(t, "Aphex Twin", r.DisplayArtist())
}

func TestTrack_HasUserData(t *testing.T) {
	bpm := 126
	energy := 7

	tests := []struct {
		name  string
		track Track
		want  bool
	}{
		{"empty", Track{Position: "A1", Title: "Xtal"}, false},
		{"bpm", Track{BPM: &bpm}, true},
		{"key", Track{MusicalKey: "Am"}, true},
		{"camelot", Track{Camelot: "8A"}, true},
		{"energy", Track{Energy: &energy}, true},
		{"playable", Track{IsPlayable: true}, true},
		{"notes", Track{Notes: "great opener"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.track.HasUserData())
		})
	}
}
