package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateDurations(t *testing.T) {
	tests := []struct {
		name                             string
		image, imageDev, trans, transDev time.Duration
		wantErr                          bool
	}{
		{"defaults", 10 * time.Second, 0, 4 * time.Second, 0, false},
		{"deviation eats slack", 2 * time.Second, time.Second, 4 * time.Second, 0, true},
		{"exactly zero slack", 3 * time.Second, time.Second, 4 * time.Second, 0, true},
		{"transition deviation helps", 3 * time.Second, time.Second, 4 * time.Second, time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ImageAnimationDuration = tt.image
			cfg.ImageAnimationDurationDeviation = tt.imageDev
			cfg.TransitionAnimationDuration = tt.trans
			cfg.TransitionAnimationDurationDeviation = tt.transDev

			err := cfg.ValidateDurations()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDurations)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.ScaleFactorDeviation = -0.1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.TransitionAnimationDuration = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.FaceMode = "eyes"
	assert.Error(t, cfg.Validate())
}

func TestParseFaceMode(t *testing.T) {
	for in, want := range map[string]FaceMode{
		"":        FaceModeNone,
		"None":    FaceModeNone,
		"BIGGEST": FaceModeBiggest,
		" group ": FaceModeGroup,
	} {
		got, err := ParseFaceMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kenburns.yaml")
	data := []byte(`
scale_factor_deviation: 0.25
image_animation_duration: 8s
image_animation_duration_deviation: 1s
transition_animation_duration: 2s
face_mode: Biggest
show_face_regions: true
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.ScaleFactorDeviation)
	assert.Equal(t, 8*time.Second, cfg.ImageAnimationDuration)
	assert.Equal(t, time.Second, cfg.ImageAnimationDurationDeviation)
	assert.Equal(t, 2*time.Second, cfg.TransitionAnimationDuration)
	assert.Equal(t, FaceModeBiggest, cfg.FaceMode)
	assert.True(t, cfg.ShowFaceRegions)
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := []byte("image_animation_duration: 2s\nimage_animation_duration_deviation: 1s\ntransition_animation_duration: 4s\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidDurations)
}
