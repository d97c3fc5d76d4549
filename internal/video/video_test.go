package video

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/config"
)

func TestOffsets(t *testing.T) {
	assert.Nil(t, Offsets([]float64{5}, 1))
	assert.InDeltaSlice(t, []float64{4, 9, 12}, Offsets([]float64{5, 6, 4, 8}, 1), 1e-9)
}

func TestBuildSegmentArgs(t *testing.T) {
	params := config.SegmentParams{FPS: 30, Duration: 4.5, Filter: "null"}

	tests := []struct {
		encoder string
		want    []string
	}{
		{"libx264", []string{"-crf", "23", "-preset", "medium"}},
		{"h264_nvenc", []string{"-cq", "23"}},
		{"h264_videotoolbox", []string{"-b:v", "2300k"}},
	}
	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			args := BuildSegmentArgs(640, 480, "out.mp4", params, tt.encoder, 23)
			joined := strings.Join(args, " ")
			assert.Contains(t, joined, "-video_size 640x480 -i -")
			assert.Contains(t, joined, "-vf null -t 4.500000 -r 30")
			assert.Contains(t, joined, strings.Join(tt.want, " "))
			assert.Equal(t, "out.mp4", args[len(args)-1])
		})
	}
}

func TestBuildConcatArgs(t *testing.T) {
	segments := []Segment{{"s0.mp4", 5}, {"s1.mp4", 6}, {"s2.mp4", 4}}
	args := BuildConcatArgs(segments, "final.mp4", ConcatOptions{
		Transition: "fade", FadeDuration: 1, Encoder: "libx264", Quality: 20,
	})

	var graph string
	for i, a := range args {
		if a == "-filter_complex" {
			graph = args[i+1]
		}
	}
	require.NotEmpty(t, graph)
	assert.Equal(t,
		"[0:v][1:v]xfade=transition=fade:duration=1.000000:offset=4.000000[v1];"+
			"[v1][2:v]xfade=transition=fade:duration=1.000000:offset=9.000000[v2]",
		graph)
	assert.Contains(t, strings.Join(args, " "), "-map [v2]")
	assert.Equal(t, "final.mp4", args[len(args)-1])
}

func TestWriteRawRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(2, 2, 4, 3))
	gray.SetGray(2, 2, color.Gray{Y: 10})
	gray.SetGray(3, 2, color.Gray{Y: 20})

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, gray))
	assert.Equal(t, []byte{10, 10, 10, 255, 20, 20, 20, 255}, buf.Bytes())

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.Pix = []byte{1, 2, 3, 4}
	buf.Reset()
	require.NoError(t, writeRawRGBA(&buf, rgba))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())
}
