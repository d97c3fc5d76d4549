// Package effects turns pan/zoom plans into ffmpeg filter graphs.
package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/geometry"
)

type Effect interface {
	GenerateFilter(plan animation.Plan, params config.SegmentParams) string
}

// Easing curves understood by KenBurns.
const (
	EaseLinear = "linear"
	EaseInOut  = "inout"
)

// KenBurns renders a plan with zoompan. The still image is padded to the
// output aspect first, so zoom and pan stay exact linear functions of the
// plan; the padding never shows because every plan state covers the
// viewport.
type KenBurns struct {
	Easing string
}

// Framing is the geometry shared by every frame of one segment: the image
// padded to the output aspect and the zoom/pan mapping onto it.
type Framing struct {
	PadW, PadH int
	OffX, OffY int

	image    geometry.Size
	viewport geometry.Size
}

// NewFraming pads an iw x ih image to the w x h aspect.
func NewFraming(iw, ih, w, h int) Framing {
	aspect := float64(w) / float64(h)
	padW := max(iw, int(math.Ceil(float64(ih)*aspect)))
	padH := max(ih, int(math.Ceil(float64(iw)/aspect)))
	return Framing{
		PadW:     padW,
		PadH:     padH,
		OffX:     (padW - iw) / 2,
		OffY:     (padH - ih) / 2,
		image:    geometry.Size{W: float64(iw), H: float64(ih)},
		viewport: geometry.Size{W: float64(w), H: float64(h)},
	}
}

// Zoom is the zoompan zoom for a plan scale: padded width over crop width.
func (f Framing) Zoom(scale float64) float64 {
	return float64(f.PadW) * geometry.FillScale(f.image, f.viewport) * scale / f.viewport.W
}

// Center maps a normalized image focus to normalized padded coordinates.
func (f Framing) Center(focus geometry.Point) geometry.Point {
	return geometry.Point{
		X: (float64(f.OffX) + focus.X*f.image.W) / float64(f.PadW),
		Y: (float64(f.OffY) + focus.Y*f.image.H) / float64(f.PadH),
	}
}

func (e KenBurns) GenerateFilter(plan animation.Plan, p config.SegmentParams) string {
	fr := NewFraming(p.ImageWidth, p.ImageHeight, p.Width, p.Height)
	frames := max(int(math.Round(p.Duration*float64(p.FPS))), 1)

	progress := "0"
	if frames > 1 {
		progress = fmt.Sprintf("min(on/%d,1)", frames-1)
	}
	if e.Easing == EaseInOut {
		progress = easeInOutCubic(progress)
	}

	z0, z1 := fr.Zoom(plan.Start.Scale), fr.Zoom(plan.End.Scale)
	c0, c1 := fr.Center(plan.Start.Focus), fr.Center(plan.End.Focus)

	padFilter := fmt.Sprintf("pad=%d:%d:%d:%d:color=black", fr.PadW, fr.PadH, fr.OffX, fr.OffY)
	// 2x working size for smoother sub-pixel panning
	scaleFilter := fmt.Sprintf("scale=%d:%d,setsar=1", p.Width*2, p.Height*2)
	zoomFilter := fmt.Sprintf(
		"zoompan=z='%s':x='iw*(%s)-iw/zoom/2':y='ih*(%s)-ih/zoom/2':d=%d:s=%dx%d:fps=%d",
		lerp(z0, z1, progress), lerp(c0.X, c1.X, progress), lerp(c0.Y, c1.Y, progress),
		frames, p.Width, p.Height, p.FPS,
	)

	chain := []string{padFilter}
	if p.Debug {
		chain = append(chain, regionBoxes(fr, plan.Regions)...)
	}
	chain = append(chain, scaleFilter, zoomFilter)
	if p.Debug {
		chain = append(chain, fmt.Sprintf(
			"drawtext=text='Slide %d':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5",
			p.PageIndex+1))
	}
	chain = append(chain, "format=yuv420p")
	return strings.Join(chain, ",")
}

// regionBoxes outlines anchor regions on the padded image, before zoompan,
// so they move with the picture.
func regionBoxes(fr Framing, regions []geometry.Rect) []string {
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		out = append(out, fmt.Sprintf("drawbox=x=%d:y=%d:w=%d:h=%d:color=yellow@0.8:t=4",
			fr.OffX+int(r.X), fr.OffY+int(r.Y), int(r.W), int(r.H)))
	}
	return out
}

func lerp(a, b float64, t string) string {
	if a == b {
		return fmt.Sprintf("%.6f", a)
	}
	return fmt.Sprintf("%.6f+(%.6f)*%s", a, b-a, t)
}

// easeInOutCubic wraps a progress expression in the ffmpeg form of
// t<0.5 ? 4t^3 : 1-(-2t+2)^3/2.
func easeInOutCubic(t string) string {
	return fmt.Sprintf("if(lt(%[1]s,0.5),4*pow(%[1]s,3),1-pow(-2*%[1]s+2,3)/2)", t)
}
