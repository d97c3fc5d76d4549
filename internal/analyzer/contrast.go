package analyzer

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/kenburns/internal/geometry"
)

// ContrastDetector finds high-contrast regions with a Sobel operator. It is a
// cheap stand-in for a face detector: busy areas of a photo tend to be where
// the subject is.
type ContrastDetector struct {
	MaxSide       int     // analysis resolution, larger images are downscaled
	MinAreaRatio  float64 // regions smaller than this share of the image are dropped
	EdgeThreshold float64 // gradient magnitude threshold
	DilateRadius  int
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MaxSide:       320,
		MinAreaRatio:  0.01,
		EdgeThreshold: 30.0,
		DilateRadius:  2,
	}
}

// Detect returns bounding boxes of connected edge regions, in the pixel space
// of img.
func (d *ContrastDetector) Detect(img image.Image) ([]geometry.Rect, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	gray, factor := d.downscale(img)
	mask := d.edges(gray)
	mask = dilate(mask, gray.Bounds().Dx(), gray.Bounds().Dy(), d.DilateRadius)

	minArea := d.MinAreaRatio * float64(gray.Bounds().Dx()*gray.Bounds().Dy())
	var regions []geometry.Rect
	for _, r := range components(mask, gray.Bounds().Dx(), gray.Bounds().Dy()) {
		if float64(r.Dx()*r.Dy()) < minArea {
			continue
		}
		regions = append(regions, geometry.Rect{
			X: float64(b.Min.X) + float64(r.Min.X)*factor,
			Y: float64(b.Min.Y) + float64(r.Min.Y)*factor,
			W: float64(r.Dx()) * factor,
			H: float64(r.Dy()) * factor,
		})
	}
	return regions, nil
}

// downscale converts to grayscale at analysis resolution and returns the
// factor mapping analysis pixels back to source pixels.
func (d *ContrastDetector) downscale(img image.Image) (*image.Gray, float64) {
	b := img.Bounds()
	factor := 1.0
	if side := max(b.Dx(), b.Dy()); d.MaxSide > 0 && side > d.MaxSide {
		factor = float64(side) / float64(d.MaxSide)
	}
	w := max(1, int(math.Round(float64(b.Dx())/factor)))
	h := max(1, int(math.Round(float64(b.Dy())/factor)))

	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	return gray, float64(b.Dx()) / float64(w)
}

// edges thresholds the Sobel gradient magnitude into a mask.
func (d *ContrastDetector) edges(gray *image.Gray) []bool {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	mask := make([]bool, w*h)
	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x])
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			mask[y*w+x] = math.Sqrt(gx*gx+gy*gy) > d.EdgeThreshold
		}
	}
	return mask
}

// dilate grows the mask by radius to connect nearby edges.
func dilate(mask []bool, w, h, radius int) []bool {
	if radius <= 0 {
		return mask
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < w && ny >= 0 && ny < h {
						out[ny*w+nx] = true
					}
				}
			}
		}
	}
	return out
}

// components returns bounding rectangles of 4-connected regions.
func components(mask []bool, w, h int) []image.Rectangle {
	visited := make([]bool, len(mask))
	var rects []image.Rectangle

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY

		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				i := ny*w + nx
				if mask[i] && !visited[i] {
					visited[i] = true
					stack = append(stack, i)
				}
			}
		}
		rects = append(rects, image.Rect(minX, minY, maxX+1, maxY+1))
	}
	return rects
}
