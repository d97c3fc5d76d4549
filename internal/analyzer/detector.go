package analyzer

import (
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/kenburns/internal/geometry"
)

// ErrUnknownDetector is returned by NewDetector for unsupported variants.
var ErrUnknownDetector = errors.New("unknown detector variant")

// Detector finds anchor regions (faces or other points of interest) in an
// image. Rectangles are in the image's pixel space. Finding nothing is not
// an error.
type Detector interface {
	Detect(img image.Image) ([]geometry.Rect, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(img image.Image) ([]geometry.Rect, error)

func (f DetectorFunc) Detect(img image.Image) ([]geometry.Rect, error) {
	return f(img)
}

// None never finds anything.
type None struct{}

func (None) Detect(image.Image) ([]geometry.Rect, error) {
	return nil, nil
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "none", "":
		return None{}, nil
	case "contrast":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, variant)
	}
}
