package source

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzPDF renders PDF pages with MuPDF.
type FitzPDF struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDF(path string) (*FitzPDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDF{doc: doc, path: path}, nil
}

func (f *FitzPDF) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDF) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// RenderPage opens its own document: a fitz.Document is not safe for
// concurrent rendering.
func (f *FitzPDF) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDF) Close() error {
	return f.doc.Close()
}
