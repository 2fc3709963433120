package layout

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Fonts renders one typeface at pixel sizes. Faces are cached per size;
// opentype faces are not safe for concurrent use, so every call locks.
type Fonts struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[int]font.Face
}

var (
	defaultFonts     *Fonts
	defaultFontsErr  error
	defaultFontsOnce sync.Once
)

// DefaultFonts returns the bundled Go Bold typeface.
func DefaultFonts() (*Fonts, error) {
	defaultFontsOnce.Do(func() {
		defaultFonts, defaultFontsErr = ParseFonts(gobold.TTF)
	})
	return defaultFonts, defaultFontsErr
}

// ParseFonts loads a TrueType or OpenType font.
func ParseFonts(ttf []byte) (*Fonts, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Fonts{font: f, faces: make(map[int]font.Face)}, nil
}

// face returns the cached face for size pixels. Caller holds mu.
func (f *Fonts) face(size int) (font.Face, error) {
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72, // size is in pixels
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %dpx: %w", size, err)
	}
	f.faces[size] = face
	return face, nil
}

// TextWidth returns the widest line's advance at size.
func (f *Fonts) TextWidth(lines []string, size int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	face, err := f.face(size)
	if err != nil {
		return 0, err
	}
	widest := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > widest {
			widest = w
		}
	}
	return widest, nil
}

// Ascent returns the face ascent at size, in pixels.
func (f *Fonts) Ascent(size int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	face, err := f.face(size)
	if err != nil {
		return 0, err
	}
	return face.Metrics().Ascent.Ceil(), nil
}

// textMetrics describes how a block of lines occupies vertical space.
type textMetrics struct {
	inkTop     int // offset from baseline to the top of the ink, negative
	inkHeight  int
	ascent     int
	lineHeight int
	lineGap    int
}

func (f *Fonts) metrics(text string, size int) (textMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	face, err := f.face(size)
	if err != nil {
		return textMetrics{}, err
	}
	m := face.Metrics()
	bounds, _ := font.BoundString(face, text)
	return textMetrics{
		inkTop:     bounds.Min.Y.Floor(),
		inkHeight:  (bounds.Max.Y - bounds.Min.Y).Ceil(),
		ascent:     m.Ascent.Ceil(),
		lineHeight: (m.Ascent + m.Descent).Ceil(),
		lineGap:    lineSpacing,
	}, nil
}

// DrawString draws one line of text with its origin at (x, baseline).
func (f *Fonts) DrawString(dst *image.RGBA, text string, size int, x, baseline int, c color.Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	face, err := f.face(size)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)},
	}
	d.DrawString(text)
	return nil
}
