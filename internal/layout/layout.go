// Package layout composes text and image blocks into a label bitmap for a
// 62 mm Brother QL roll printed at 300 dpi.
package layout

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/draw"
)

const (
	DPI              = 300
	PixelsPerMM      = DPI / 25.4
	PrintableWidthMM = 58
	// IMGWidth is the printable width in pixels.
	IMGWidth = 685
	// CanvasWidth is the width content is fitted to.
	CanvasWidth = 569
	// Inset is the horizontal gap between the image edge and the content.
	Inset = (IMGWidth - CanvasWidth) / 2
	// ItemMargin separates blocks on auto-height labels.
	ItemMargin = 48
	// HeightMarginMM is the unprintable strip at the top and at the bottom.
	HeightMarginMM = 3
)

// Align is a block's horizontal placement.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	default:
		return "center"
	}
}

// Object is a block with a fixed pixel size, decided at construction.
type Object interface {
	Width() int
	Height() int
	Align() Align
	// MarginTop and MarginBottom report per-object overrides.
	MarginTop() (int, bool)
	MarginBottom() (int, bool)
	draw(dst *image.RGBA, x, y int) error
}

type placement struct {
	width, height int
	align         Align
	marginTop     *int
	marginBottom  *int
}

func (p placement) Width() int   { return p.width }
func (p placement) Height() int  { return p.height }
func (p placement) Align() Align { return p.align }

func (p placement) MarginTop() (int, bool) {
	if p.marginTop == nil {
		return 0, false
	}
	return *p.marginTop, true
}

func (p placement) MarginBottom() (int, bool) {
	if p.marginBottom == nil {
		return 0, false
	}
	return *p.marginBottom, true
}

type options struct {
	multiline      bool
	keepWhitespace bool
	width          int
	maxFontSize    int
	align          Align
	marginTop      *int
	marginBottom   *int
	fonts          *Fonts
}

func buildOptions(opts []Option) options {
	o := options{width: CanvasWidth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) placement() placement {
	return placement{align: o.align, marginTop: o.marginTop, marginBottom: o.marginBottom}
}

// Option configures a String or an Image.
type Option func(*options)

// Multiline wraps text at WrapColumns.
func Multiline() Option { return func(o *options) { o.multiline = true } }

// KeepNewlines keeps the text's own line breaks when wrapping.
func KeepNewlines() Option { return func(o *options) { o.keepWhitespace = true } }

// Width sets the target width in pixels.
func Width(px int) Option { return func(o *options) { o.width = px } }

// FontSizeLimit renders at size pixels, or smaller when the text would not
// fit the target width. Fitting never grows past it.
func FontSizeLimit(size int) Option { return func(o *options) { o.maxFontSize = size } }

// WithAlign sets horizontal placement.
func WithAlign(a Align) Option { return func(o *options) { o.align = a } }

// MarginTop overrides the space above the block (default 0).
func MarginTop(px int) Option { return func(o *options) { o.marginTop = &px } }

// MarginBottom overrides the space below the block (default: the label margin).
func MarginBottom(px int) Option { return func(o *options) { o.marginBottom = &px } }

// WithFonts renders text with f instead of the bundled typeface.
func WithFonts(f *Fonts) Option { return func(o *options) { o.fonts = f } }

// Image is a bitmap scaled to a target width, keeping its aspect ratio.
type Image struct {
	placement
	img *image.RGBA
}

// NewImage scales src to the target width (CanvasWidth by default).
func NewImage(src image.Image, opts ...Option) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("layout: nil image")
	}
	o := buildOptions(opts)
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || o.width <= 0 {
		return nil, fmt.Errorf("layout: cannot scale %dx%d image to width %d", b.Dx(), b.Dy(), o.width)
	}

	h := int(float64(o.width) / float64(b.Dx()) * float64(b.Dy()))
	dst := image.NewRGBA(image.Rect(0, 0, o.width, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	p := o.placement()
	p.width, p.height = o.width, h
	return &Image{placement: p, img: dst}, nil
}

// LoadImage decodes a PNG file into an Image.
func LoadImage(path string, opts ...Option) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewImage(src, opts...)
}

func (i *Image) draw(dst *image.RGBA, x, y int) error {
	r := image.Rect(x, y, x+i.width, y+i.height)
	draw.Draw(dst, r, i.img, image.Point{}, draw.Over)
	return nil
}

// Label is the composed bitmap.
type Label struct {
	Objects []Object
	Height  int
	Margin  int
	img     *image.RGBA
}

// NewLabel stacks objects top to bottom on an auto-height canvas: one
// leading margin, then each object with its top margin (default 0) and
// bottom margin (default ItemMargin).
func NewLabel(objects ...Object) (*Label, error) {
	l := &Label{Objects: objects, Margin: ItemMargin}
	h := l.Margin
	for _, o := range objects {
		top, _ := o.MarginTop()
		bottom, ok := o.MarginBottom()
		if !ok {
			bottom = l.Margin
		}
		h += o.Height() + top + bottom
	}
	l.Height = h
	return l, l.render()
}

// NewFixedLabel lays objects out on a label heightMM tall, spreading the
// leftover space evenly over the N+1 gaps around them.
func NewFixedLabel(heightMM float64, objects ...Object) (*Label, error) {
	l := &Label{Objects: objects, Height: HeightPixels(heightMM)}
	content := 0
	for _, o := range objects {
		content += o.Height()
	}
	l.Margin = int(math.Floor(float64(l.Height-content) / float64(len(objects)+1)))
	return l, l.render()
}

// HeightPixels converts a physical label height to printable pixels.
func HeightPixels(heightMM float64) int {
	return int(math.Floor((heightMM - 2*HeightMarginMM) * PixelsPerMM))
}

func (l *Label) render() error {
	if l.Height <= 0 {
		return fmt.Errorf("layout: label height %d", l.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, IMGWidth, l.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := l.Margin
	for _, o := range l.Objects {
		top, _ := o.MarginTop()
		y += top

		if err := o.draw(img, X(o.Align(), o.Width()), y); err != nil {
			return err
		}

		bottom, ok := o.MarginBottom()
		if !ok {
			bottom = l.Margin
		}
		y += o.Height() + bottom
	}
	l.img = img
	return nil
}

// X returns the left edge of a block of width w under alignment a.
func X(a Align, w int) int {
	switch a {
	case AlignLeft:
		return Inset
	case AlignRight:
		return IMGWidth - Inset - w
	default:
		return (IMGWidth - w) / 2
	}
}

// Image returns the rendered bitmap.
func (l *Label) Image() *image.RGBA { return l.img }

// Encode writes the label as PNG.
func (l *Label) Encode(w io.Writer) error {
	return png.Encode(w, l.img)
}

// Save writes the label as a PNG file.
func (l *Label) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := l.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func (l *Label) String() string {
	return fmt.Sprintf("label_height = %d", l.Height)
}
