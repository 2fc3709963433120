package labels

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"

	"github.com/existflow/memberbooth/internal/layout"
)

// Artwork holds the images printed on some labels.
type Artwork struct {
	Logo      image.Image
	Flammable image.Image
	Rotating  image.Image // frame with room for a QR code in the middle
}

// ArtworkPaths points at PNG replacements for the built-in artwork.
// Empty paths keep the built-in image.
type ArtworkPaths struct {
	Logo      string
	Flammable string
	Rotating  string
}

// LoadArtwork reads the configured PNGs and draws the rest.
func LoadArtwork(paths ArtworkPaths, fonts *layout.Fonts) (Artwork, error) {
	var a Artwork
	var err error

	if a.Logo, err = loadOr(paths.Logo, func() (image.Image, error) { return drawLogo(fonts) }); err != nil {
		return Artwork{}, err
	}
	if a.Flammable, err = loadOr(paths.Flammable, func() (image.Image, error) { return drawFlammable(), nil }); err != nil {
		return Artwork{}, err
	}
	if a.Rotating, err = loadOr(paths.Rotating, func() (image.Image, error) { return drawRotatingFrame(), nil }); err != nil {
		return Artwork{}, err
	}
	return a, nil
}

func loadOr(path string, builtin func() (image.Image, error)) (image.Image, error) {
	if path == "" {
		return builtin()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artwork: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode artwork %s: %w", path, err)
	}
	return img, nil
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// fill paints every pixel for which inside returns true.
func fill(img *image.RGBA, c color.Color, inside func(x, y float64) bool) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if inside(float64(x)+0.5, float64(y)+0.5) {
				img.Set(x, y, c)
			}
		}
	}
}

func inTriangle(px, py float64, a, b, c [2]float64) bool {
	side := func(p1, p2 [2]float64) float64 {
		return (px-p2[0])*(p1[1]-p2[1]) - (p1[0]-p2[0])*(py-p2[1])
	}
	d1, d2, d3 := side(a, b), side(b, c), side(c, a)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// drawLogo writes the space's name in a black band.
func drawLogo(fonts *layout.Fonts) (image.Image, error) {
	const w, h, size = 600, 190, 64
	img := blank(w, h)
	fillRect(img, image.Rect(0, 0, w, h), color.Black)

	ascent, err := fonts.Ascent(size)
	if err != nil {
		return nil, err
	}
	for i, line := range []string{"STOCKHOLM", "MAKERSPACE"} {
		lw, err := fonts.TextWidth([]string{line}, size)
		if err != nil {
			return nil, err
		}
		baseline := 20 + ascent + i*(ascent+10)
		if err := fonts.DrawString(img, line, size, (w-lw)/2, baseline, color.White); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// drawFlammable draws a hazard diamond with a flame.
func drawFlammable() image.Image {
	const s = 400
	img := blank(s, s)
	c := float64(s) / 2

	diamond := func(r float64) func(x, y float64) bool {
		return func(x, y float64) bool { return math.Abs(x-c)+math.Abs(y-c) <= r }
	}
	fill(img, color.Black, diamond(c))
	fill(img, color.White, diamond(c-24))

	flameTop := [2]float64{c, 95}
	fill(img, color.Black, func(x, y float64) bool {
		body := math.Hypot(x-c, y-235) <= 62
		tip := inTriangle(x, y, flameTop, [2]float64{c - 60, 225}, [2]float64{c + 60, 225})
		return body || tip
	})
	fill(img, color.White, func(x, y float64) bool {
		return math.Hypot(x-c, y-255) <= 28 ||
			inTriangle(x, y, [2]float64{c + 5, 185}, [2]float64{c - 27, 250}, [2]float64{c + 27, 250})
	})
	fillRect(img, image.Rect(110, 310, 290, 322), color.Black)
	return img
}

// drawRotatingFrame draws two chasing arrows around an empty middle.
func drawRotatingFrame() image.Image {
	const s = layout.CanvasWidth
	img := blank(s, s)
	c := float64(s) / 2
	const outer, inner = 270.0, 244.0

	fill(img, color.Black, func(x, y float64) bool {
		r := math.Hypot(x-c, y-c)
		if r < inner || r > outer {
			return false
		}
		a := math.Atan2(y-c, x-c) * 180 / math.Pi
		if a < 0 {
			a += 360
		}
		// Gaps where the arrow heads sit.
		return !(a > 30 && a < 60) && !(a > 210 && a < 240)
	})

	head := func(deg float64) {
		rad := deg * math.Pi / 180
		mid := (outer + inner) / 2
		tx, ty := math.Cos(rad), math.Sin(rad) // radial
		nx, ny := -ty, tx                      // clockwise tangent
		bx, by := c+mid*tx, c+mid*ty
		tip := [2]float64{bx + 40*nx, by + 40*ny}
		l := [2]float64{bx + 30*tx, by + 30*ty}
		r := [2]float64{bx - 30*tx, by - 30*ty}
		fill(img, color.Black, func(x, y float64) bool { return inTriangle(x, y, tip, l, r) })
	}
	head(28)
	head(208)
	return img
}
