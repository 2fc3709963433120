package printer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// Geometry of a 62 mm continuous roll on the QL-5xx/7xx/8xx heads.
const (
	HeadPins        = 720
	PrintableDots   = 696
	RightMarginDots = 12
	FeedMarginDots  = 35
	lineBytes       = HeadPins / 8
	invalidateBytes = 200
)

// Raster converts img to a Brother QL raster job for 62 mm continuous media.
// Images narrower than the printable width are centred; dark pixels print.
func Raster(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("printer: empty image")
	}
	if b.Dx() > PrintableDots {
		return nil, fmt.Errorf("printer: image width %d exceeds %d dots", b.Dx(), PrintableDots)
	}

	var buf bytes.Buffer
	buf.Write(make([]byte, invalidateBytes))
	buf.Write([]byte{0x1b, '@'})
	// Raster mode.
	buf.Write([]byte{0x1b, 'i', 'a', 0x01})
	// Media: kind, width and quality valid, continuous 62 mm.
	buf.Write([]byte{0x1b, 'i', 'z', 0x8e, 0x0a, 62, 0})
	binary.Write(&buf, binary.LittleEndian, uint32(b.Dy()))
	buf.Write([]byte{0x00, 0x00})
	// Auto cut after every label.
	buf.Write([]byte{0x1b, 'i', 'M', 0x40})
	buf.Write([]byte{0x1b, 'i', 'A', 0x01})
	buf.Write([]byte{0x1b, 'i', 'K', 0x08})
	buf.Write([]byte{0x1b, 'i', 'd', FeedMarginDots, 0x00})

	pad := (PrintableDots - b.Dx()) / 2
	line := make([]byte, lineBytes)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		clear(line)
		for x := b.Min.X; x < b.Max.X; x++ {
			if !dark(img.At(x, y)) {
				continue
			}
			// The head prints mirrored, right margin first.
			dot := RightMarginDots + PrintableDots - 1 - (pad + x - b.Min.X)
			line[dot/8] |= 0x80 >> (dot % 8)
		}
		buf.Write([]byte{'g', 0x00, lineBytes})
		buf.Write(line)
	}
	// Print with feed.
	buf.WriteByte(0x1a)
	return buf.Bytes(), nil
}

func dark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	_, _, _, a := c.RGBA()
	return a > 0x7fff && g.Y < 0x80
}

// Status reply types, byte 18 of a status reply.
const (
	StatusReply             = 0x00
	StatusPrintingCompleted = 0x01
	StatusError             = 0x02
	StatusNotification      = 0x05
	StatusPhaseChange       = 0x06
)

// RawStatus is the printer's 32-byte status reply.
type RawStatus [32]byte

// Type returns the reply type.
func (s RawStatus) Type() byte { return s[18] }

var errorInfo1 = []string{
	"No media when printing",
	"End of media (die-cut size only)",
	"Tape cutter jam",
	"Weak batteries",
	"Main unit in use",
	"",
	"High-voltage adapter",
	"Fan doesn't work",
}

var errorInfo2 = []string{
	"Replace media error",
	"Expansion buffer full error",
	"Transmission / Communication error",
	"Communication buffer full error",
	"Cover opened while printing",
	"Overheating error",
	"Media cannot be fed",
	"System error",
}

// Errors lists the error bits set in the reply.
func (s RawStatus) Errors() []string {
	var errs []string
	for i, name := range errorInfo1 {
		if name != "" && s[8]&(1<<i) != 0 {
			errs = append(errs, name)
		}
	}
	for i, name := range errorInfo2 {
		if s[9]&(1<<i) != 0 {
			errs = append(errs, name)
		}
	}
	return errs
}
