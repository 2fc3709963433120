// Package labels turns label records into laid out labels.
package labels

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/existflow/memberbooth/internal/layout"
	"github.com/existflow/memberbooth/internal/model"
)

const (
	// DefaultWikiLink explains the storage rules warning labels refer to.
	DefaultWikiLink = "https://wiki.makerspace.se/Medlemsförvaring"
	// Printer3DHeightMM is the fixed height of 3D printer tags.
	Printer3DHeightMM = 25
	rotatingQRSize    = 200
	idWidth           = layout.CanvasWidth / 5
	dateLayout        = "2006-01-02"
)

// ErrUnknownLabel is returned for label types the factory has no template for.
var ErrUnknownLabel = errors.New("labels: unknown label type")

// Factory builds the object sequence for each label kind.
type Factory struct {
	fonts    *layout.Fonts
	art      Artwork
	wikiLink string
}

// NewFactory returns a factory using fonts and art. An empty wikiLink uses
// DefaultWikiLink.
func NewFactory(fonts *layout.Fonts, art Artwork, wikiLink string) *Factory {
	if wikiLink == "" {
		wikiLink = DefaultWikiLink
	}
	return &Factory{fonts: fonts, art: art, wikiLink: wikiLink}
}

// Create lays out an uploaded label. now decides whether a name tag's
// membership has lapsed.
func (f *Factory) Create(u model.UploadedLabel, now time.Time) (*layout.Label, error) {
	switch l := u.Label.(type) {
	case model.BoxLabel:
		return f.box(u.PublicURL, l)
	case model.TemporaryStorageLabel:
		return f.temporary(u.PublicURL, l)
	case model.RotatingStorageLabel:
		return f.rotating(u.PublicURL, l)
	case model.FireSafetyLabel:
		return f.fire(l)
	case model.Printer3DLabel:
		return f.printer3D(l)
	case model.NameTag:
		return f.nameTag(l, now)
	case model.MeetupNameTag:
		return f.meetup(l)
	case model.DryingLabel:
		return f.drying(l)
	case model.WarningLabel:
		return f.warning(l)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownLabel, u.Label)
}

// builder collects objects and keeps the first error.
type builder struct {
	fonts   *layout.Fonts
	objects []layout.Object
	err     error
}

func (f *Factory) newBuilder() *builder {
	return &builder{fonts: f.fonts}
}

func (b *builder) text(s string, opts ...layout.Option) *builder {
	if b.err != nil {
		return b
	}
	obj, err := layout.NewString(s, append(opts, layout.WithFonts(b.fonts))...)
	if err != nil {
		b.err = fmt.Errorf("text %q: %w", s, err)
		return b
	}
	b.objects = append(b.objects, obj)
	return b
}

func (b *builder) multiline(s string, opts ...layout.Option) *builder {
	return b.text(s, append(opts, layout.Multiline())...)
}

func (b *builder) image(img image.Image, opts ...layout.Option) *builder {
	if b.err != nil {
		return b
	}
	obj, err := layout.NewImage(img, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.objects = append(b.objects, obj)
	return b
}

func (b *builder) qr(content string, opts ...layout.Option) *builder {
	if b.err != nil {
		return b
	}
	img, err := QRImage(content)
	if err != nil {
		b.err = err
		return b
	}
	return b.image(img, opts...)
}

func (b *builder) label() (*layout.Label, error) {
	if b.err != nil {
		return nil, b.err
	}
	return layout.NewLabel(b.objects...)
}

func (f *Factory) box(url string, l model.BoxLabel) (*layout.Label, error) {
	return f.newBuilder().
		image(f.art.Logo).
		qr(url).
		text(memberNumber(l.LabelBase)).
		text(l.MemberName).
		label()
}

func (f *Factory) temporary(url string, l model.TemporaryStorageLabel) (*layout.Label, error) {
	return f.newBuilder().
		text("Temporary storage").
		qr(url, layout.MarginBottom(0)).
		text(GroupDigits(l.ID), layout.Width(idWidth), layout.WithAlign(layout.AlignRight),
			layout.MarginTop(10), layout.MarginBottom(layout.ItemMargin-10)).
		multiline(memberNumber(l.LabelBase)+"\n"+l.MemberName, layout.KeepNewlines()).
		multiline("The board can throw this away after\n"+l.ExpiresAt.Format(dateLayout), layout.KeepNewlines()).
		multiline(l.Description).
		label()
}

func (f *Factory) rotating(url string, l model.RotatingStorageLabel) (*layout.Label, error) {
	code, err := QRImage(url)
	if err != nil {
		return nil, err
	}
	framed, qrBottom := pasteCentered(f.art.Rotating, code, rotatingQRSize)

	// The id sits inside the frame, just under the QR code, once the frame
	// is scaled to the canvas width.
	scale := float64(layout.CanvasWidth) / float64(framed.Bounds().Dx())
	height := int(scale * float64(framed.Bounds().Dy()))
	gap := height - int(scale*float64(qrBottom))

	return f.newBuilder().
		text("Rotating storage").
		image(framed, layout.MarginBottom(0)).
		text(GroupDigits(l.ID), layout.Width(idWidth),
			layout.MarginTop(-gap+10), layout.MarginBottom(layout.ItemMargin+gap-10)).
		multiline(memberNumber(l.LabelBase)+"\n"+l.MemberName, layout.KeepNewlines()).
		multiline("Printed "+l.CreatedAt.Format(dateLayout)+"\n\nAny member can use this when in the Free For All section",
			layout.KeepNewlines()).
		multiline(l.Description).
		label()
}

func (f *Factory) fire(l model.FireSafetyLabel) (*layout.Label, error) {
	return f.newBuilder().
		image(f.art.Flammable).
		text("Store in Fire safety cabinet").
		text("This product belongs to").
		text(memberNumber(l.LabelBase)).
		text(l.MemberName).
		text("Any member can use this product from").
		text(l.ExpiresAt.Format(dateLayout)).
		label()
}

// Printer3DFontSize is the size that lets two lines share a 3D printer tag.
func Printer3DFontSize() int {
	const lines = 2
	h := layout.HeightPixels(Printer3DHeightMM)
	perLine := (h - (lines + 1)) / lines
	return int(float64(perLine) * 1.33)
}

func (f *Factory) printer3D(l model.Printer3DLabel) (*layout.Label, error) {
	size := Printer3DFontSize()
	b := f.newBuilder().
		text(memberNumber(l.LabelBase), layout.FontSizeLimit(size)).
		text(l.MemberName, layout.FontSizeLimit(size))
	if b.err != nil {
		return nil, b.err
	}
	return layout.NewFixedLabel(Printer3DHeightMM, b.objects...)
}

// MembershipText describes a name tag's membership on the day of now.
func MembershipText(expires *time.Time, now time.Time) string {
	if expires == nil || model.DateOf(*expires).Before(model.DateOf(now)) {
		return "No active membership"
	}
	return "Member until " + expires.Format(dateLayout)
}

func (f *Factory) nameTag(l model.NameTag, now time.Time) (*layout.Label, error) {
	return f.newBuilder().
		text(l.MemberName).
		text(MembershipText(l.MembershipExpiresAt, now)).
		label()
}

// meetupWritingSpace is the pixel size of the blank line left for writing.
const meetupWritingSpace = 300

func (f *Factory) meetup(l model.MeetupNameTag) (*layout.Label, error) {
	return f.newBuilder().
		text(l.MemberName).
		text("Ask me about:").
		text("", layout.FontSizeLimit(meetupWritingSpace)).
		label()
}

func (f *Factory) drying(l model.DryingLabel) (*layout.Label, error) {
	return f.newBuilder().
		multiline("\nDone drying by\n", layout.KeepNewlines()).
		text(l.ExpiresAt.Format("2006-01-02 15:04")).
		text(memberNumber(l.LabelBase)).
		multiline(l.MemberName+"\n", layout.KeepNewlines()).
		label()
}

// WarningText is the violation notice printed on warning labels.
func WarningText(l model.WarningLabel) string {
	return fmt.Sprintf("This project is, as of %s, violating our storage rules. Unless corrected, the board may throw this away by %s.",
		l.CreatedAt.Format(dateLayout), l.ExpiresAt.Format(dateLayout))
}

func (f *Factory) warning(l model.WarningLabel) (*layout.Label, error) {
	b := f.newBuilder().
		image(f.art.Logo).
		multiline(WarningText(l))
	if l.Description != nil && strings.TrimSpace(*l.Description) != "" {
		b.multiline(*l.Description)
	}
	return b.
		text("More info on the following web page:").
		qr(f.wikiLink).
		text(f.wikiLink).
		label()
}

func memberNumber(b model.LabelBase) string {
	return "#" + strconv.Itoa(b.MemberNumber)
}

// GroupDigits formats id with a space between every group of three digits.
func GroupDigits(id uint64) string {
	s := strconv.FormatUint(id, 10)
	var out strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

// pasteCentered scales code to size pixels and pastes it in the middle of
// frame. It returns the composite and the y coordinate of the code's
// bottom edge.
func pasteCentered(frame, code image.Image, size int) (*image.RGBA, int) {
	fb := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	draw.Draw(out, out.Bounds(), frame, fb.Min, draw.Src)

	off := image.Pt((fb.Dx()-size)/2, (fb.Dy()-size)/2)
	dst := image.Rectangle{Min: off, Max: off.Add(image.Pt(size, size))}
	draw.NearestNeighbor.Scale(out, dst, code, code.Bounds(), draw.Src, nil)
	return out, dst.Max.Y
}
