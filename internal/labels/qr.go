package labels

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
)

const (
	// QRBoxSize is the pixel size of one QR module.
	QRBoxSize = 15
	// QRReferenceURL is the longest label URL the booth produces. Upper case
	// keeps it in the alphanumeric QR mode; the 13 digit id is encoded
	// numerically.
	QRReferenceURL = "HTTP://API.MAKERSPACE.SE/L/1234567890123"
	// QRReferenceVersion is the symbol version QRReferenceURL must fit in.
	QRReferenceVersion = 2
)

// NewQR encodes content at error correction level M in the smallest version
// that holds it, with no quiet zone.
func NewQR(content string) (*qrcode.QRCode, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr %q: %w", content, err)
	}
	q.DisableBorder = true
	return q, nil
}

// QRImage renders content at QRBoxSize pixels per module.
func QRImage(content string) (image.Image, error) {
	q, err := NewQR(content)
	if err != nil {
		return nil, err
	}
	return q.Image(-QRBoxSize), nil
}

// CheckQRVersion verifies that label URLs still fit the symbol size the
// printed labels are designed around.
func CheckQRVersion() error {
	q, err := NewQR(QRReferenceURL)
	if err != nil {
		return err
	}
	if q.VersionNumber != QRReferenceVersion {
		return fmt.Errorf("QR code size is %d, expected %d", q.VersionNumber, QRReferenceVersion)
	}
	return nil
}
