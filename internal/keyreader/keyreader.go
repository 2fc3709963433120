// Package keyreader polls the hardware that reads member key tags.
package keyreader

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNoReader is returned when no key reader is connected.
	ErrNoReader = errors.New("keyreader: no key reader found")
	// ErrNeedsReboot is returned when a reader stops answering and must be
	// unplugged and plugged in again.
	ErrNeedsReboot = errors.New("keyreader: key reader needs reboot")
	// ErrInit is returned when a device does not identify as a key reader.
	ErrInit = errors.New("keyreader: device is not a key reader")
)

// Reader is a connected key reader.
type Reader interface {
	// TagWasRead reports whether a complete tag readout arrived since the
	// last call.
	TagWasRead() (bool, error)
	// TagID returns the latest readout as a 9 digit tag id.
	TagID() string
	Close() error
}

// Finder locates a connected reader.
type Finder interface {
	Find() (Reader, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func() (Reader, error)

// Find calls f.
func (f FinderFunc) Find() (Reader, error) { return f() }

var tagFormat = regexp.MustCompile(`^[0-9]{9}$`)

// ValidTag reports whether s is a 9 digit tag id.
func ValidTag(s string) bool {
	return tagFormat.MatchString(s)
}

// FilterDigits drops everything but ASCII digits. Keyboard wedge readers
// sometimes emit stray characters around the number.
func FilterDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KeyboardDebounce is how long the tag field waits after the last keystroke
// before it is checked and cleared.
const KeyboardDebounce = 100 * time.Millisecond

// Keyboard is a reader that types tag ids into the login view like a
// keyboard. Tags arrive as view input, so it never reports a readout itself.
type Keyboard struct{}

func (Keyboard) TagWasRead() (bool, error) { return false, nil }
func (Keyboard) TagID() string             { return "" }
func (Keyboard) Close() error              { return nil }

func (Keyboard) String() string { return "<Keyboard Key Reader>" }

// KeyboardFinder always finds the keyboard.
var KeyboardFinder = FinderFunc(func() (Reader, error) { return Keyboard{}, nil })
