package keyreader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/existflow/memberbooth/internal/logger"
)

const (
	// BaudRate of the EM4100 reader firmware.
	BaudRate = 115200
	// startupTimeout covers the Arduino reset that happens when the port is
	// opened.
	startupTimeout = 2 * time.Second
	echoTimeout    = 200 * time.Millisecond
	pollTimeout    = 10 * time.Millisecond
	identification = "EM4100 Reader"
)

var readoutFormat = regexp.MustCompile(`^DECODED: MANCHESTER=(0x[a-fA-F0-9]{10})$`)

// Port is the part of a serial port the reader uses.
type Port interface {
	io.ReadWriter
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// EM4100 is an Arduino based EM4100 reader on a serial port.
type EM4100 struct {
	device  string
	port    Port
	pending []byte
	lastTag string
}

// OpenEM4100 opens the reader on device and checks that it identifies
// itself.
func OpenEM4100(device string) (*EM4100, error) {
	logger.Info("Connecting to serial port", logger.F("device", device))
	p, err := serial.Open(device, &serial.Mode{BaudRate: BaudRate})
	if err != nil {
		return nil, fmt.Errorf("%w: serial port to key reader seems to have hanged, perhaps unplug it and plug it in again: %v",
			ErrNeedsReboot, err)
	}
	r, err := NewEM4100(device, p)
	if err != nil {
		p.Close()
		return nil, err
	}
	return r, nil
}

// NewEM4100 wraps an open port. It waits for the reader to start printing
// and then runs the identification handshake.
func NewEM4100(device string, p Port) (*EM4100, error) {
	r := &EM4100{device: device, port: p}
	// Wait until it starts up and prints something.
	if _, err := r.readLine(startupTimeout); err != nil {
		return nil, err
	}
	if err := r.checkEcho(); err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(pollTimeout); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *EM4100) String() string {
	return fmt.Sprintf("<EM4100 Key Reader tty=%s>", r.device)
}

func (r *EM4100) checkEcho() error {
	if err := r.port.ResetInputBuffer(); err != nil {
		return err
	}
	if _, err := r.port.Write([]byte("?\n")); err != nil {
		return err
	}
	line, err := r.readLine(echoTimeout)
	if err != nil {
		return err
	}
	if line == "" {
		return fmt.Errorf("%w: got no identification response from reader", ErrInit)
	}
	if !strings.HasPrefix(line, identification) {
		return fmt.Errorf("%w: wrong response from reader: %q", ErrInit, line)
	}
	logger.Info("Key reader responds", logger.F("reader", r.String()))
	return nil
}

// readLine reads until a newline or until timeout passes without one. A
// timeout returns what was read so far.
func (r *EM4100) readLine(timeout time.Duration) (string, error) {
	if err := r.port.SetReadTimeout(timeout); err != nil {
		return "", err
	}
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.port.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if n == 0 {
			return string(line), nil
		}
		line = append(line, buf[0])
		if buf[0] == '\n' {
			return string(line), nil
		}
	}
}

// TagWasRead drains the port and keeps the last complete readout.
func (r *EM4100) TagWasRead() (bool, error) {
	buf := make([]byte, 256)
	n, err := r.port.Read(buf)
	if err != nil {
		return false, fmt.Errorf("%w: the key reader has been disconnected: %v", ErrNeedsReboot, err)
	}
	if n == 0 {
		return false, nil
	}
	r.pending = append(r.pending, buf[:n]...)

	// The last piece may be a partial line; keep it for the next poll.
	lines := bytes.Split(r.pending, []byte("\r\n"))
	r.pending = append([]byte(nil), lines[len(lines)-1]...)

	found := false
	for _, line := range lines[:len(lines)-1] {
		if m := readoutFormat.FindSubmatch(line); m != nil {
			r.lastTag = string(m[1])
			found = true
		}
	}
	return found, nil
}

// TagID converts the last 40 bit EM4100 readout to the 9 digit id printed
// on Aptus tags.
func (r *EM4100) TagID() string {
	id, err := AptusID(r.lastTag)
	if err != nil {
		return ""
	}
	return id
}

// AptusID converts a hex readout such as 0x01234abcde to a 9 digit tag id.
func AptusID(readout string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(readout, "0x"), 16, 64)
	if err != nil {
		return "", fmt.Errorf("keyreader: bad readout %q: %w", readout, err)
	}
	return fmt.Sprintf("%09d", n%1_000_000_000), nil
}

// Flush drops buffered input.
func (r *EM4100) Flush() error {
	r.pending = nil
	return r.port.ResetInputBuffer()
}

func (r *EM4100) Close() error {
	return r.port.Close()
}

// SerialFinder opens the first EM4100 reader among the serial ports whose
// names start with one of Prefixes.
type SerialFinder struct {
	Prefixes []string
	// List and Open default to the system serial ports.
	List func() ([]string, error)
	Open func(device string) (Reader, error)
}

// Find tries every matching port. Extra readers are closed.
func (f SerialFinder) Find() (Reader, error) {
	list := f.List
	if list == nil {
		list = serial.GetPortsList
	}
	open := f.Open
	if open == nil {
		open = func(device string) (Reader, error) { return OpenEM4100(device) }
	}

	ports, err := list()
	if err != nil {
		return nil, fmt.Errorf("keyreader: list serial ports: %w", err)
	}

	var readers []Reader
	for _, dev := range ports {
		if !hasAnyPrefix(dev, f.Prefixes) {
			continue
		}
		r, err := open(dev)
		if err != nil {
			if errors.Is(err, ErrNeedsReboot) {
				closeAll(readers)
				return nil, err
			}
			logger.Info("Could not initialize device as EM4100 reader",
				logger.F("device", dev), logger.Err(err))
			continue
		}
		readers = append(readers, r)
	}

	if len(readers) == 0 {
		return nil, ErrNoReader
	}
	if len(readers) > 1 {
		logger.Warn("There are several key readers connected",
			logger.F("count", len(readers)), logger.F("chosen", readers[0]))
	}
	closeAll(readers[1:])
	return readers[0], nil
}

func closeAll(readers []Reader) {
	for _, r := range readers {
		r.Close()
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
