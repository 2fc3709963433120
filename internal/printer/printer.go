// Package printer sends label bitmaps to a Brother QL printer through the
// kernel's USB line-printer device.
package printer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/existflow/memberbooth/internal/logger"
)

// ErrNotFound is returned when no printer device is present.
var ErrNotFound = errors.New("printer: device not found")

// Status is what the printer reported after a job.
type Status struct {
	Errors []string
}

// Result describes a finished print job.
type Result struct {
	DidPrint bool
	State    Status
}

func (r Result) String() string {
	if r.DidPrint {
		return "did_print=true"
	}
	return "did_print=false errors=[" + strings.Join(r.State.Errors, ", ") + "]"
}

// Printer prints a rendered label.
type Printer interface {
	Print(ctx context.Context, img image.Image) (Result, error)
}

// PrinterFunc adapts a function to Printer.
type PrinterFunc func(ctx context.Context, img image.Image) (Result, error)

// Print calls f.
func (f PrinterFunc) Print(ctx context.Context, img image.Image) (Result, error) {
	return f(ctx, img)
}

// Default device and media.
const (
	DefaultDevice = "/dev/usb/lp0"
	DefaultModel  = "QL-800"
	DefaultLabel  = "62"
)

// StatusTimeout bounds the wait for the printer's status reply.
const StatusTimeout = 10 * time.Second

// QL prints on a Brother QL over a line-printer device file.
type QL struct {
	Device string
	Model  string
	Label  string
	// open is replaced in tests.
	open func(path string) (io.ReadWriteCloser, error)
}

// NewQL returns a QL printer on device. Empty values fall back to the
// defaults.
func NewQL(device, model, label string) *QL {
	if device == "" {
		device = DefaultDevice
	}
	if model == "" {
		model = DefaultModel
	}
	if label == "" {
		label = DefaultLabel
	}
	return &QL{Device: device, Model: model, Label: label, open: openDevice}
}

func openDevice(path string) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

// Print rasterizes img, sends it and waits for the printer to report
// completion or an error.
func (p *QL) Print(ctx context.Context, img image.Image) (Result, error) {
	if p.Label != DefaultLabel {
		return Result{}, fmt.Errorf("printer: unsupported label type %q", p.Label)
	}
	job, err := Raster(img)
	if err != nil {
		return Result{}, err
	}

	open := p.open
	if open == nil {
		open = openDevice
	}
	dev, err := open(p.Device)
	if err != nil {
		return Result{}, err
	}
	defer dev.Close()

	logger.Info("Sending label to printer",
		logger.F("device", p.Device),
		logger.F("model", p.Model),
		logger.F("bytes", len(job)),
	)
	if _, err := dev.Write(job); err != nil {
		return Result{}, fmt.Errorf("printer: write: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, StatusTimeout)
	defer cancel()
	setReadDeadline(ctx, dev)
	return awaitResult(ctx, dev)
}

// setReadDeadline makes pending status reads on dev fail once ctx expires,
// so the reader in awaitResult exits. os.OpenFile registers character
// devices with the runtime poller when the driver supports it; devices that
// do not can leave that reader blocked until the device is closed.
func setReadDeadline(ctx context.Context, dev io.Reader) {
	d, ok := dev.(interface{ SetReadDeadline(time.Time) error })
	if !ok {
		return
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return
	}
	if err := d.SetReadDeadline(deadline); err != nil {
		logger.Debug("Printer device has no read deadline", logger.Err(err))
	}
}

// awaitResult reads status replies until the printer reports completion or
// an error.
func awaitResult(ctx context.Context, r io.Reader) (Result, error) {
	type reply struct {
		st  RawStatus
		err error
	}
	replies := make(chan reply)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			var buf RawStatus
			_, err := io.ReadFull(r, buf[:])
			select {
			case replies <- reply{buf, err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
			switch buf.Type() {
			case StatusPrintingCompleted, StatusError:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("printer: waiting for status: %w", ctx.Err())
		case rep := <-replies:
			if rep.err != nil {
				return Result{}, fmt.Errorf("printer: read status: %w", rep.err)
			}
			switch rep.st.Type() {
			case StatusPrintingCompleted:
				return Result{DidPrint: true}, nil
			case StatusError:
				return Result{State: Status{Errors: rep.st.Errors()}}, nil
			}
		}
	}
}
