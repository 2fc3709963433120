package kiosk

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/printer"
)

// Operator messages for printer problems.
const (
	PrinterErrorTitle  = "Printer error!"
	PrinterNotFoundMsg = "Printer not found, ensure that printer is connected and turned on. " +
		"Also ensure that the \"Editor Line\" function is disabled."
	UnknownPrinterMsg = "Unknown printer error occurred!"
)

// printLabel registers, renders and prints a label of kind for m. Exactly
// one PrintingSucceeded or PrintingFailed is dispatched whatever happens.
func (a *App) printLabel(m model.Member, kind model.Kind, opts model.Options) {
	start := a.now()
	var (
		outcome Event = PrintingFailed{Kind: kind, Reason: directory.LookupUnknown}
		result        = "panic"
	)

	a.setBusy(true)
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Printing panicked", logger.F("kind", kind), logger.F("panic", r), logger.Stack())
			a.deps.Notifier.Error(fmt.Sprintf("Printing %s label for member #%d panicked: %v", kind, m.Number, r))
			a.showError("Error", UnknownPrinterMsg)
		}
		a.setBusy(false)
		a.deps.Metrics.Print(string(kind), result, a.now().Sub(start).Seconds())
		a.Dispatch(outcome)
	}()

	outcome, result = a.print(m, kind, opts)
}

func (a *App) print(m model.Member, kind model.Kind, opts model.Options) (Event, string) {
	failed := func(reason directory.LookupKind) Event { return PrintingFailed{Kind: kind, Reason: reason} }

	label, err := model.NewLabel(kind, m, opts, a.now())
	if err != nil {
		return a.unexpected(m, kind, err), "error"
	}

	ctx, cancel := context.WithTimeout(context.Background(), printTimeout)
	defer cancel()

	uploaded, err := a.deps.Directory.UploadLabel(ctx, label)
	switch reason := directory.Classify(err); reason {
	case directory.LookupOK:
	case directory.LookupTokenExpired:
		a.log.Warn("Member directory token expired while uploading label", logger.Err(err))
		return failed(reason), reason.String()
	case directory.LookupNetwork:
		a.log.Warn("Could not upload label", logger.Err(err))
		a.showError("Network error", "Could not register the label with the member directory, try again")
		return failed(reason), reason.String()
	default:
		return a.unexpected(m, kind, err), "error"
	}

	img, err := a.deps.Labels.Create(uploaded, a.now())
	if err != nil {
		return a.unexpected(m, kind, err), "error"
	}

	if a.deps.Config.NoPrinter {
		name := fmt.Sprintf("%d_%s_%d.png", m.Number, kind, a.now().Unix())
		path := filepath.Join(a.deps.Config.OutputDir, name)
		if err := img.Save(path); err != nil {
			return a.unexpected(m, kind, err), "error"
		}
		a.log.Info("Label saved", logger.F("path", path))
		return PrintingSucceeded{Kind: kind}, "saved"
	}

	res, err := a.deps.Printer.Print(ctx, img.Image())
	switch {
	case errors.Is(err, printer.ErrNotFound):
		a.log.Warn("Printer not found", logger.Err(err))
		a.showError(PrinterErrorTitle, PrinterNotFoundMsg)
		return failed(directory.LookupUnknown), "not_found"
	case err != nil:
		return a.unexpected(m, kind, err), "error"
	}

	a.log.Info("Print finished", logger.F("kind", kind), logger.F("result", res))
	if !res.DidPrint {
		a.showError(PrinterErrorTitle, "Printer reported error: "+strings.Join(res.State.Errors, ", "))
		return failed(directory.LookupUnknown), "printer_error"
	}
	a.deps.Notifier.Info(fmt.Sprintf("Printed %s label for member #%d", kind, m.Number))
	return PrintingSucceeded{Kind: kind}, "ok"
}

func (a *App) unexpected(m model.Member, kind model.Kind, err error) Event {
	a.log.Error("Printing failed", logger.F("kind", kind), logger.F("member", m.Number), logger.Err(err), logger.Stack())
	a.deps.Notifier.Error(fmt.Sprintf("Printing %s label for member #%d failed: %v", kind, m.Number, err))
	a.showError("Error", UnknownPrinterMsg)
	return PrintingFailed{Kind: kind, Reason: directory.LookupUnknown}
}
