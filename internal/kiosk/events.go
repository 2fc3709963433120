package kiosk

import (
	"fmt"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/model"
)

// Event is raised by the kiosk itself: timers and print outcomes.
type Event interface {
	event()
}

// TimerFired is posted when a scheduled timer elapses.
type TimerFired struct{ ID TimerID }

// PrintingSucceeded ends a print that reached the printer or the output
// directory.
type PrintingSucceeded struct{ Kind model.Kind }

// PrintingFailed ends a print that did not. Reason says why the directory
// refused, when it did.
type PrintingFailed struct {
	Kind   model.Kind
	Reason directory.LookupKind
}

func (TimerFired) event()        {}
func (PrintingSucceeded) event() {}
func (PrintingFailed) event()    {}

func (e TimerFired) String() string        { return fmt.Sprintf("Event: timer %d fired", e.ID) }
func (e PrintingSucceeded) String() string { return fmt.Sprintf("Event: printing %s succeeded", e.Kind) }
func (e PrintingFailed) String() string {
	return fmt.Sprintf("Event: printing %s failed (%s)", e.Kind, e.Reason)
}

// ViewEvent is raised by the shell in response to the operator.
type ViewEvent interface {
	viewEvent()
}

// TagEntered carries the tag field's content after a keystroke.
type TagEntered struct{ Text string }

// PinSubmitted carries the member number and PIN login form.
type PinSubmitted struct {
	MemberNumber string
	PIN          string
}

// LabelChosen is a press on a label button of the member menu.
type LabelChosen struct{ Kind model.Kind }

// DescriptionSubmitted is the editor's print button.
type DescriptionSubmitted struct{ Text string }

// Cancelled is the editor's cancel button.
type Cancelled struct{}

// LoggedOut is the member menu's log out button.
type LoggedOut struct{}

// Interacted is any other keystroke; it restarts the idle timer.
type Interacted struct{}

// ForceQuit tears the kiosk down from any state.
type ForceQuit struct{}

func (TagEntered) viewEvent()           {}
func (PinSubmitted) viewEvent()         {}
func (LabelChosen) viewEvent()          {}
func (DescriptionSubmitted) viewEvent() {}
func (Cancelled) viewEvent()            {}
func (LoggedOut) viewEvent()            {}
func (Interacted) viewEvent()           {}
func (ForceQuit) viewEvent()            {}

func (e TagEntered) String() string   { return "ViewEvent: tag entered, with data" }
func (e PinSubmitted) String() string { return "ViewEvent: pin submitted, with data" }
func (e LabelChosen) String() string  { return "ViewEvent: label chosen " + string(e.Kind) }
func (DescriptionSubmitted) String() string {
	return "ViewEvent: description submitted, with data"
}
func (Cancelled) String() string  { return "ViewEvent: cancel, without data" }
func (LoggedOut) String() string  { return "ViewEvent: log out, without data" }
func (Interacted) String() string { return "ViewEvent: interaction, without data" }
func (ForceQuit) String() string  { return "ViewEvent: force quit, without data" }
