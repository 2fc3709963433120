package kiosk

import "github.com/existflow/memberbooth/internal/model"

// Screen selects what the shell draws.
type Screen int

const (
	ScreenConnecting Screen = iota
	ScreenKeyReader
	ScreenLogin
	ScreenMember
	ScreenEditor
)

// ErrorMessage is shown to the operator until it is cleared.
type ErrorMessage struct {
	Title string
	Text  string
}

// MenuItem is one button of the member menu.
type MenuItem struct {
	Kind  model.Kind
	Title string
	// Edits is set for labels that open the editor first.
	Edits bool
}

// Editor describes the label editor.
type Editor struct {
	Kind        model.Kind
	Prompt      string
	Placeholder string
	MaxLength   int
	// Numeric editors take a number of hours instead of a description.
	Numeric bool
}

// View is everything the shell needs to draw the current state.
type View struct {
	Screen  Screen
	Title   string
	Message string
	// Banner is a standing problem, such as a missing token.
	Banner string
	Error  *ErrorMessage
	Busy   bool

	LoginMethod string
	Progress    bool
	// TagInput is set when tags are typed rather than read by hardware.
	TagInput bool
	// Tag is the filtered content of the tag field.
	Tag       string
	TagLength int

	Member      *model.Member
	Menu        []MenuItem
	MenuEnabled bool

	Editor *Editor
}
