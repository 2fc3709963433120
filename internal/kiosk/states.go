package kiosk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/keyreader"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/model"
)

// Description limits of the label editor.
const (
	MaxDescriptionLength = 256
	MinDescriptionLength = 5
	DescriptionPrompt    = "Describe what you want to store here..."
	MaxDryingHours       = 168
)

// State names, as logged and counted.
const (
	StateWaitingForToken     = "WaitingForToken"
	StateWaitingForKeyReader = "WaitingForKeyReader"
	StateWaiting             = "Waiting"
	StateMemberIdentified    = "MemberIdentified"
	StateEditLabel           = "EditLabel"
)

// noop gives states the parts of State they do not use.
type noop struct{}

func (noop) Enter() {}
func (noop) Exit()  {}

// WaitingForToken polls the directory until it has a valid token.
type WaitingForToken struct {
	noop
	a      *App
	resume *model.Member
	poll   TimerID
	banner string
}

func newWaitingForToken(a *App, resume *model.Member) *WaitingForToken {
	return &WaitingForToken{a: a, resume: resume}
}

func (s *WaitingForToken) Name() string { return StateWaitingForToken }

func (s *WaitingForToken) Enter() { s.poll = s.a.after(s, 0) }

func (s *WaitingForToken) View() View {
	return View{
		Screen:  ScreenConnecting,
		Title:   "Connecting",
		Message: "Waiting for the member directory...",
		Banner:  s.banner,
	}
}

func (s *WaitingForToken) OnEvent(e Event) State {
	t, ok := e.(TimerFired)
	if !ok || t.ID != s.poll {
		return s
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	err := s.a.deps.Directory.Check(ctx)
	cancel()

	switch directory.Classify(err) {
	case directory.LookupOK:
		s.a.log.Info("Member directory is configured")
		if s.resume != nil {
			return newMemberIdentified(s.a, *s.resume)
		}
		if s.a.deps.KeyReaders == nil {
			return newWaiting(s.a)
		}
		return newWaitingForKeyReader(s.a)
	case directory.LookupTokenExpired:
		s.banner = "No valid member directory token. Run 'memberbooth login' on this machine."
	case directory.LookupNetwork:
		s.banner = "Network error, could not reach the member directory. Retrying..."
	default:
		s.a.log.Error("Could not check the member directory", logger.Err(err))
		s.banner = "Error: " + err.Error()
	}
	s.poll = s.a.after(s, TokenPollInterval)
	return s
}

func (s *WaitingForToken) OnViewEvent(ViewEvent) State { return s }

// WaitingForKeyReader polls for a working key reader.
type WaitingForKeyReader struct {
	noop
	a      *App
	poll   TimerID
	banner string
}

func newWaitingForKeyReader(a *App) *WaitingForKeyReader {
	return &WaitingForKeyReader{a: a}
}

func (s *WaitingForKeyReader) Name() string { return StateWaitingForKeyReader }

func (s *WaitingForKeyReader) Enter() {
	s.a.closeReader()
	s.poll = s.a.after(s, 0)
}

func (s *WaitingForKeyReader) View() View {
	return View{
		Screen:  ScreenKeyReader,
		Title:   "Key reader",
		Message: "Waiting for the key reader...",
		Banner:  s.banner,
	}
}

func (s *WaitingForKeyReader) OnEvent(e Event) State {
	t, ok := e.(TimerFired)
	if !ok || t.ID != s.poll {
		return s
	}

	r, err := s.a.deps.KeyReaders.Find()
	switch {
	case err == nil:
		s.a.log.Info("Key reader found", logger.F("reader", r))
		s.a.reader = r
		return newWaiting(s.a)
	case errors.Is(err, keyreader.ErrNeedsReboot):
		s.banner = "The key reader needs a reboot. Unplug it and plug it back in."
	case errors.Is(err, keyreader.ErrNoReader):
		s.banner = "No key reader found. Connect the key reader."
	default:
		s.a.log.Error("Could not open key reader", logger.Err(err))
		s.banner = "Key reader error: " + err.Error()
	}
	s.poll = s.a.after(s, ReaderPollInterval)
	return s
}

func (s *WaitingForKeyReader) OnViewEvent(ViewEvent) State { return s }

// Waiting shows the login screen and looks members up.
type Waiting struct {
	noop
	a        *App
	tag      string
	progress bool
	poll     TimerID
	debounce TimerID
	idle     TimerID
}

func newWaiting(a *App) *Waiting { return &Waiting{a: a} }

func (s *Waiting) Name() string { return StateWaiting }

func (s *Waiting) Enter() {
	s.idle = s.a.after(s, s.a.idleTimeout())
	if s.polls() {
		if f, ok := s.a.reader.(interface{ Flush() error }); ok {
			f.Flush()
		}
		s.poll = s.a.after(s, TagPollInterval)
	}
}

// polls reports whether tags arrive from a hardware reader.
func (s *Waiting) polls() bool {
	if s.a.reader == nil {
		return false
	}
	_, keyboard := s.a.reader.(keyreader.Keyboard)
	return !keyboard
}

func (s *Waiting) View() View {
	v := View{
		Screen:      ScreenLogin,
		LoginMethod: s.a.deps.Config.LoginMethod,
		Progress:    s.progress,
		Tag:         s.tag,
		TagLength:   9,
	}
	if v.LoginMethod == config.LoginPIN {
		v.Title = "Log in"
		v.Message = "Enter your member number and PIN code"
	} else {
		v.Title = "Welcome"
		v.Message = "Scan your key tag to log in"
		v.TagInput = !s.polls()
	}
	return v
}

func (s *Waiting) OnEvent(e Event) State {
	t, ok := e.(TimerFired)
	if !ok {
		return s
	}
	switch t.ID {
	case s.idle:
		s.a.log.Info("Idle timeout, clearing login form")
		return newWaiting(s.a)
	case s.poll:
		read, err := s.a.reader.TagWasRead()
		if err != nil {
			s.a.log.Warn("Key reader disconnected", logger.Err(err))
			return newWaitingForKeyReader(s.a)
		}
		if read {
			tag := s.a.reader.TagID()
			if next := s.lookup("tag", func(ctx context.Context) (model.Member, error) {
				return s.a.deps.Directory.MemberByTag(ctx, tag)
			}); next != s {
				return next
			}
		}
		s.poll = s.a.after(s, TagPollInterval)
	case s.debounce:
		if !keyreader.ValidTag(s.tag) {
			s.tag = ""
			return s
		}
		tag := s.tag
		return s.lookup("tag", func(ctx context.Context) (model.Member, error) {
			return s.a.deps.Directory.MemberByTag(ctx, tag)
		})
	}
	return s
}

func (s *Waiting) OnViewEvent(e ViewEvent) State {
	s.a.cancel(s.idle)
	s.idle = s.a.after(s, s.a.idleTimeout())

	switch e := e.(type) {
	case TagEntered:
		s.tag = keyreader.FilterDigits(e.Text)
		s.a.cancel(s.debounce)
		s.debounce = s.a.after(s, keyreader.KeyboardDebounce)
	case PinSubmitted:
		number, err := strconv.Atoi(strings.TrimSpace(e.MemberNumber))
		if err != nil || number <= 0 {
			s.a.showError("Invalid member number", "The member number must be a positive number")
			return s
		}
		if e.PIN == "" {
			s.a.showError("Missing PIN code", "Enter your PIN code")
			return s
		}
		return s.lookup("pin", func(ctx context.Context) (model.Member, error) {
			return s.a.deps.Directory.MemberByNumberAndPIN(ctx, number, e.PIN)
		})
	}
	return s
}

func (s *Waiting) reset() {
	s.tag = ""
	s.progress = false
}

func (s *Waiting) lookup(method string, find func(context.Context) (model.Member, error)) State {
	s.progress = true
	s.a.setBusy(true)
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	m, err := find(ctx)
	cancel()
	s.a.setBusy(false)

	kind := directory.Classify(err)
	s.a.deps.Metrics.Lookup(method, kind.String())

	switch kind {
	case directory.LookupOK:
		return newMemberIdentified(s.a, m)
	case directory.LookupTokenExpired:
		s.a.log.Warn("Member directory token expired", logger.Err(err))
		return newWaitingForToken(s.a, nil)
	}

	s.reset()
	switch kind {
	case directory.LookupNotFound:
		if method == "pin" {
			s.a.showError("Error", "Could not find a member with that member number")
		} else {
			s.a.showError("Error", "Could not find a member that matches the specific tag")
		}
	case directory.LookupIncorrectPin:
		s.a.showError("Error", "Incorrect PIN code")
	case directory.LookupThrottled:
		s.a.showError("Error", "Too many attempts, wait a minute and try again")
	case directory.LookupNetwork:
		s.a.showError("Network error", "Could not reach the member directory, try again")
	default:
		s.a.log.Error("Member lookup failed", logger.F("method", method), logger.Err(err), logger.Stack())
		s.a.showError("Error...", err.Error())
	}
	return s
}

// MemberIdentified shows the member and the label menu.
type MemberIdentified struct {
	noop
	a        *App
	member   model.Member
	visit    string
	idle     TimerID
	restore  TimerID
	disabled bool
}

func newMemberIdentified(a *App, m model.Member) *MemberIdentified {
	return &MemberIdentified{a: a, member: m, visit: uuid.NewString()}
}

// Member returns the identified member.
func (s *MemberIdentified) Member() model.Member { return s.member }

func (s *MemberIdentified) Name() string { return StateMemberIdentified }

func (s *MemberIdentified) Enter() {
	s.a.log.Info("Member identified", logger.F("visit", s.visit), logger.F("member", s.member.Number))
	s.idle = s.a.after(s, s.a.idleTimeout())
}

func (s *MemberIdentified) restartIdle() {
	s.a.cancel(s.idle)
	s.idle = s.a.after(s, s.a.idleTimeout())
}

func (s *MemberIdentified) View() View {
	m := s.member
	return View{
		Screen:      ScreenMember,
		Title:       m.Name(),
		Member:      &m,
		Menu:        menu(s.a.deps.Config.Development),
		MenuEnabled: !s.disabled,
	}
}

func (s *MemberIdentified) OnEvent(e Event) State {
	switch e := e.(type) {
	case TimerFired:
		switch e.ID {
		case s.idle:
			s.a.log.Info("Idle timeout, logging out", logger.F("visit", s.visit))
			return newWaiting(s.a)
		case s.restore:
			s.disabled = false
		}
	case PrintingFailed:
		if e.Reason == directory.LookupTokenExpired {
			return newWaitingForToken(s.a, &s.member)
		}
	}
	return s
}

func (s *MemberIdentified) OnViewEvent(e ViewEvent) State {
	switch e := e.(type) {
	case Interacted:
		s.restartIdle()
	case LoggedOut:
		return newWaiting(s.a)
	case LabelChosen:
		s.restartIdle()
		if s.disabled {
			return s
		}
		switch e.Kind {
		case model.KindTemporary, model.KindRotating, model.KindDrying:
			return newEditLabel(s.a, s.member, s.visit, e.Kind)
		case model.KindWarning:
			if !s.a.deps.Config.Development {
				s.a.log.Warn("Warning labels are only printed in development mode")
				return s
			}
		}
		s.disabled = true
		s.a.printLabel(s.member, e.Kind, s.a.options(e.Kind))
		s.restore = s.a.after(s, MenuRestoreDelay)
	}
	return s
}

// EditLabel asks for a description, or drying hours, before printing.
type EditLabel struct {
	noop
	a      *App
	member model.Member
	visit  string
	kind   model.Kind
	idle   TimerID
}

func newEditLabel(a *App, m model.Member, visit string, k model.Kind) *EditLabel {
	return &EditLabel{a: a, member: m, visit: visit, kind: k}
}

// Kind returns the label kind being edited.
func (s *EditLabel) Kind() model.Kind { return s.kind }

func (s *EditLabel) Name() string { return StateEditLabel }

func (s *EditLabel) Enter() { s.idle = s.a.after(s, s.a.idleTimeout()) }

func (s *EditLabel) View() View {
	m := s.member
	ed := &Editor{
		Kind:        s.kind,
		Prompt:      "What are you storing?",
		Placeholder: DescriptionPrompt,
		MaxLength:   MaxDescriptionLength,
	}
	if s.kind == model.KindDrying {
		ed.Prompt = "How many hours does it need to dry?"
		ed.Placeholder = strconv.Itoa(s.a.deps.Config.DryingHours)
		ed.MaxLength = 3
		ed.Numeric = true
	}
	return View{
		Screen: ScreenEditor,
		Title:  kindTitle(s.kind),
		Member: &m,
		Editor: ed,
	}
}

func (s *EditLabel) OnEvent(e Event) State {
	switch e := e.(type) {
	case TimerFired:
		if e.ID == s.idle {
			s.a.log.Info("Idle timeout, logging out", logger.F("visit", s.visit))
			return newWaiting(s.a)
		}
	case PrintingSucceeded:
		return s.back()
	case PrintingFailed:
		if e.Reason == directory.LookupTokenExpired {
			return newWaitingForToken(s.a, &s.member)
		}
	}
	return s
}

func (s *EditLabel) OnViewEvent(e ViewEvent) State {
	switch e := e.(type) {
	case Interacted:
		s.a.cancel(s.idle)
		s.idle = s.a.after(s, s.a.idleTimeout())
	case Cancelled:
		return s.back()
	case DescriptionSubmitted:
		s.a.cancel(s.idle)
		s.idle = s.a.after(s, s.a.idleTimeout())
		opts, problem := s.options(e.Text)
		if problem != "" {
			s.a.showError("Error", problem)
			return s
		}
		s.a.printLabel(s.member, s.kind, opts)
	}
	return s
}

func (s *EditLabel) back() State {
	m := newMemberIdentified(s.a, s.member)
	m.visit = s.visit
	return m
}

// options validates the editor text. problem is the message to show when
// it is rejected.
func (s *EditLabel) options(text string) (opts model.Options, problem string) {
	opts = s.a.options(s.kind)
	text = strings.TrimSpace(text)

	if s.kind == model.KindDrying {
		if text == "" {
			return opts, ""
		}
		hours, err := strconv.Atoi(text)
		if err != nil || hours < 1 || hours > MaxDryingHours {
			return opts, fmt.Sprintf("Drying time must be between 1 and %d hours", MaxDryingHours)
		}
		opts.DryingHours = hours
		return opts, ""
	}

	switch n := utf8.RuneCountInString(text); {
	case text == DescriptionPrompt:
		return opts, "Please describe what you want to store"
	case n < MinDescriptionLength:
		return opts, fmt.Sprintf("The description must be at least %d characters long", MinDescriptionLength)
	case n > MaxDescriptionLength:
		return opts, fmt.Sprintf("The description can be at most %d characters long", MaxDescriptionLength)
	}
	opts.Description = text
	return opts, ""
}

// options fills in the storage policy for kind.
func (a *App) options(k model.Kind) model.Options {
	return LabelOptions(a.deps.Config, k)
}

// LabelOptions fills in the storage policy c sets for labels of kind k.
func LabelOptions(c *config.Config, k model.Kind) model.Options {
	opts := model.Options{DryingHours: c.DryingHours}
	switch k {
	case model.KindTemporary:
		opts.StorageDays = c.TempStorageDays
	case model.KindFireSafety:
		opts.StorageDays = c.FireBoxDays
	case model.KindWarning:
		opts.StorageDays = c.WarningDays
	}
	return opts
}

func menu(development bool) []MenuItem {
	items := make([]MenuItem, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		if k == model.KindWarning && !development {
			continue
		}
		items = append(items, MenuItem{
			Kind:  k,
			Title: kindTitle(k),
			Edits: k == model.KindTemporary || k == model.KindRotating || k == model.KindDrying,
		})
	}
	return items
}

func kindTitle(k model.Kind) string {
	switch k {
	case model.KindBox:
		return "Storage box label"
	case model.KindTemporary:
		return "Temporary storage label"
	case model.KindFireSafety:
		return "Fire safety cabinet label"
	case model.KindPrinter3D:
		return "3D printer label"
	case model.KindNameTag:
		return "Name tag"
	case model.KindMeetup:
		return "Meetup name tag"
	case model.KindDrying:
		return "Drying label"
	case model.KindRotating:
		return "Rotating storage label"
	case model.KindWarning:
		return "Warning label"
	}
	return string(k)
}
