package kiosk

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/keyreader"
	"github.com/existflow/memberbooth/internal/layout"
	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/printer"
	"github.com/existflow/memberbooth/internal/session"
)

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(end) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		next.f()
	}
	c.now = end
}

func (c *fakeClock) pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeDirectory struct {
	checkErr  error
	lookupErr error
	uploadErr error
	members   map[string]model.Member
	pin       string
	lookups   int
	uploads   []model.Label
}

func (d *fakeDirectory) Check(context.Context) error { return d.checkErr }

func (d *fakeDirectory) MemberByTag(_ context.Context, tag string) (model.Member, error) {
	d.lookups++
	if d.lookupErr != nil {
		return model.Member{}, d.lookupErr
	}
	m, ok := d.members[tag]
	if !ok {
		return model.Member{}, directory.ErrNoMatchingIdentity
	}
	return m, nil
}

func (d *fakeDirectory) MemberByNumber(_ context.Context, number int) (model.Member, error) {
	for _, m := range d.members {
		if m.Number == number {
			return m, nil
		}
	}
	return model.Member{}, directory.ErrNoMatchingIdentity
}

func (d *fakeDirectory) MemberByNumberAndPIN(ctx context.Context, number int, pin string) (model.Member, error) {
	d.lookups++
	m, err := d.MemberByNumber(ctx, number)
	if err != nil {
		return m, err
	}
	if pin != d.pin {
		return model.Member{}, directory.ErrIncorrectPin
	}
	return m, nil
}

func (d *fakeDirectory) UploadLabel(_ context.Context, l model.Label) (model.UploadedLabel, error) {
	if d.uploadErr != nil {
		return model.UploadedLabel{}, d.uploadErr
	}
	d.uploads = append(d.uploads, l)
	return model.UploadedLabel{PublicURL: fmt.Sprintf("HTTP://TEST/L/%d", l.Base().ID), Label: l}, nil
}

type fakePrinter struct {
	result printer.Result
	err    error
	panics bool
	calls  int
}

func (p *fakePrinter) Print(context.Context, image.Image) (printer.Result, error) {
	p.calls++
	if p.panics {
		panic("usb exploded")
	}
	return p.result, p.err
}

type fakeShell struct {
	errors []ErrorMessage
	busy   []bool
	quit   bool
}

func (s *fakeShell) ShowError(title, msg string) {
	s.errors = append(s.errors, ErrorMessage{Title: title, Text: msg})
}
func (s *fakeShell) SetBusy(b bool) { s.busy = append(s.busy, b) }
func (s *fakeShell) Quit()          { s.quit = true }

func (s *fakeShell) lastError() string {
	if len(s.errors) == 0 {
		return ""
	}
	return s.errors[len(s.errors)-1].Text
}

type fakeNotifier struct {
	infos, errors, alerts []string
}

func (n *fakeNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *fakeNotifier) Error(msg string) { n.errors = append(n.errors, msg) }
func (n *fakeNotifier) Alert(msg string) { n.alerts = append(n.alerts, msg) }

type fakeReader struct {
	pending []string
	current string
	err     error
	closed  bool
}

func (r *fakeReader) TagWasRead() (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if len(r.pending) == 0 {
		return false, nil
	}
	r.current, r.pending = r.pending[0], r.pending[1:]
	return true, nil
}

func (r *fakeReader) TagID() string { return r.current }
func (r *fakeReader) Close() error  { r.closed = true; return nil }

type fakeRenderer struct{}

func (fakeRenderer) Create(model.UploadedLabel, time.Time) (*layout.Label, error) {
	img, err := layout.NewImage(image.NewRGBA(image.Rect(0, 0, 20, 10)))
	if err != nil {
		return nil, err
	}
	return layout.NewLabel(img)
}

// recorder stands in for a state to capture the events it receives.
type recorder struct {
	noop
	events []Event
}

func (r *recorder) Name() string                { return "recorder" }
func (r *recorder) View() View                  { return View{} }
func (r *recorder) OnEvent(e Event) State       { r.events = append(r.events, e); return r }
func (r *recorder) OnViewEvent(ViewEvent) State { return r }

var member = model.Member{FirstName: "Firstname", LastName: "Lastname", Number: 9999}

type harness struct {
	app     *App
	clock   *fakeClock
	dir     *fakeDirectory
	printer *fakePrinter
	shell   *fakeShell
	notes   *fakeNotifier
	cfg     *config.Config
}

func newHarness(t *testing.T, opts ...func(*Deps)) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.LoginMethod = config.LoginTag
	cfg.IdleTimeout = DefaultIdleTimeout
	cfg.Development = false
	cfg.NoPrinter = false
	cfg.TempStorageDays = 60
	cfg.DryingHours = 24

	h := &harness{
		clock:   &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)},
		dir:     &fakeDirectory{members: map[string]model.Member{"123456789": member}, pin: "1234"},
		printer: &fakePrinter{result: printer.Result{DidPrint: true}},
		shell:   &fakeShell{},
		notes:   &fakeNotifier{},
		cfg:     cfg,
	}
	deps := Deps{
		Directory:  h.dir,
		Notifier:   h.notes,
		Printer:    h.printer,
		KeyReaders: keyreader.KeyboardFinder,
		Shell:      h.shell,
		Clock:      h.clock,
		Config:     cfg,
		Labels:     fakeRenderer{},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.app = New(deps)
	return h
}

// start runs the app up to the login screen.
func (h *harness) start(t *testing.T) {
	t.Helper()
	h.app.Start()
	h.clock.Advance(0)
	require.Equal(t, StateWaiting, h.app.StateName())
}

// login scans the known tag on the keyboard reader.
func (h *harness) login(t *testing.T) *MemberIdentified {
	t.Helper()
	h.start(t)
	h.app.Send(TagEntered{Text: "123456789"})
	h.clock.Advance(keyreader.KeyboardDebounce)
	s, ok := h.app.Current().(*MemberIdentified)
	require.True(t, ok, "state is %s", h.app.StateName())
	return s
}

func TestStartupWaitsForToken(t *testing.T) {
	h := newHarness(t)
	h.dir.checkErr = session.ErrNotConfigured

	h.app.Start()
	h.clock.Advance(0)
	assert.Equal(t, StateWaitingForToken, h.app.StateName())
	assert.Contains(t, h.app.View().Banner, "memberbooth login")

	h.dir.checkErr = fmt.Errorf("%w: connection refused", directory.ErrNetwork)
	h.clock.Advance(TokenPollInterval)
	assert.Equal(t, StateWaitingForToken, h.app.StateName())
	assert.Contains(t, h.app.View().Banner, "Network error")

	h.dir.checkErr = nil
	h.clock.Advance(TokenPollInterval)
	assert.Equal(t, StateWaiting, h.app.StateName())
	assert.Empty(t, h.app.View().Banner)
}

func TestPinLoginSkipsKeyReader(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.KeyReaders = nil })
	h.cfg.LoginMethod = config.LoginPIN
	h.start(t)
	assert.Equal(t, config.LoginPIN, h.app.View().LoginMethod)

	h.app.Send(PinSubmitted{MemberNumber: "9999", PIN: "0000"})
	assert.Equal(t, StateWaiting, h.app.StateName())
	assert.Equal(t, "Incorrect PIN code", h.shell.lastError())

	h.app.Send(PinSubmitted{MemberNumber: "abc", PIN: "1234"})
	assert.Equal(t, StateWaiting, h.app.StateName())
	assert.Equal(t, 1, h.dir.lookups)

	h.app.Send(PinSubmitted{MemberNumber: " 9999 ", PIN: "1234"})
	s, ok := h.app.Current().(*MemberIdentified)
	require.True(t, ok)
	assert.Equal(t, member, s.Member())
}

func TestKeyReaderProblemsShowBanner(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		banner string
	}{
		{"needs reboot", fmt.Errorf("%w: /dev/ttyACM0", keyreader.ErrNeedsReboot), "needs a reboot"},
		{"missing", keyreader.ErrNoReader, "No key reader found"},
		{"other", errors.New("permission denied"), "permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.err
			h := newHarness(t, func(d *Deps) {
				d.KeyReaders = keyreader.FinderFunc(func() (keyreader.Reader, error) {
					if err != nil {
						return nil, err
					}
					return keyreader.Keyboard{}, nil
				})
			})
			h.app.Start()
			h.clock.Advance(0)
			assert.Equal(t, StateWaitingForKeyReader, h.app.StateName())
			assert.Contains(t, h.app.View().Banner, tt.banner)

			err = nil
			h.clock.Advance(ReaderPollInterval)
			assert.Equal(t, StateWaiting, h.app.StateName())
		})
	}
}

func TestTagLookupFindsMember(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.app.Send(TagEntered{Text: "12345678"})
	h.clock.Advance(keyreader.KeyboardDebounce / 2)
	h.app.Send(TagEntered{Text: "1234-5678-9"})
	assert.Equal(t, "123456789", h.app.View().Tag)
	h.clock.Advance(keyreader.KeyboardDebounce)

	s, ok := h.app.Current().(*MemberIdentified)
	require.True(t, ok)
	assert.Equal(t, member, s.Member())
	assert.Equal(t, 1, h.dir.lookups)
	assert.Equal(t, []bool{true, false}, h.shell.busy)
}

func TestTagLookupFailures(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		err   error
		state string
		shown string
	}{
		{"not found", "000000001", nil, StateWaiting, "Could not find a member that matches the specific tag"},
		{"network", "123456789", fmt.Errorf("%w: timeout", directory.ErrNetwork), StateWaiting, "Could not reach the member directory, try again"},
		{"unknown", "123456789", errors.New("directory: unexpected status 418"), StateWaiting, "directory: unexpected status 418"},
		{"token expired", "123456789", session.ErrTokenExpired, StateWaitingForToken, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.start(t)
			h.dir.lookupErr = tt.err
			if errors.Is(tt.err, session.ErrTokenExpired) {
				h.dir.checkErr = tt.err
			}

			h.app.Send(TagEntered{Text: tt.tag})
			h.clock.Advance(keyreader.KeyboardDebounce)

			assert.Equal(t, tt.state, h.app.StateName())
			assert.Equal(t, tt.shown, h.shell.lastError())
			v := h.app.View()
			assert.Nil(t, v.Member)
			if tt.state == StateWaiting {
				assert.Empty(t, v.Tag)
				assert.False(t, v.Progress)
			}
		})
	}
}

func TestShortTagIsCleared(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.app.Send(TagEntered{Text: "1234"})
	assert.Equal(t, "1234", h.app.View().Tag)
	h.clock.Advance(time.Second)
	assert.Equal(t, StateWaiting, h.app.StateName())
	assert.Zero(t, h.dir.lookups)
	assert.Empty(t, h.app.View().Tag)
}

func TestHardwareReaderPolling(t *testing.T) {
	reader := &fakeReader{}
	var findErr error
	h := newHarness(t, func(d *Deps) {
		d.KeyReaders = keyreader.FinderFunc(func() (keyreader.Reader, error) { return reader, findErr })
	})
	h.start(t)

	h.clock.Advance(3 * TagPollInterval)
	assert.Equal(t, StateWaiting, h.app.StateName())

	reader.pending = []string{"123456789"}
	h.clock.Advance(TagPollInterval)
	require.Equal(t, StateMemberIdentified, h.app.StateName())

	h.app.Send(LoggedOut{})
	reader.err = fmt.Errorf("%w: device gone", keyreader.ErrNeedsReboot)
	findErr = keyreader.ErrNoReader
	h.clock.Advance(TagPollInterval)
	assert.Equal(t, StateWaitingForKeyReader, h.app.StateName())
	assert.True(t, reader.closed)
}

func TestLogoutAndIdleTimeout(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.app.Send(LoggedOut{})
	assert.Equal(t, StateWaiting, h.app.StateName())

	h = newHarness(t)
	h.login(t)
	h.clock.Advance(50 * time.Second)
	h.app.Send(Interacted{})
	h.clock.Advance(50 * time.Second)
	assert.Equal(t, StateMemberIdentified, h.app.StateName())
	h.clock.Advance(10 * time.Second)
	assert.Equal(t, StateWaiting, h.app.StateName())
}

func TestWaitingIdleResetsLoginForm(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.KeyReaders = nil })
	h.cfg.LoginMethod = config.LoginPIN
	h.start(t)
	w := h.app.Current()
	assert.Equal(t, 1, h.clock.pending(), "login screen arms the idle timer")

	h.clock.Advance(50 * time.Second)
	h.app.Send(Interacted{})
	h.clock.Advance(50 * time.Second)
	assert.Same(t, w, h.app.Current(), "typing restarts the idle timer")

	h.clock.Advance(10 * time.Second)
	assert.Equal(t, StateWaiting, h.app.StateName())
	assert.NotSame(t, w, h.app.Current())
	assert.Equal(t, 1, h.clock.pending())
	assert.Zero(t, h.dir.lookups)
}

func TestTagEntryRestartsWaitingIdle(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	w := h.app.Current()

	h.clock.Advance(50 * time.Second)
	h.app.Send(TagEntered{Text: "12"})
	h.clock.Advance(50 * time.Second)
	assert.Same(t, w, h.app.Current())
	assert.Empty(t, h.app.View().Tag)

	h.clock.Advance(10 * time.Second)
	assert.NotSame(t, w, h.app.Current())
	assert.Equal(t, StateWaiting, h.app.StateName())
}

func TestStaleTimerIsIgnored(t *testing.T) {
	h := newHarness(t)
	s := h.login(t)
	idle := s.idle

	h.app.Send(LoggedOut{})
	w := h.app.Current()
	h.app.Dispatch(TimerFired{ID: idle})
	assert.Same(t, w, h.app.Current())
}

func TestPrintBoxLabel(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.app.Send(LabelChosen{Kind: model.KindBox})
	assert.Equal(t, 1, h.printer.calls)
	assert.Len(t, h.notes.infos, 1)
	require.Len(t, h.dir.uploads, 1)
	assert.Equal(t, model.KindBox, h.dir.uploads[0].Kind())
	assert.False(t, h.app.View().MenuEnabled)

	// Disabled menu ignores further presses.
	h.app.Send(LabelChosen{Kind: model.KindBox})
	assert.Equal(t, 1, h.printer.calls)

	h.clock.Advance(MenuRestoreDelay)
	assert.True(t, h.app.View().MenuEnabled)
	assert.Equal(t, StateMemberIdentified, h.app.StateName())
}

func TestWarningLabelNeedsDevelopment(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	for _, item := range h.app.View().Menu {
		assert.NotEqual(t, model.KindWarning, item.Kind)
	}
	h.app.Send(LabelChosen{Kind: model.KindWarning})
	assert.Zero(t, h.printer.calls)

	h = newHarness(t)
	h.cfg.Development = true
	h.cfg.WarningDays = 90
	h.login(t)
	h.app.Send(LabelChosen{Kind: model.KindWarning})
	assert.Equal(t, 1, h.printer.calls)
	require.Len(t, h.dir.uploads, 1)
	w := h.dir.uploads[0].(model.WarningLabel)
	assert.Equal(t, time.Date(2026, 5, 30, 0, 0, 0, 0, time.Local), w.ExpiresAt)
}

func TestEditorRejectsShortDescriptions(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.app.Send(LabelChosen{Kind: model.KindTemporary})
	require.Equal(t, StateEditLabel, h.app.StateName())
	assert.Equal(t, DescriptionPrompt, h.app.View().Editor.Placeholder)

	for _, text := range []string{DescriptionPrompt, "abcd", "  ab  ", ""} {
		before := h.app.Current()
		h.app.Send(DescriptionSubmitted{Text: text})
		assert.Same(t, before, h.app.Current(), text)
	}
	assert.Zero(t, h.printer.calls)
	assert.Empty(t, h.dir.uploads)
	assert.Len(t, h.shell.errors, 4)
}

func TestEditorPrintsAndReturns(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.app.Send(LabelChosen{Kind: model.KindTemporary})
	h.app.Send(DescriptionSubmitted{Text: "  Half-built drone  "})

	assert.Equal(t, StateMemberIdentified, h.app.StateName())
	require.Len(t, h.dir.uploads, 1)
	l := h.dir.uploads[0].(model.TemporaryStorageLabel)
	assert.Equal(t, "Half-built drone", l.Description)
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.Local), l.ExpiresAt)
}

func TestEditorCancelAndIdle(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.app.Send(LabelChosen{Kind: model.KindRotating})
	h.app.Send(Cancelled{})
	assert.Equal(t, StateMemberIdentified, h.app.StateName())

	h.app.Send(LabelChosen{Kind: model.KindRotating})
	h.clock.Advance(DefaultIdleTimeout)
	assert.Equal(t, StateWaiting, h.app.StateName())
	assert.Zero(t, h.printer.calls)
}

func TestDryingEditor(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.app.Send(LabelChosen{Kind: model.KindDrying})
	v := h.app.View()
	require.NotNil(t, v.Editor)
	assert.True(t, v.Editor.Numeric)
	assert.Equal(t, "24", v.Editor.Placeholder)

	h.app.Send(DescriptionSubmitted{Text: "forever"})
	h.app.Send(DescriptionSubmitted{Text: "0"})
	assert.Zero(t, h.printer.calls)

	h.app.Send(DescriptionSubmitted{Text: "12"})
	require.Len(t, h.dir.uploads, 1)
	l := h.dir.uploads[0].(model.DryingLabel)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local), l.ExpiresAt)
	assert.Equal(t, StateMemberIdentified, h.app.StateName())
}

func TestTokenExpiryDuringPrintResumesMember(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.dir.uploadErr = session.ErrTokenExpired
	h.dir.checkErr = session.ErrTokenExpired

	h.app.Send(LabelChosen{Kind: model.KindBox})
	assert.Equal(t, StateWaitingForToken, h.app.StateName())
	assert.Zero(t, h.printer.calls)

	h.dir.uploadErr, h.dir.checkErr = nil, nil
	h.clock.Advance(TokenPollInterval)
	s, ok := h.app.Current().(*MemberIdentified)
	require.True(t, ok)
	assert.Equal(t, member, s.Member())
}

// printWith runs one print into a recorder state.
func printWith(t *testing.T, h *harness) *recorder {
	t.Helper()
	rec := &recorder{}
	h.app.state = rec
	h.app.printLabel(member, model.KindBox, model.Options{})
	return rec
}

func TestPrintOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		result  printer.Result
		err     error
		panics  bool
		success bool
		shown   string
		infos   int
		errors  int
	}{
		{name: "printed", result: printer.Result{DidPrint: true}, success: true, infos: 1},
		{
			name:   "printer reports errors",
			result: printer.Result{State: printer.Status{Errors: []string{"jam", "cover open"}}},
			shown:  "Printer reported error: jam, cover open",
		},
		{name: "not found", err: fmt.Errorf("%w: /dev/usb/lp0", printer.ErrNotFound), shown: PrinterNotFoundMsg},
		{name: "transport error", err: errors.New("write: broken pipe"), shown: UnknownPrinterMsg, errors: 1},
		{name: "panic", panics: true, shown: UnknownPrinterMsg, errors: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.printer.result, h.printer.err, h.printer.panics = tt.result, tt.err, tt.panics

			rec := printWith(t, h)

			require.Len(t, rec.events, 1)
			if tt.success {
				assert.Equal(t, PrintingSucceeded{Kind: model.KindBox}, rec.events[0])
			} else {
				assert.IsType(t, PrintingFailed{}, rec.events[0])
			}
			assert.Equal(t, tt.shown, h.shell.lastError())
			assert.Len(t, h.notes.infos, tt.infos)
			assert.Len(t, h.notes.errors, tt.errors)
			assert.Equal(t, []bool{true, false}, h.shell.busy)
		})
	}
}

func TestPrintUploadFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason directory.LookupKind
	}{
		{"token", session.ErrTokenExpired, directory.LookupTokenExpired},
		{"network", fmt.Errorf("%w: reset", directory.ErrNetwork), directory.LookupNetwork},
		{"other", errors.New("bad label"), directory.LookupUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.dir.uploadErr = tt.err

			rec := printWith(t, h)

			require.Len(t, rec.events, 1)
			assert.Equal(t, PrintingFailed{Kind: model.KindBox, Reason: tt.reason}, rec.events[0])
			assert.Zero(t, h.printer.calls)
		})
	}
}

func TestNoPrinterSavesFile(t *testing.T) {
	h := newHarness(t)
	h.cfg.NoPrinter = true
	h.cfg.OutputDir = t.TempDir()

	rec := printWith(t, h)

	require.Len(t, rec.events, 1)
	assert.Equal(t, PrintingSucceeded{Kind: model.KindBox}, rec.events[0])
	assert.Zero(t, h.printer.calls)
	name := fmt.Sprintf("9999_box_%d.png", h.clock.now.Unix())
	info, err := os.Stat(filepath.Join(h.cfg.OutputDir, name))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestErrorClears(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	h.app.Send(TagEntered{Text: "000000000"})
	h.clock.Advance(keyreader.KeyboardDebounce)
	require.NotNil(t, h.app.View().Error)

	h.clock.Advance(ErrorClearDelay)
	assert.Nil(t, h.app.View().Error)
}

func TestForceQuit(t *testing.T) {
	reader := &fakeReader{}
	h := newHarness(t, func(d *Deps) {
		d.KeyReaders = keyreader.FinderFunc(func() (keyreader.Reader, error) { return reader, nil })
	})
	h.start(t)

	h.app.Send(ForceQuit{})
	assert.True(t, h.shell.quit)
	assert.Equal(t, []string{"Application was forcefully quit"}, h.notes.alerts)
	assert.True(t, reader.closed)
	assert.Zero(t, h.clock.pending())
}
