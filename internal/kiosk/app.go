// Package kiosk is the booth's application state machine. It decides what
// the shell shows and reacts to operator input, timers and print outcomes.
// All methods run on the shell's UI loop; timers come back through the
// poster set with SetPoster.
package kiosk

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/keyreader"
	"github.com/existflow/memberbooth/internal/layout"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/metrics"
	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/notify"
	"github.com/existflow/memberbooth/internal/printer"
)

// Shell is the user interface the kiosk drives.
type Shell interface {
	ShowError(title, msg string)
	SetBusy(busy bool)
	Quit()
}

// Renderer lays an uploaded label out.
type Renderer interface {
	Create(u model.UploadedLabel, now time.Time) (*layout.Label, error)
}

// Deps are the collaborators every state may use.
type Deps struct {
	Directory directory.Directory
	Notifier  notify.Notifier
	Printer   printer.Printer
	// KeyReaders is nil when members log in with a PIN.
	KeyReaders keyreader.Finder
	Shell      Shell
	Clock      Clock
	Config     *config.Config
	Metrics    *metrics.Metrics
	Labels     Renderer
}

// State is one node of the state machine. OnEvent and OnViewEvent return
// the receiver to stay, or a new state to move to.
type State interface {
	Name() string
	View() View
	Enter()
	Exit()
	OnEvent(e Event) State
	OnViewEvent(e ViewEvent) State
}

type timerEntry struct {
	owner State
	timer Timer
}

// App owns the current state, the event queue and the timers.
type App struct {
	deps   Deps
	state  State
	name   atomic.Value
	post   func(Event)
	queue  []any
	active bool

	timers  map[TimerID]timerEntry
	nextID  TimerID
	err     *ErrorMessage
	errTime TimerID
	busy    bool

	reader keyreader.Reader
	log    *logger.Logger
}

// New creates an App. Call Start to enter the first state.
func New(deps Deps) *App {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Log{}
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	a := &App{
		deps:   deps,
		timers: make(map[TimerID]timerEntry),
		log:    logger.WithFields(),
	}
	a.post = a.Dispatch
	a.name.Store("")
	return a
}

// SetPoster routes timer events through post, which must hand them back to
// Dispatch on the UI loop.
func (a *App) SetPoster(post func(Event)) { a.post = post }

// Start enters the initial state.
func (a *App) Start() {
	a.transition(newWaitingForToken(a, nil))
}

// Current returns the current state.
func (a *App) Current() State { return a.state }

// StateName is safe to call from any goroutine.
func (a *App) StateName() string { return a.name.Load().(string) }

// View merges the state's view with the error and busy indicators.
func (a *App) View() View {
	if a.state == nil {
		return View{}
	}
	v := a.state.View()
	v.Error = a.err
	v.Busy = a.busy
	return v
}

// Dispatch queues e and processes the queue unless it is already being
// processed further up the stack.
func (a *App) Dispatch(e Event) { a.enqueue(e) }

// Send queues a view event.
func (a *App) Send(e ViewEvent) { a.enqueue(e) }

func (a *App) enqueue(m any) {
	a.queue = append(a.queue, m)
	if a.active {
		return
	}
	a.active = true
	defer func() { a.active = false }()

	for len(a.queue) > 0 {
		m := a.queue[0]
		a.queue = a.queue[1:]
		a.handle(m)
	}
}

func (a *App) handle(m any) {
	if a.state == nil {
		return
	}
	switch e := m.(type) {
	case ForceQuit:
		a.forceQuit()
	case ViewEvent:
		a.log.Info(fmt.Sprint(e), logger.F("state", a.state.Name()))
		a.transition(a.state.OnViewEvent(e))
	case TimerFired:
		entry, ok := a.timers[e.ID]
		if !ok {
			return
		}
		delete(a.timers, e.ID)
		if e.ID == a.errTime {
			a.err = nil
			return
		}
		if entry.owner == a.state {
			a.transition(a.state.OnEvent(e))
		}
	case Event:
		a.log.Info(fmt.Sprint(e), logger.F("state", a.state.Name()))
		a.transition(a.state.OnEvent(e))
	}
}

// transition swaps in next when it differs from the current state.
func (a *App) transition(next State) {
	if next == nil || next == a.state {
		return
	}
	if prev := a.state; prev != nil {
		a.cancelOwned(prev)
		prev.Exit()
	}
	a.state = next
	a.name.Store(next.Name())
	a.log.Info("Processing current state", logger.F("state", next.Name()))
	a.deps.Metrics.Transition(next.Name())
	next.Enter()
}

// after schedules a TimerFired for owner. Timers die with their owner.
func (a *App) after(owner State, d time.Duration) TimerID {
	a.nextID++
	id := a.nextID
	t := a.deps.Clock.AfterFunc(d, func() { a.post(TimerFired{ID: id}) })
	a.timers[id] = timerEntry{owner: owner, timer: t}
	return id
}

func (a *App) cancel(id TimerID) {
	if entry, ok := a.timers[id]; ok {
		entry.timer.Stop()
		delete(a.timers, id)
	}
}

func (a *App) cancelOwned(owner State) {
	for id, entry := range a.timers {
		if entry.owner == owner {
			entry.timer.Stop()
			delete(a.timers, id)
		}
	}
}

// pending reports whether id is still scheduled.
func (a *App) pending(id TimerID) bool {
	_, ok := a.timers[id]
	return id != 0 && ok
}

// showError displays msg until ErrorClearDelay passes or another error
// replaces it.
func (a *App) showError(title, msg string) {
	if title == "" {
		title = "Error"
	}
	a.cancel(a.errTime)
	a.err = &ErrorMessage{Title: title, Text: msg}
	a.errTime = a.after(nil, ErrorClearDelay)
	if a.deps.Shell != nil {
		a.deps.Shell.ShowError(title, msg)
	}
}

func (a *App) clearError() {
	a.cancel(a.errTime)
	a.errTime = 0
	a.err = nil
}

func (a *App) setBusy(busy bool) {
	a.busy = busy
	if a.deps.Shell != nil {
		a.deps.Shell.SetBusy(busy)
	}
}

func (a *App) forceQuit() {
	a.log.Warn("Application was forcefully quit", logger.F("state", a.state.Name()))
	a.deps.Notifier.Alert("Application was forcefully quit")
	a.Close()
	if a.deps.Shell != nil {
		a.deps.Shell.Quit()
	}
}

// Close cancels every timer and releases the key reader.
func (a *App) Close() {
	for id, entry := range a.timers {
		entry.timer.Stop()
		delete(a.timers, id)
	}
	a.closeReader()
}

func (a *App) closeReader() {
	if a.reader != nil {
		a.reader.Close()
		a.reader = nil
	}
}

func (a *App) now() time.Time { return a.deps.Clock.Now() }

func (a *App) idleTimeout() time.Duration {
	if d := a.deps.Config.IdleTimeout; d > 0 {
		return d
	}
	return DefaultIdleTimeout
}
