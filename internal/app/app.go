package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/nhle/community-roots/internal/controller"
	"github.com/nhle/community-roots/internal/geo"
	"github.com/nhle/community-roots/internal/keys"
	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
	"github.com/nhle/community-roots/internal/ui"
	assistantview "github.com/nhle/community-roots/internal/ui/assistant"
	"github.com/nhle/community-roots/internal/ui/command"
	helpview "github.com/nhle/community-roots/internal/ui/help"
	historyview "github.com/nhle/community-roots/internal/ui/history"
	"github.com/nhle/community-roots/internal/ui/observation"
	"github.com/nhle/community-roots/internal/ui/parkdetail"
	"github.com/nhle/community-roots/internal/ui/parklist"
)

// Deps are the collaborators the root model calls out to.
type Deps struct {
	// Advisor is nil when no API key is configured; AI-backed actions are
	// then refused with a hint.
	Advisor Advisor
	Locator geo.Locator

	// Snapshots is nil unless persistence is enabled.
	Snapshots store.SnapshotStore

	Log             *zap.Logger
	Now             func() time.Time
	NotificationTTL time.Duration
}

// overlay is a modal drawn over the current screen.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
	overlayObserve
)

const (
	noKeyStatus  = "Rooty needs a Gemini API key for that. Press a for setup help."
	busyStatus   = "Rooty is still working on your last observation."
	noTaskStatus = "Rooty couldn't suggest tasks for that. Try describing it differently."
	saveFailed   = "Couldn't save your progress. See the log for details."

	parkGoneStatus = "That park left the list before Rooty finished. Your observation was kept."
)

// Model is the root Bubble Tea model. It owns the controller state, routes
// messages to the active view and turns intents into state transitions
// and external calls.
type Model struct {
	ctx    context.Context
	state  controller.State
	deps   Deps
	keys   *keys.KeyMap
	writer *snapshotWriter

	layout  ui.Layout
	ready   bool
	overlay overlay
	back    controller.Screen
	status  string

	parkList    parklist.Model
	parkDetail  parkdetail.Model
	observe     observation.Model
	assistant   assistantview.Model
	history     historyview.Model
	helpView    helpview.Model
	commandView command.Model
}

// New creates the root model over an initial state. ctx bounds every
// external call the model issues.
func New(ctx context.Context, state controller.State, deps Deps) Model {
	if deps.Locator == nil {
		deps.Locator = geo.Denied{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NotificationTTL <= 0 {
		deps.NotificationTTL = model.DefaultNotificationS * time.Second
	}

	k := keys.DefaultKeyMap()
	m := Model{
		ctx:         ctx,
		state:       state,
		deps:        deps,
		keys:        k,
		writer:      newSnapshotWriter(deps.Snapshots),
		parkList:    parklist.New(k, 80, 24),
		parkDetail:  parkdetail.New(k, 80, 24),
		observe:     observation.New(80, 24),
		assistant:   assistantview.New(deps.Advisor != nil, 80, 24),
		history:     historyview.New(k, deps.Now, 80, 24),
		helpView:    helpview.New(k, state.PointsPerTask, 80, 24),
		commandView: command.New(80, 24),
	}
	m.sync()
	return m
}

// State returns the current controller state.
func (m Model) State() controller.State {
	return m.state
}

// Init sets the terminal title.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Community Roots")
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.parkList.SetSize(w, h)
		m.parkDetail.SetSize(w, h)
		m.observe.SetSize(w, h)
		m.assistant.SetSize(w, h)
		m.history.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	// Settled external calls.
	case suggestionsMsg:
		_, exists := store.FindPark(m.state.Parks, msg.parkID)
		m.state = m.state.GenerateSettled(msg.parkID, msg.tasks)
		m.sync()
		switch {
		case len(msg.tasks) == 0:
			m.status = noTaskStatus
			return m, nil
		case !exists:
			m.deps.Log.Info("suggestions dropped, park no longer listed", zap.String("park", msg.parkID))
			m.status = parkGoneStatus
			return m, nil
		}
		m.deps.Log.Info("tasks suggested",
			zap.String("park", msg.parkID), zap.Int("count", len(msg.tasks)))
		return m, m.persist()

	case discoveryMsg:
		m.state = m.state.SearchSettled(msg.parks, msg.err)
		m.sync()
		if m.state.SearchError != "" {
			return m, nil
		}
		m.deps.Log.Info("parks discovered", zap.Int("count", len(msg.parks)))
		return m, m.persist()

	case adviceMsg:
		m.state = m.state.AdviceSettled(msg.text)
		m.sync()
		return m, nil

	case clearNotificationMsg:
		m.state = m.state.ClearNotification(msg.seq)
		return m, nil

	case snapshotFailedMsg:
		m.deps.Log.Error("saving snapshot failed", zap.Error(msg.err))
		m.status = saveFailed
		return m, nil

	// Home screen intents.
	case parklist.SelectedParkMsg:
		m.state = m.state.SelectPark(msg.ParkID)
		m.sync()
		return m, nil

	case parklist.SearchMsg:
		m.state = m.state.SetSearchQuery(msg.Query)
		return m.startSearch(false)

	case parklist.SearchNearMsg:
		return m.startSearch(true)

	// Park detail intents.
	case parkdetail.BackMsg:
		m.state = m.state.GoHome()
		m.sync()
		return m, nil

	case parkdetail.VolunteerMsg:
		m.state = m.state.ToggleVolunteer(msg.ParkID, msg.TaskID)
		m.sync()
		return m, m.persist()

	case parkdetail.DeleteMsg:
		m.state = m.state.DeleteTask(msg.ParkID, msg.TaskID)
		m.sync()
		return m, m.persist()

	case parkdetail.CompleteMsg:
		return m.completeTask(msg.ParkID, msg.TaskID)

	case parkdetail.ObserveMsg:
		return m.openObservation(msg.ParkID)

	case observation.SubmittedMsg:
		m.overlay = overlayNone
		m.state = m.state.SetObservation(msg.Text)
		return m.startGenerate()

	case observation.CancelMsg:
		m.overlay = overlayNone
		m.state = m.state.SetObservation(msg.Text)
		return m, nil

	// Assistant and history.
	case assistantview.AskMsg:
		return m.startAdvice(msg.Question)

	case assistantview.CloseMsg, historyview.CloseMsg:
		return m.leave(), nil

	// Command palette.
	case command.CommandMsg:
		m.overlay = overlayNone
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.overlay = overlayNone
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across screens. It reports
// false when the key belongs to the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}
	if m.capturing() {
		return m, nil, false
	}

	if m.overlay == overlayHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.overlay = overlayNone
		}
		return m, nil, true
	}

	switch {
	case key.Matches(msg, m.keys.Quit) && m.state.Screen == controller.ScreenHome:
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.overlay = overlayCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Assistant) && m.browsing():
		m = m.open(controller.ScreenAssistant)
		cmd := m.assistant.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.History) && m.browsing():
		m = m.open(controller.ScreenHistory)
		return m, nil, true
	}

	return m, nil, false
}

// capturing reports whether a text field owns the keyboard.
func (m Model) capturing() bool {
	switch m.overlay {
	case overlayCommand, overlayObserve:
		return true
	case overlayHelp:
		return false
	}
	switch m.state.Screen {
	case controller.ScreenAssistant:
		return true
	case controller.ScreenHome:
		return m.parkList.Capturing()
	}
	return false
}

// browsing reports whether the park list or a park is on screen.
func (m Model) browsing() bool {
	return m.state.Screen == controller.ScreenHome || m.state.Screen == controller.ScreenParkDetail
}

// open switches to the assistant or history screen, remembering where to
// return to.
func (m Model) open(screen controller.Screen) Model {
	if m.browsing() {
		m.back = m.state.Screen
	}
	switch screen {
	case controller.ScreenAssistant:
		m.state = m.state.OpenAssistant()
	case controller.ScreenHistory:
		m.state = m.state.OpenHistory()
	}
	m.sync()
	return m
}

// leave returns from the assistant or history screen. If the park that
// was open has since disappeared, it lands on the park list.
func (m Model) leave() Model {
	next := m.state.GoHome()
	if m.back == controller.ScreenParkDetail {
		if reopened := m.state.SelectPark(m.state.SelectedParkID); reopened.Screen == controller.ScreenParkDetail {
			next = reopened
		}
	}
	m.state = next
	m.sync()
	return m
}

func (m Model) completeTask(parkID, taskID string) (Model, tea.Cmd) {
	seq := m.state.NotificationSeq
	m.state = m.state.CompleteTask(parkID, taskID, m.deps.Now())
	if m.state.NotificationSeq == seq {
		return m, nil
	}
	m.deps.Log.Info("task completed",
		zap.String("park", parkID),
		zap.String("task", taskID),
		zap.Int("total", m.state.Ledger.Total()),
	)
	m.sync()
	return m, tea.Batch(m.expireNotification(m.state.NotificationSeq), m.persist())
}

func (m Model) openObservation(parkID string) (Model, tea.Cmd) {
	switch {
	case m.deps.Advisor == nil:
		m.status = noKeyStatus
		return m, nil
	case m.state.Generating:
		m.status = busyStatus
		return m, nil
	}
	park, ok := store.FindPark(m.state.Parks, parkID)
	if !ok {
		return m, nil
	}
	m.overlay = overlayObserve
	cmd := m.observe.Start(park, m.state.Observation)
	return m, cmd
}

func (m Model) startGenerate() (Model, tea.Cmd) {
	if m.deps.Advisor == nil {
		m.status = noKeyStatus
		return m, nil
	}
	next, ok := m.state.BeginGenerate()
	if !ok {
		return m, nil
	}
	m.state = next
	m.sync()
	park, _ := next.SelectedPark()
	return m, m.suggestTasks(park.ID, next.Observation)
}

func (m Model) startSearch(useLocation bool) (Model, tea.Cmd) {
	if m.deps.Advisor == nil {
		m.status = noKeyStatus
		m.sync()
		return m, nil
	}
	next, ok := m.state.BeginSearch(useLocation)
	if !ok {
		m.sync()
		return m, nil
	}
	m.state = next
	m.sync()
	return m, m.discoverParks(next.SearchQuery, useLocation)
}

func (m Model) startAdvice(question string) (Model, tea.Cmd) {
	if m.deps.Advisor == nil {
		return m, nil
	}
	next, ok := m.state.BeginAdvice(question)
	if !ok {
		return m, nil
	}
	m.state = next
	m.sync()
	return m, m.askAdvice(question)
}

// executeCommand handles a line from the command palette.
func (m Model) executeCommand(line string) (Model, tea.Cmd) {
	verb, arg := command.Parse(line)
	switch verb {
	case "home", "parks":
		m.state = m.state.GoHome()
		m.sync()
		return m, nil
	case "assistant", "ask":
		m = m.open(controller.ScreenAssistant)
		cmd := m.assistant.Focus()
		return m, cmd
	case "history", "points":
		return m.open(controller.ScreenHistory), nil
	case "search", "find":
		m.state = m.state.SetSearchQuery(arg).GoHome()
		return m.startSearch(false)
	case "near":
		m.state = m.state.GoHome()
		return m.startSearch(true)
	case "help":
		m.overlay = overlayHelp
		return m, nil
	case "save":
		if m.writer == nil {
			m.status = "Saving is off. Set storage.snapshot_path to keep progress."
			return m, nil
		}
		m.status = "Progress saved."
		return m, m.persist()
	case "quit", "q":
		return m, tea.Quit
	default:
		m.status = fmt.Sprintf("Unknown command %q", line)
		return m, nil
	}
}

// sync pushes the controller state into the views.
func (m *Model) sync() {
	s := m.state
	m.parkList.SetParks(s.Parks)
	m.parkList.SetSearch(s.SearchQuery, s.Searching, s.SearchError)
	park, ok := s.SelectedPark()
	m.parkDetail.SetPark(park, ok, s.Player, s.Generating)
	m.assistant.SetTranscript(s.Transcript.Messages(), s.Advising)
	m.history.SetLedger(s.Ledger)
}

// updateActiveView dispatches the message to the overlay or screen on top.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.overlay {
	case overlayHelp:
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	case overlayCommand:
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	case overlayObserve:
		m.observe, cmd = m.observe.Update(msg)
		return m, cmd
	}

	switch m.state.Screen {
	case controller.ScreenHome:
		m.parkList, cmd = m.parkList.Update(msg)
	case controller.ScreenParkDetail:
		m.parkDetail, cmd = m.parkDetail.Update(msg)
	case controller.ScreenAssistant:
		m.assistant, cmd = m.assistant.Update(msg)
	case controller.ScreenHistory:
		m.history, cmd = m.history.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Community Roots"
	if park, ok := m.state.SelectedPark(); ok && m.state.Screen == controller.ScreenParkDetail {
		title += " › " + park.Name
	}
	standing := fmt.Sprintf("%s pts · Root Depth %dm",
		humanize.Comma(int64(m.state.Ledger.Total())), m.state.Ledger.Level())
	if m.state.Busy() {
		standing = "working… " + standing
	}

	header := m.layout.RenderHeader(title, standing)
	banner := m.layout.RenderBanner(m.state.Notification)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, content, statusBar)
}

// renderContent returns the rendered string for the overlay or screen.
func (m Model) renderContent() string {
	switch m.overlay {
	case overlayHelp:
		return m.helpView.View()
	case overlayCommand:
		return m.commandView.View()
	case overlayObserve:
		return m.observe.View()
	}

	switch m.state.Screen {
	case controller.ScreenParkDetail:
		return m.parkDetail.View()
	case controller.ScreenAssistant:
		return m.assistant.View()
	case controller.ScreenHistory:
		return m.history.View()
	default:
		return m.parkList.View()
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" {
		return m.status
	}

	switch m.overlay {
	case overlayHelp:
		return "? close help | esc back"
	case overlayCommand:
		return "enter run | tab complete | esc close"
	case overlayObserve:
		return "enter submit | esc cancel"
	}

	switch m.state.Screen {
	case controller.ScreenParkDetail:
		return "esc back | j/k move | v volunteer | x complete | d delete | o suggest tasks | a ask | h history"
	case controller.ScreenAssistant:
		return "enter send | pgup/pgdn scroll | esc back"
	case controller.ScreenHistory:
		return "esc back | pgup/pgdn scroll"
	default:
		if m.parkList.Capturing() {
			return "enter search | esc cancel"
		}
		return "q quit | ? help | enter open | / find parks | L near me | a ask | h history | : commands"
	}
}
