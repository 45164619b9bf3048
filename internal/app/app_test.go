package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/community-roots/internal/controller"
	"github.com/nhle/community-roots/internal/geo"
	"github.com/nhle/community-roots/internal/ledger"
	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
	"github.com/nhle/community-roots/internal/testutil"
	assistantview "github.com/nhle/community-roots/internal/ui/assistant"
	"github.com/nhle/community-roots/internal/ui/command"
	historyview "github.com/nhle/community-roots/internal/ui/history"
	"github.com/nhle/community-roots/internal/ui/observation"
	"github.com/nhle/community-roots/internal/ui/parkdetail"
	"github.com/nhle/community-roots/internal/ui/parklist"
)

var now = time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)

type fakeAdvisor struct {
	questions    []string
	observations []string
	queries      []string
	near         []*model.Coordinates

	tasks []model.Task
	parks []model.Park
	reply string
}

func (f *fakeAdvisor) Advice(_ context.Context, q string) string {
	f.questions = append(f.questions, q)
	return f.reply
}

func (f *fakeAdvisor) SuggestTasks(_ context.Context, obs string, _ time.Time) []model.Task {
	f.observations = append(f.observations, obs)
	return f.tasks
}

func (f *fakeAdvisor) DiscoverParks(_ context.Context, q string, near *model.Coordinates, _ time.Time) []model.Park {
	f.queries = append(f.queries, q)
	f.near = append(f.near, near)
	return f.parks
}

type fakeSnapshots struct {
	saved []store.Snapshot
	err   error
}

func (f *fakeSnapshots) Save(_ context.Context, snap store.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeSnapshots) Load(context.Context) (store.Snapshot, error) {
	if len(f.saved) == 0 {
		return store.Snapshot{}, nil
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeSnapshots) Close() error { return nil }

func newModel(t *testing.T, deps Deps) Model {
	t.Helper()
	if deps.Now == nil {
		deps.Now = func() time.Time { return now }
	}
	if deps.NotificationTTL == 0 {
		deps.NotificationTTL = time.Millisecond
	}
	state := controller.New(controller.Options{
		Parks:       testutil.Parks(),
		Ledger:      ledger.New(model.DefaultStartingPoints, model.DefaultStartingLabel, now.AddDate(0, 0, -2)),
		SearchQuery: model.DefaultSearchQuery,
		Welcome:     "Hi, I'm Rooty.",
	})
	m := New(context.Background(), state, deps)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

// update applies msg and drops the resulting command.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// step applies msg and returns the resulting command.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// exec runs cmd and any batched commands, collecting non-nil messages.
// Only use it on commands issued by the effects, never on cursor blinks.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle runs cmd and feeds every message it produced back into m.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range exec(cmd) {
		m = update(t, m, msg)
	}
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitialView(t *testing.T) {
	m := newModel(t, Deps{})
	view := m.View()
	assert.Contains(t, view, "Community Roots")
	assert.Contains(t, view, "40 pts")
	assert.Contains(t, view, "Riverside Park")
	assert.Contains(t, view, "Hilltop Green")
}

func TestViewBeforeWindowSize(t *testing.T) {
	m := New(context.Background(), controller.New(controller.Options{}), Deps{})
	assert.Equal(t, "Loading...", m.View())
}

func TestCompleteTaskRaisesAndClearsNotification(t *testing.T) {
	m := newModel(t, Deps{})
	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p1"})
	require.Equal(t, controller.ScreenParkDetail, m.State().Screen)

	m, cmd := step(t, m, parkdetail.CompleteMsg{ParkID: "p1", TaskID: "t1"})
	require.NotNil(t, cmd)
	assert.Equal(t, 50, m.State().Ledger.Total())
	assert.Equal(t, "Task Complete! +10 Points Collected", m.State().Notification)
	assert.Contains(t, m.View(), "Task Complete!")
	assert.Contains(t, m.View(), "50 pts")

	m = settle(t, m, cmd)
	assert.Empty(t, m.State().Notification)
}

func TestCompleteTwiceAwardsOnce(t *testing.T) {
	m := newModel(t, Deps{})
	m = update(t, m, parkdetail.CompleteMsg{ParkID: "p1", TaskID: "t1"})
	m, cmd := step(t, m, parkdetail.CompleteMsg{ParkID: "p1", TaskID: "t1"})
	assert.Nil(t, cmd)
	assert.Equal(t, 50, m.State().Ledger.Total())
	assert.Equal(t, 2, m.State().Ledger.Len())
}

func TestStaleNotificationClearIgnored(t *testing.T) {
	m := newModel(t, Deps{})
	m = update(t, m, parkdetail.CompleteMsg{ParkID: "p1", TaskID: "t1"})
	seq := m.State().NotificationSeq

	m = update(t, m, clearNotificationMsg{seq: seq - 1})
	assert.NotEmpty(t, m.State().Notification)

	m = update(t, m, clearNotificationMsg{seq: seq})
	assert.Empty(t, m.State().Notification)
}

func TestVolunteerAndDelete(t *testing.T) {
	m := newModel(t, Deps{})
	m = update(t, m, parkdetail.VolunteerMsg{ParkID: "p1", TaskID: "t1"})
	task, ok := store.FindTask(m.State().Parks, "p1", "t1")
	require.True(t, ok)
	assert.Equal(t, []string{"Ann", "You"}, task.Volunteers)

	m = update(t, m, parkdetail.VolunteerMsg{ParkID: "p1", TaskID: "t1"})
	task, _ = store.FindTask(m.State().Parks, "p1", "t1")
	assert.Equal(t, []string{"Ann"}, task.Volunteers)

	m = update(t, m, parkdetail.DeleteMsg{ParkID: "p1", TaskID: "t2"})
	_, ok = store.FindTask(m.State().Parks, "p1", "t2")
	assert.False(t, ok)
}

func TestGenerateTasks(t *testing.T) {
	adv := &fakeAdvisor{tasks: []model.Task{
		{ID: "n1", Title: "Clear litter", Status: model.StatusOpen, Urgency: model.UrgencyHigh, Volunteers: []string{}},
	}}
	m := newModel(t, Deps{Advisor: adv})
	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p2"})

	m = update(t, m, parkdetail.ObserveMsg{ParkID: "p2"})
	assert.Equal(t, overlayObserve, m.overlay)
	assert.Contains(t, m.View(), "What did you notice at Hilltop Green?")

	m, cmd := step(t, m, observation.SubmittedMsg{ParkID: "p2", Text: "litter by the gate"})
	require.NotNil(t, cmd)
	assert.Equal(t, overlayNone, m.overlay)
	assert.True(t, m.State().Generating)

	m = settle(t, m, cmd)
	assert.False(t, m.State().Generating)
	assert.Equal(t, []string{"litter by the gate"}, adv.observations)
	assert.Empty(t, m.State().Observation)

	park, ok := m.State().SelectedPark()
	require.True(t, ok)
	require.Len(t, park.Tasks, 1)
	assert.Equal(t, "Clear litter", park.Tasks[0].Title)
}

func TestGenerateEmptyKeepsObservation(t *testing.T) {
	adv := &fakeAdvisor{}
	m := newModel(t, Deps{Advisor: adv})
	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p2"})

	m, cmd := step(t, m, observation.SubmittedMsg{ParkID: "p2", Text: "something odd"})
	m = settle(t, m, cmd)
	assert.Equal(t, "something odd", m.State().Observation)
	assert.Equal(t, noTaskStatus, m.status)
}

func TestSuggestionsForReplacedParkAreDropped(t *testing.T) {
	adv := &fakeAdvisor{
		tasks: []model.Task{{ID: "n1", Title: "Clear litter", Status: model.StatusOpen, Volunteers: []string{}}},
		parks: []model.Park{{ID: "d1", Name: "Rock Creek", Tasks: []model.Task{}}},
	}
	fs := &fakeSnapshots{}
	m := newModel(t, Deps{Advisor: adv, Snapshots: fs})
	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p2"})

	m, generate := step(t, m, observation.SubmittedMsg{ParkID: "p2", Text: "litter by the gate"})
	m = update(t, m, parkdetail.BackMsg{})
	m, search := step(t, m, parklist.SearchMsg{Query: "Rock Creek"})
	m = settle(t, m, search)
	require.Len(t, fs.saved, 1)

	m = settle(t, m, generate)
	assert.False(t, m.State().Generating)
	assert.Equal(t, "litter by the gate", m.State().Observation)
	assert.Equal(t, parkGoneStatus, m.status)
	require.Len(t, m.State().Parks, 1)
	assert.Empty(t, m.State().Parks[0].Tasks)
	assert.Len(t, fs.saved, 1)
}

func TestObservationCancelKeepsDraft(t *testing.T) {
	m := newModel(t, Deps{Advisor: &fakeAdvisor{}})
	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p1"})
	m = update(t, m, parkdetail.ObserveMsg{ParkID: "p1"})
	m = update(t, m, observation.CancelMsg{ParkID: "p1", Text: "half a tho"})
	assert.Equal(t, overlayNone, m.overlay)
	assert.Equal(t, "half a tho", m.State().Observation)
}

func TestAIActionsWithoutAdvisor(t *testing.T) {
	m := newModel(t, Deps{})
	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p1"})

	m, cmd := step(t, m, parkdetail.ObserveMsg{ParkID: "p1"})
	assert.Nil(t, cmd)
	assert.Equal(t, overlayNone, m.overlay)
	assert.Contains(t, m.View(), "Gemini API key")

	// Any key clears the status line.
	m = update(t, m, keyPress("j"))
	assert.Empty(t, m.status)

	m = update(t, m, parkdetail.BackMsg{})
	m, cmd = step(t, m, parklist.SearchMsg{Query: "Capitol Hill"})
	assert.Nil(t, cmd)
	assert.False(t, m.State().Searching)
	assert.Equal(t, noKeyStatus, m.status)
}

func TestSearchReplacesParks(t *testing.T) {
	adv := &fakeAdvisor{parks: []model.Park{
		{ID: "d1", Name: "Meridian Hill Park", Tasks: []model.Task{}},
	}}
	m := newModel(t, Deps{Advisor: adv})

	m, cmd := step(t, m, parklist.SearchMsg{Query: "Capitol Hill, DC"})
	require.NotNil(t, cmd)
	assert.True(t, m.State().Searching)
	assert.Equal(t, "Capitol Hill, DC", m.State().SearchQuery)

	m = settle(t, m, cmd)
	assert.False(t, m.State().Searching)
	assert.Equal(t, []string{"Capitol Hill, DC"}, adv.queries)
	assert.Nil(t, adv.near[0])
	require.Len(t, m.State().Parks, 1)
	assert.Equal(t, "Meridian Hill Park", m.State().Parks[0].Name)
}

func TestSearchNothingFound(t *testing.T) {
	m := newModel(t, Deps{Advisor: &fakeAdvisor{}})
	m, cmd := step(t, m, parklist.SearchMsg{Query: "Atlantis"})
	m = settle(t, m, cmd)
	assert.Equal(t, controller.NoParksFoundMessage, m.State().SearchError)
	assert.Len(t, m.State().Parks, 2)
	assert.Contains(t, m.View(), controller.NoParksFoundMessage)
}

func TestSearchNearMe(t *testing.T) {
	t.Run("denied", func(t *testing.T) {
		adv := &fakeAdvisor{}
		m := newModel(t, Deps{Advisor: adv, Locator: geo.Denied{}})
		m, cmd := step(t, m, parklist.SearchNearMsg{})
		m = settle(t, m, cmd)
		assert.Equal(t, controller.LocationDeniedMessage, m.State().SearchError)
		assert.Empty(t, adv.queries)
	})

	t.Run("fixed", func(t *testing.T) {
		adv := &fakeAdvisor{parks: []model.Park{{ID: "d1", Name: "Rock Creek", Tasks: []model.Task{}}}}
		m := newModel(t, Deps{Advisor: adv, Locator: geo.Fixed{Lat: 38.9, Lng: -77.03}})
		m, cmd := step(t, m, parklist.SearchNearMsg{})
		m = settle(t, m, cmd)
		assert.Empty(t, m.State().SearchError)
		require.Len(t, adv.near, 1)
		require.NotNil(t, adv.near[0])
		assert.Equal(t, model.Coordinates{Lat: 38.9, Lng: -77.03}, *adv.near[0])
		assert.Equal(t, "Rock Creek", m.State().Parks[0].Name)
	})
}

func TestAdvice(t *testing.T) {
	adv := &fakeAdvisor{reply: "Water deeply, twice a week."}
	m := newModel(t, Deps{Advisor: adv})

	m = update(t, m, keyPress("a"))
	require.Equal(t, controller.ScreenAssistant, m.State().Screen)

	m, cmd := step(t, m, assistantview.AskMsg{Question: "How often to water?"})
	require.NotNil(t, cmd)
	assert.True(t, m.State().Advising)

	m = settle(t, m, cmd)
	assert.False(t, m.State().Advising)
	msgs := m.State().Transcript.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "How often to water?", msgs[1].Text)
	assert.Equal(t, "Water deeply, twice a week.", msgs[2].Text)
}

func TestAssistantCapturesKeys(t *testing.T) {
	m := newModel(t, Deps{Advisor: &fakeAdvisor{}})
	m = update(t, m, keyPress("a"))

	// q and h are typed into the question, not handled globally.
	m = update(t, m, keyPress("q"))
	m = update(t, m, keyPress("h"))
	assert.Equal(t, controller.ScreenAssistant, m.State().Screen)
	assert.Contains(t, m.assistant.View(), "qh")
}

func TestBackNavigation(t *testing.T) {
	m := newModel(t, Deps{})

	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p1"})
	m = update(t, m, keyPress("h"))
	require.Equal(t, controller.ScreenHistory, m.State().Screen)
	m = update(t, m, historyview.CloseMsg{})
	assert.Equal(t, controller.ScreenParkDetail, m.State().Screen)

	m = update(t, m, parkdetail.BackMsg{})
	m = update(t, m, keyPress("a"))
	require.Equal(t, controller.ScreenAssistant, m.State().Screen)
	m = update(t, m, assistantview.CloseMsg{})
	assert.Equal(t, controller.ScreenHome, m.State().Screen)
}

func TestQuitOnlyFromHome(t *testing.T) {
	m := newModel(t, Deps{})
	_, cmd := step(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	m = update(t, m, parklist.SelectedParkMsg{ParkID: "p1"})
	_, cmd = step(t, m, keyPress("q"))
	assert.Nil(t, cmd)

	_, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestHelpToggle(t *testing.T) {
	m := newModel(t, Deps{})
	m = update(t, m, keyPress("?"))
	assert.Equal(t, overlayHelp, m.overlay)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	// Keys other than ? and esc are swallowed by the overlay.
	m = update(t, m, keyPress("h"))
	assert.Equal(t, controller.ScreenHome, m.State().Screen)

	m = update(t, m, keyPress("?"))
	assert.Equal(t, overlayNone, m.overlay)

	m = update(t, m, keyPress("?"))
	m = update(t, m, keyPress("esc"))
	assert.Equal(t, overlayNone, m.overlay)
}

func TestCommands(t *testing.T) {
	adv := &fakeAdvisor{parks: []model.Park{{ID: "d1", Name: "Lincoln Park", Tasks: []model.Task{}}}}
	m := newModel(t, Deps{Advisor: adv})

	m = update(t, m, keyPress(":"))
	assert.Equal(t, overlayCommand, m.overlay)
	m = update(t, m, command.CancelMsg{})
	assert.Equal(t, overlayNone, m.overlay)

	m = update(t, m, command.CommandMsg("history"))
	assert.Equal(t, controller.ScreenHistory, m.State().Screen)

	m = update(t, m, command.CommandMsg("home"))
	assert.Equal(t, controller.ScreenHome, m.State().Screen)

	m, cmd := step(t, m, command.CommandMsg("search Capitol Hill, DC"))
	assert.Equal(t, "Capitol Hill, DC", m.State().SearchQuery)
	m = settle(t, m, cmd)
	assert.Equal(t, "Lincoln Park", m.State().Parks[0].Name)

	m = update(t, m, command.CommandMsg("frobnicate"))
	assert.Contains(t, m.View(), `Unknown command "frobnicate"`)

	m = update(t, m, command.CommandMsg("save"))
	assert.Contains(t, m.status, "Saving is off")

	_, cmd = step(t, m, command.CommandMsg("quit"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestPersistsToSQLite(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := newModel(t, Deps{Snapshots: s})

	m, cmd := step(t, m, parkdetail.VolunteerMsg{ParkID: "p1", TaskID: "t1"})
	m = settle(t, m, cmd)

	m, cmd = step(t, m, parkdetail.CompleteMsg{ParkID: "p1", TaskID: "t1"})
	m = settle(t, m, cmd)
	assert.Empty(t, m.State().Notification)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	task, ok := store.FindTask(snap.Parks, "p1", "t1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, []string{"Ann", "You"}, task.Volunteers)

	restored := ledger.Restore(snap.Ledger)
	assert.Equal(t, 50, restored.Total())
	assert.Equal(t, 2, restored.Len())
}

func TestSnapshotWriterSkipsOlderWrites(t *testing.T) {
	fs := &fakeSnapshots{}
	w := newSnapshotWriter(fs)

	older := w.write(context.Background(), store.Snapshot{Ledger: []model.LedgerEntry{{ID: "1"}}})
	newer := w.write(context.Background(), store.Snapshot{Ledger: []model.LedgerEntry{{ID: "1"}, {ID: "2"}}})

	assert.Nil(t, newer())
	assert.Nil(t, older())
	require.Len(t, fs.saved, 1)
	assert.Len(t, fs.saved[0].Ledger, 2)
}

func TestSnapshotWriterNilStore(t *testing.T) {
	assert.Nil(t, newSnapshotWriter(nil))
}

func TestSnapshotWriterFlushSupersedesQueuedWrites(t *testing.T) {
	fs := &fakeSnapshots{}
	w := newSnapshotWriter(fs)

	queued := w.write(context.Background(), store.Snapshot{Ledger: []model.LedgerEntry{{ID: "1"}}})
	require.NoError(t, w.flush(context.Background(), store.Snapshot{Ledger: []model.LedgerEntry{{ID: "1"}, {ID: "2"}}}))
	assert.Nil(t, queued())

	require.Len(t, fs.saved, 1)
	assert.Len(t, fs.saved[0].Ledger, 2)
}

func TestFlushSavesUnwrittenProgress(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := newModel(t, Deps{Snapshots: s})

	// Quit before the background write runs.
	m = update(t, m, parkdetail.CompleteMsg{ParkID: "p1", TaskID: "t1"})
	require.NoError(t, m.Flush(context.Background()))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	task, ok := store.FindTask(snap.Parks, "p1", "t1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, 50, ledger.Restore(snap.Ledger).Total())
}

func TestFlushWithoutStore(t *testing.T) {
	m := newModel(t, Deps{})
	assert.NoError(t, m.Flush(context.Background()))
}

func TestSnapshotFailureShowsStatus(t *testing.T) {
	fs := &fakeSnapshots{err: errors.New("disk full")}
	m := newModel(t, Deps{Snapshots: fs})

	m, cmd := step(t, m, parkdetail.DeleteMsg{ParkID: "p1", TaskID: "t2"})
	m = settle(t, m, cmd)
	assert.Equal(t, saveFailed, m.status)
	assert.Contains(t, m.View(), saveFailed)
}
