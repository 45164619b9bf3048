// Package controller holds the application state visible to the views and
// the transitions that user intents and settled external calls apply to
// it. State is a value; every transition returns a new State, so a single
// event loop can own it without locking.
package controller

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/community-roots/internal/ai"
	"github.com/nhle/community-roots/internal/geo"
	"github.com/nhle/community-roots/internal/ledger"
	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
)

// Screen identifies the active view.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenParkDetail
	ScreenAssistant
	ScreenHistory
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "home"
	case ScreenParkDetail:
		return "park"
	case ScreenAssistant:
		return "assistant"
	case ScreenHistory:
		return "history"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// User-visible messages.
const (
	NoParksFoundMessage     = "No parks found."
	LocationDeniedMessage   = "Location access was denied. Please check your location permissions."
	LocationFailedMessage   = "Couldn't determine your location. Please try searching by name."
	notificationTemplate    = "Task Complete! +%d Points Collected"
	completedActionTemplate = "Completed: %s"
)

// Options configures a fresh State.
type Options struct {
	Parks         []model.Park
	Ledger        ledger.Ledger
	Player        string
	PointsPerTask int
	SearchQuery   string
	Welcome       string
}

// State is everything the views render.
type State struct {
	Screen         Screen
	Parks          []model.Park
	SelectedParkID string

	SearchQuery string
	Observation string

	Ledger     ledger.Ledger
	Transcript ai.Transcript

	// Notification is a transient banner. NotificationSeq increases with
	// every new banner so a stale clear request can be told apart.
	Notification    string
	NotificationSeq int

	// SearchError is shown on the home screen after a failed search.
	SearchError string

	Generating bool
	Searching  bool
	Advising   bool

	Player        string
	PointsPerTask int
}

// New returns the initial state on the home screen.
func New(opts Options) State {
	if opts.Player == "" {
		opts.Player = model.DefaultPlayerName
	}
	if opts.PointsPerTask <= 0 {
		opts.PointsPerTask = model.DefaultPointsPerTask
	}
	return State{
		Screen:        ScreenHome,
		Parks:         store.ReplaceAll(opts.Parks),
		SearchQuery:   opts.SearchQuery,
		Ledger:        opts.Ledger,
		Transcript:    ai.NewTranscript(opts.Welcome),
		Player:        opts.Player,
		PointsPerTask: opts.PointsPerTask,
	}
}

// SelectedPark returns the park shown on the detail screen.
func (s State) SelectedPark() (model.Park, bool) {
	if s.SelectedParkID == "" {
		return model.Park{}, false
	}
	return store.FindPark(s.Parks, s.SelectedParkID)
}

// Busy reports whether any external call is in flight.
func (s State) Busy() bool {
	return s.Generating || s.Searching || s.Advising
}

// SelectPark opens the detail screen for a park. Unknown IDs are ignored.
func (s State) SelectPark(parkID string) State {
	if _, ok := store.FindPark(s.Parks, parkID); !ok {
		return s
	}
	if s.SelectedParkID != parkID {
		s.Observation = ""
	}
	s.SelectedParkID = parkID
	s.Screen = ScreenParkDetail
	return s
}

// GoHome returns to the park list.
func (s State) GoHome() State {
	s.Screen = ScreenHome
	return s
}

// OpenAssistant shows the chat screen.
func (s State) OpenAssistant() State {
	s.Screen = ScreenAssistant
	return s
}

// OpenHistory shows the points history.
func (s State) OpenHistory() State {
	s.Screen = ScreenHistory
	return s
}

// SetSearchQuery records the typed discovery query.
func (s State) SetSearchQuery(q string) State {
	s.SearchQuery = q
	return s
}

// SetObservation records the observation text for task generation.
func (s State) SetObservation(text string) State {
	s.Observation = text
	return s
}

// ToggleVolunteer signs the player up for a task, or removes them.
func (s State) ToggleVolunteer(parkID, taskID string) State {
	s.Parks = store.ToggleVolunteer(s.Parks, parkID, taskID, s.Player)
	return s
}

// DeleteTask removes a task.
func (s State) DeleteTask(parkID, taskID string) State {
	s.Parks = store.DeleteTask(s.Parks, parkID, taskID)
	return s
}

// CompleteTask marks a task completed and, in the same step, awards the
// points and raises the notification. Nothing changes when the task is
// missing or already completed.
func (s State) CompleteTask(parkID, taskID string, now time.Time) State {
	parks, title, completed := store.CompleteTask(s.Parks, parkID, taskID)
	if !completed {
		return s
	}
	s.Parks = parks
	s.Ledger = s.Ledger.Award(s.PointsPerTask, fmt.Sprintf(completedActionTemplate, title), now)
	return s.notify(fmt.Sprintf(notificationTemplate, s.PointsPerTask))
}

// ClearNotification hides the banner raised with seq. A newer banner is
// left alone.
func (s State) ClearNotification(seq int) State {
	if seq == s.NotificationSeq {
		s.Notification = ""
	}
	return s
}

func (s State) notify(text string) State {
	s.NotificationSeq++
	s.Notification = text
	return s
}

// BeginGenerate marks task generation in flight. It reports false, and
// changes nothing, while a generation is running, when no park is
// selected, or when the observation is blank.
func (s State) BeginGenerate() (State, bool) {
	if s.Generating || strings.TrimSpace(s.Observation) == "" {
		return s, false
	}
	if _, ok := s.SelectedPark(); !ok {
		return s, false
	}
	s.Generating = true
	return s, true
}

// GenerateSettled appends suggested tasks to parkID. An empty result is
// "no suggestions": the observation is kept so it can be retried. The same
// holds when parkID left the collection while the call was running.
func (s State) GenerateSettled(parkID string, tasks []model.Task) State {
	s.Generating = false
	if len(tasks) == 0 {
		return s
	}
	if _, ok := store.FindPark(s.Parks, parkID); !ok {
		return s
	}
	s.Parks = store.AppendTasks(s.Parks, parkID, tasks)
	s.Observation = ""
	return s
}

// BeginSearch marks discovery in flight and clears the last search error.
// A text search with a blank query is refused, as is any search while one
// is running.
func (s State) BeginSearch(useLocation bool) (State, bool) {
	if s.Searching {
		return s, false
	}
	if !useLocation && strings.TrimSpace(s.SearchQuery) == "" {
		return s, false
	}
	s.Searching = true
	s.SearchError = ""
	return s, true
}

// SearchSettled applies a discovery result. err carries a geolocation
// failure; an empty result with no error means nothing was found. Either
// way the current parks stay in place.
func (s State) SearchSettled(parks []model.Park, err error) State {
	s.Searching = false
	switch {
	case errors.Is(err, geo.ErrPermissionDenied):
		s.SearchError = LocationDeniedMessage
	case err != nil:
		s.SearchError = LocationFailedMessage
	case len(parks) == 0:
		s.SearchError = NoParksFoundMessage
	default:
		s.Parks = store.ReplaceAll(parks)
		if _, ok := store.FindPark(s.Parks, s.SelectedParkID); !ok {
			s.SelectedParkID = ""
			if s.Screen == ScreenParkDetail {
				s.Screen = ScreenHome
			}
		}
	}
	return s
}

// BeginAdvice appends the user's question to the transcript and marks the
// request in flight. Blank questions, and questions asked while an answer
// is pending, are refused.
func (s State) BeginAdvice(question string) (State, bool) {
	if s.Advising || strings.TrimSpace(question) == "" {
		return s, false
	}
	s.Transcript = s.Transcript.Append(model.RoleUser, question)
	s.Advising = true
	return s, true
}

// AdviceSettled appends the assistant's reply.
func (s State) AdviceSettled(text string) State {
	s.Advising = false
	s.Transcript = s.Transcript.Append(model.RoleModel, text)
	return s
}

// Snapshot returns what should be persisted.
func (s State) Snapshot() store.Snapshot {
	return store.Snapshot{Parks: s.Parks, Ledger: s.Ledger.History()}
}
