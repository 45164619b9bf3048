package app

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
)

// Advisor is the assistant backend. Every method degrades to a fallback
// reply or an empty result instead of failing.
type Advisor interface {
	Advice(ctx context.Context, question string) string
	SuggestTasks(ctx context.Context, observation string, now time.Time) []model.Task
	DiscoverParks(ctx context.Context, query string, near *model.Coordinates, now time.Time) []model.Park
}

// suggestionsMsg carries generated tasks for a park.
type suggestionsMsg struct {
	parkID string
	tasks  []model.Task
}

// discoveryMsg carries a park search result or the geolocation failure
// that prevented it.
type discoveryMsg struct {
	parks []model.Park
	err   error
}

// adviceMsg carries the assistant's reply.
type adviceMsg struct {
	text string
}

// clearNotificationMsg fires when the banner raised with seq expires.
type clearNotificationMsg struct {
	seq int
}

// snapshotFailedMsg reports a failed snapshot write.
type snapshotFailedMsg struct {
	err error
}

// suggestTasks asks the advisor for tasks matching an observation.
func (m Model) suggestTasks(parkID, observation string) tea.Cmd {
	ctx, adv, now := m.ctx, m.deps.Advisor, m.deps.Now
	return func() tea.Msg {
		return suggestionsMsg{
			parkID: parkID,
			tasks:  adv.SuggestTasks(ctx, observation, now()),
		}
	}
}

// discoverParks looks up parks near the query, or near the user's position
// when useLocation is set.
func (m Model) discoverParks(query string, useLocation bool) tea.Cmd {
	ctx, adv, now, log := m.ctx, m.deps.Advisor, m.deps.Now, m.deps.Log
	locator := m.deps.Locator
	return func() tea.Msg {
		var near *model.Coordinates
		if useLocation {
			pos, err := locator.Locate(ctx)
			if err != nil {
				log.Warn("geolocation failed", zap.Error(err))
				return discoveryMsg{err: err}
			}
			near = &pos
		}
		return discoveryMsg{parks: adv.DiscoverParks(ctx, query, near, now())}
	}
}

// askAdvice sends a question to the advisor.
func (m Model) askAdvice(question string) tea.Cmd {
	ctx, adv := m.ctx, m.deps.Advisor
	return func() tea.Msg {
		return adviceMsg{text: adv.Advice(ctx, question)}
	}
}

// expireNotification clears the banner raised with seq after the
// configured delay.
func (m Model) expireNotification(seq int) tea.Cmd {
	return tea.Tick(m.deps.NotificationTTL, func(time.Time) tea.Msg {
		return clearNotificationMsg{seq: seq}
	})
}

// persist writes the current snapshot when a store is configured.
func (m Model) persist() tea.Cmd {
	if m.writer == nil {
		return nil
	}
	return m.writer.write(m.ctx, m.state.Snapshot())
}

// Flush writes the current snapshot synchronously. Call it after the
// program exits and before closing the snapshot store.
func (m Model) Flush(ctx context.Context) error {
	if m.writer == nil {
		return nil
	}
	return m.writer.flush(ctx, m.state.Snapshot())
}

// snapshotWriter serializes snapshot writes. Writes run off the event
// loop, so an older snapshot that loses the race for the lock is skipped
// rather than overwriting a newer one.
type snapshotWriter struct {
	store store.SnapshotStore

	// issued is only touched on the event loop.
	issued int

	mu      sync.Mutex
	written int
}

func newSnapshotWriter(s store.SnapshotStore) *snapshotWriter {
	if s == nil {
		return nil
	}
	return &snapshotWriter{store: s}
}

func (w *snapshotWriter) write(ctx context.Context, snap store.Snapshot) tea.Cmd {
	w.issued++
	version := w.issued
	return func() tea.Msg {
		if err := w.save(ctx, version, snap); err != nil {
			return snapshotFailedMsg{err: err}
		}
		return nil
	}
}

// flush saves snap on the calling goroutine. Writes still queued behind it
// are skipped, so the store can be closed once it returns.
func (w *snapshotWriter) flush(ctx context.Context, snap store.Snapshot) error {
	w.issued++
	return w.save(ctx, w.issued, snap)
}

func (w *snapshotWriter) save(ctx context.Context, version int, snap store.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if version < w.written {
		return nil
	}
	if err := w.store.Save(ctx, snap); err != nil {
		return err
	}
	w.written = version
	return nil
}
