// Package ledger keeps the volunteer's point history. A Ledger is an
// immutable value: Award returns a new Ledger and leaves the receiver alone.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/nhle/community-roots/internal/model"
)

// PointsPerLevel is the width of one level band.
const PointsPerLevel = 100

// Ledger is the history of point-earning events, most recent first, plus
// the running total. Total always equals the sum of the entries' points.
type Ledger struct {
	total   int
	history []model.LedgerEntry
}

// New returns a ledger holding a single opening entry. A non-positive
// amount yields an empty ledger.
func New(amount int, label string, at time.Time) Ledger {
	if amount <= 0 {
		return Ledger{}
	}
	return Ledger{}.Award(amount, label, at)
}

// Restore rebuilds a ledger from a stored history (most recent first). The
// total is recomputed from the entries.
func Restore(history []model.LedgerEntry) Ledger {
	l := Ledger{history: make([]model.LedgerEntry, len(history))}
	copy(l.history, history)
	for _, e := range history {
		l.total += e.Points
	}
	return l
}

// Award prepends an entry and adds amount to the total in one step.
func (l Ledger) Award(amount int, label string, at time.Time) Ledger {
	entry := model.LedgerEntry{
		ID:     uuid.NewString(),
		Action: label,
		Points: amount,
		Date:   at,
	}
	history := make([]model.LedgerEntry, 0, len(l.history)+1)
	history = append(history, entry)
	history = append(history, l.history...)
	return Ledger{total: l.total + amount, history: history}
}

// Total returns the running point total.
func (l Ledger) Total() int { return l.total }

// History returns a copy of the entries, most recent first.
func (l Ledger) History() []model.LedgerEntry {
	out := make([]model.LedgerEntry, len(l.history))
	copy(out, l.history)
	return out
}

// Len returns the number of entries.
func (l Ledger) Len() int { return len(l.history) }

// Level returns floor(total / 100).
func (l Ledger) Level() int { return Level(l.total) }

// Progress returns the points earned inside the current level, 0..99.
func (l Ledger) Progress() int { return Progress(l.total) }

// Level derives the level for a point total. Negative totals floor toward
// negative infinity.
func Level(total int) int {
	q := total / PointsPerLevel
	if total%PointsPerLevel < 0 {
		q--
	}
	return q
}

// Progress derives the points within the current level for a total.
func Progress(total int) int {
	r := total % PointsPerLevel
	if r < 0 {
		r += PointsPerLevel
	}
	return r
}
