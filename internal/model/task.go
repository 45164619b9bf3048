package model

import "strings"

// TaskStatus is the lifecycle state of a park task.
type TaskStatus string

// Task status values. IN_PROGRESS is reserved; nothing moves a task into it yet.
const (
	StatusOpen       TaskStatus = "OPEN"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// IsCompleted reports whether the status is terminal.
func (s TaskStatus) IsCompleted() bool { return s == StatusCompleted }

// Urgency is the priority tier of a task.
type Urgency string

// Urgency levels.
const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// DefaultUrgency is used whenever an urgency is missing or unrecognized.
const DefaultUrgency = UrgencyMedium

// ParseUrgency maps a raw value onto one of the three urgency literals.
// Anything that is not exactly Low, Medium or High (after trimming
// surrounding whitespace) becomes DefaultUrgency.
func ParseUrgency(raw string) Urgency {
	switch u := Urgency(strings.TrimSpace(raw)); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return u
	default:
		return DefaultUrgency
	}
}

// DateLayout is the calendar date format used for Task.Date.
const DateLayout = "2006-01-02"

// Task is a discrete maintenance action on a park.
type Task struct {
	// ID is unique within the parent park.
	ID string `json:"id" yaml:"id" db:"id"`

	Title       string `json:"title" yaml:"title" db:"title"`
	Description string `json:"description" yaml:"description" db:"description"`

	// Status only moves forward to StatusCompleted.
	Status TaskStatus `json:"status" yaml:"status" db:"status"`

	// Volunteers holds display names in sign-up order, without duplicates.
	Volunteers []string `json:"volunteers" yaml:"volunteers" db:"-"`

	// Date is a calendar date (DateLayout): creation or suggested date.
	Date string `json:"date" yaml:"date" db:"date"`

	Urgency Urgency `json:"urgency" yaml:"urgency" db:"urgency"`
}

// HasVolunteer reports whether name is signed up for the task.
func (t Task) HasVolunteer(name string) bool {
	for _, v := range t.Volunteers {
		if v == name {
			return true
		}
	}
	return false
}

// IsCompleted reports whether the task has been completed.
func (t Task) IsCompleted() bool { return t.Status.IsCompleted() }
