package model

import "time"

// LedgerEntry records one point-earning event.
type LedgerEntry struct {
	ID     string    `json:"id" db:"id"`
	Action string    `json:"action" db:"action"`
	Points int       `json:"points" db:"points"`
	Date   time.Time `json:"date" db:"date"`
}
