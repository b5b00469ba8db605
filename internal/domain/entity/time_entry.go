package entity

import "time"

// DateLayout is the wire and storage format for entry dates. Dates are plain
// calendar days; there is no time-of-day or timezone component anywhere in
// the system.
const DateLayout = "2006-01-02"

// Valid increments for TimeSpent. The per-(user,date) total may never exceed
// MaxDailyTime.
const (
	HalfDay      = 0.5
	FullDay      = 1.0
	MaxDailyTime = 1.0
)

// TimeEntry is one logged block of work. Entries are immutable once created;
// there is no update or delete path.
//
// User and Project are populated only by the joined read operations
// (ListEntriesForUser joins Project, ListAllEntries joins both).
type TimeEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProjectID int64     `json:"projectId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	TimeSpent float64   `json:"timeSpent"`
	CreatedAt time.Time `json:"createdAt"`

	User    *User    `json:"user,omitempty"`
	Project *Project `json:"project,omitempty"`
}

// ValidTimeSpent reports whether v is one of the two allowed increments.
func ValidTimeSpent(v float64) bool { return v == HalfDay || v == FullDay }
