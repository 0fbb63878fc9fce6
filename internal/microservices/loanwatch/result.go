package loanwatch

import "time"

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// PassResult summarizes one scan pass. Err is set when the pass aborted.
type PassResult struct {
	Trigger       Trigger
	StartedAt     time.Time
	Duration      time.Duration
	Candidates    int
	Reminders     int
	Overdues      int
	Skipped       int // invalid records
	Conflicts     int // lost a conditional write to another pass
	Notifications int
	Err           error
}

func (r PassResult) Outcome() string {
	if r.Err != nil {
		return "failure"
	}
	return "success"
}

// HistoryEntry is the serialized form of a PassResult.
type HistoryEntry struct {
	Trigger       Trigger   `json:"trigger"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    int64     `json:"duration_ms"`
	Outcome       string    `json:"outcome"`
	Candidates    int       `json:"candidates"`
	Reminders     int       `json:"reminders"`
	Overdues      int       `json:"overdues"`
	Skipped       int       `json:"skipped"`
	Conflicts     int       `json:"conflicts"`
	Notifications int       `json:"notifications"`
	Error         string    `json:"error,omitempty"`
}

func (r PassResult) Entry() HistoryEntry {
	e := HistoryEntry{
		Trigger:       r.Trigger,
		StartedAt:     r.StartedAt,
		DurationMS:    r.Duration.Milliseconds(),
		Outcome:       r.Outcome(),
		Candidates:    r.Candidates,
		Reminders:     r.Reminders,
		Overdues:      r.Overdues,
		Skipped:       r.Skipped,
		Conflicts:     r.Conflicts,
		Notifications: r.Notifications,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}
