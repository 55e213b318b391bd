package amqp

import (
	"encoding/json"
	"time"

	"timesheets/internal/core"
)

// TimesheetEventMessage announces that a timesheet was exported or pruned.
// Consumers fetch the PDF through FileURL; nothing else is embedded.
type TimesheetEventMessage struct {
	RunID     string    `json:"run_id"`
	Project   string    `json:"project"`
	Person    string    `json:"person"`
	Year      int       `json:"year"`
	Sheet     string    `json:"sheet"`
	Action    string    `json:"action"`
	TotalDays string    `json:"total_days,omitempty"`
	FileID    string    `json:"file_id,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTimesheetEventMessage builds the message for ev. A zero ev.At is
// replaced by the current time.
func NewTimesheetEventMessage(ev core.TimesheetEvent) *TimesheetEventMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &TimesheetEventMessage{
		RunID:     ev.RunID,
		Project:   ev.Project,
		Person:    ev.Person,
		Year:      ev.Year,
		Sheet:     ev.SheetName,
		Action:    string(ev.Action),
		TotalDays: ev.TotalDays,
		FileID:    ev.FileID,
		FileName:  ev.FileName,
		FileURL:   ev.FileURL,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TimesheetEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TimesheetEventMessageFromJSON creates a message from JSON bytes
func TimesheetEventMessageFromJSON(data []byte) (*TimesheetEventMessage, error) {
	var msg TimesheetEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
