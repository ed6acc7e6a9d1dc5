package models

import (
	"errors"
	"fmt"
)

// SchemaVersion identifies the shape of Event shared with the language model.
// Bump it whenever a field is added, removed or changes meaning.
const SchemaVersion = 1

// Event represents a calendar event extracted from a scheduling request.
// Field names and JSON tags follow the Google Calendar event resource so the
// model's payload can be decoded without translation.
type Event struct {
	Summary     string         `json:"summary"`               // Title of the event
	Description string         `json:"description,omitempty"` // Free-form notes, may start with [PLACEHOLDER]
	Start       *EventDateTime `json:"start"`                 // When the event begins
	End         *EventDateTime `json:"end"`                   // When the event ends (exclusive for all-day events)
	Attendees   []Attendee     `json:"attendees,omitempty"`   // Invitees in the order the model listed them
	Location    string         `json:"location,omitempty"`    // Where the event takes place
}

// EventDateTime holds either a timed instant (DateTime with its TimeZone) or a
// plain Date for all-day and multi-day events. Never both.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"` // RFC 3339 timestamp, e.g. 2015-05-28T09:00:00-07:00
	TimeZone string `json:"timeZone,omitempty"` // IANA zone name paired with DateTime
	Date     string `json:"date,omitempty"`     // yyyy-mm-dd
}

// Attendee is a single invitee.
type Attendee struct {
	Email string `json:"email"`
}

// IsAllDay reports whether the value uses the date-only form.
func (d *EventDateTime) IsAllDay() bool {
	return d != nil && d.Date != ""
}

// Validate checks the event against the schema invariants.
func (e *Event) Validate() error {
	if e == nil {
		return errors.New("event is nil")
	}
	var errs []error
	if e.Summary == "" {
		errs = append(errs, errors.New("summary is required"))
	}
	if err := e.Start.validate("start"); err != nil {
		errs = append(errs, err)
	}
	if err := e.End.validate("end"); err != nil {
		errs = append(errs, err)
	}
	for i, a := range e.Attendees {
		if a.Email == "" {
			errs = append(errs, fmt.Errorf("attendees[%d]: email is required", i))
		}
	}
	return errors.Join(errs...)
}

func (d *EventDateTime) validate(field string) error {
	switch {
	case d == nil:
		return fmt.Errorf("%s is required", field)
	case d.DateTime != "" && d.Date != "":
		return fmt.Errorf("%s: dateTime and date are mutually exclusive", field)
	case d.DateTime == "" && d.Date == "":
		return fmt.Errorf("%s: one of dateTime or date is required", field)
	case d.DateTime != "" && d.TimeZone == "":
		return fmt.Errorf("%s: timeZone is required with dateTime", field)
	}
	return nil
}
