package ics

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"nlcal/internal/models"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//nlcal//EN"

// Encode writes event as a single-event VCALENDAR. link, when set, becomes the
// event URL.
func Encode(w io.Writer, event *models.Event, link string) error {
	vevent, err := toICal(event, link, time.Now().UTC())
	if err != nil {
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, vevent)

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// WriteFile encodes event into path, replacing any existing file.
func WriteFile(path string, event *models.Event, link string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create ics file: %w", err)
	}
	if err := Encode(f, event, link); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// toICal converts an Event to a VEVENT component.
func toICal(event *models.Event, link string, stamp time.Time) (*ical.Component, error) {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uuid.NewString())
	ve.Props.SetText(ical.PropSummary, event.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	start, err := dateProp(ical.PropDateTimeStart, event.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	ve.Props.Set(start)

	end, err := dateProp(ical.PropDateTimeEnd, event.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	ve.Props.Set(end)

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetValueType(ical.ValueCalendarAddress)
		p.Value = "mailto:" + attendee.Email
		ve.Props.Add(p)
	}
	if link != "" {
		u, err := url.Parse(link)
		if err != nil {
			return nil, fmt.Errorf("invalid event link: %w", err)
		}
		p := ical.NewProp(ical.PropURL)
		p.SetURI(u)
		ve.Props.Set(p)
	}
	return ve, nil
}

// dateProp renders d as a DATE value for all-day events, or a UTC DATE-TIME
// otherwise.
func dateProp(name string, d *models.EventDateTime) (*ical.Prop, error) {
	if d == nil {
		return nil, errors.New("missing")
	}
	p := ical.NewProp(name)

	if d.IsAllDay() {
		t, err := time.Parse(time.DateOnly, d.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d.Date, err)
		}
		p.SetDate(t)
		return p, nil
	}

	t, err := time.Parse(time.RFC3339, d.DateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid dateTime %q: %w", d.DateTime, err)
	}
	// UTC form: a TZID would need a matching VTIMEZONE (RFC 5545 3.2.19).
	p.SetDateTime(t.UTC())
	return p, nil
}
