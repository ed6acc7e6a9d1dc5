package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	timed := func() *EventDateTime {
		return &EventDateTime{DateTime: "2024-11-21T09:00:00-08:00", TimeZone: "America/Los_Angeles"}
	}

	tests := []struct {
		name    string
		event   *Event
		wantErr string
	}{
		{
			name:  "timed event",
			event: &Event{Summary: "Standup", Start: timed(), End: timed()},
		},
		{
			name:  "all-day event",
			event: &Event{Summary: "Vacation", Start: &EventDateTime{Date: "2024-11-21"}, End: &EventDateTime{Date: "2024-11-26"}},
		},
		{
			name:    "nil event",
			wantErr: "event is nil",
		},
		{
			name:    "missing summary",
			event:   &Event{Start: timed(), End: timed()},
			wantErr: "summary is required",
		},
		{
			name:    "missing start",
			event:   &Event{Summary: "Standup", End: timed()},
			wantErr: "start is required",
		},
		{
			name:    "missing end",
			event:   &Event{Summary: "Standup", Start: timed()},
			wantErr: "end is required",
		},
		{
			name:    "both forms",
			event:   &Event{Summary: "x", Start: &EventDateTime{DateTime: "2024-11-21T09:00:00-08:00", TimeZone: "UTC", Date: "2024-11-21"}, End: timed()},
			wantErr: "start: dateTime and date are mutually exclusive",
		},
		{
			name:    "empty start",
			event:   &Event{Summary: "x", Start: &EventDateTime{}, End: timed()},
			wantErr: "start: one of dateTime or date is required",
		},
		{
			name:    "dateTime without zone",
			event:   &Event{Summary: "x", Start: timed(), End: &EventDateTime{DateTime: "2024-11-21T10:00:00"}},
			wantErr: "end: timeZone is required with dateTime",
		},
		{
			name:    "attendee without email",
			event:   &Event{Summary: "x", Start: timed(), End: timed(), Attendees: []Attendee{{Email: "a@example.com"}, {}}},
			wantErr: "attendees[1]: email is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEventValidateReportsEveryProblem(t *testing.T) {
	err := (&Event{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary is required")
	assert.Contains(t, err.Error(), "start is required")
	assert.Contains(t, err.Error(), "end is required")
}

func TestEventNullDateTimeTreatedAsAbsent(t *testing.T) {
	payload := `{"summary":"Trip","start":{"date":"2024-11-21","dateTime":null,"timeZone":null},"end":{"date":"2024-11-26"}}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))
	require.NoError(t, e.Validate())
	assert.True(t, e.Start.IsAllDay())
	assert.Empty(t, e.Start.DateTime)

	out, err := json.Marshal(e.Start)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-11-21"}`, string(out))
}
