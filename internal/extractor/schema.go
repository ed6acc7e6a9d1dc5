package extractor

import (
	"fmt"
	"nlcal/internal/models"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ToolName is the only function the model is allowed to call.
const ToolName = "create_calendar_event"

var eventDateTimeSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"dateTime": {
			Type:        jsonschema.String,
			Description: "RFC 3339 timestamp with offset, e.g. 2015-05-28T09:00:00-07:00. Omit for all-day events.",
		},
		"timeZone": {
			Type:        jsonschema.String,
			Description: "IANA time zone name, e.g. America/Los_Angeles. Required with dateTime, omitted otherwise.",
		},
		"date": {
			Type:        jsonschema.String,
			Description: "Date in yyyy-mm-dd form for all-day or multi-day events. Omit when dateTime is set.",
		},
	},
}

// eventSchema describes models.Event to the model. It is never mutated.
var eventSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"summary": {
			Type:        jsonschema.String,
			Description: "Title of the event",
		},
		"description": {
			Type:        jsonschema.String,
			Description: "Description of the event",
		},
		"start": withDescription(eventDateTimeSchema, "Start of the event"),
		"end":   withDescription(eventDateTimeSchema, "End of the event (exclusive date for all-day events)"),
		"attendees": {
			Type:        jsonschema.Array,
			Description: "People invited to the event",
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"email": {
						Type:        jsonschema.String,
						Description: "Email address of the attendee",
					},
				},
				Required: []string{"email"},
			},
		},
		"location": {
			Type:        jsonschema.String,
			Description: "Location of the event",
		},
	},
	Required: []string{"summary", "start", "end"},
}

func withDescription(d jsonschema.Definition, desc string) jsonschema.Definition {
	d.Description = desc
	return d
}

// eventTool is the single tool offered to the model.
var eventTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        ToolName,
		Description: fmt.Sprintf("Create a Google Calendar event (schema v%d).", models.SchemaVersion),
		Parameters:  eventSchema,
	},
}
