package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	loc, err := time.LoadLocation(DefaultReferenceZone)
	require.NoError(t, err)

	summer := time.Date(2024, time.July, 4, 20, 0, 0, 0, time.UTC)
	prompt := BuildPrompt("coffee with dana at 18:05", summer, loc)

	assert.Contains(t, prompt, "The current day, date and time is: Thursday, 2024-07-04 13:00:00 PDT.")
	assert.Contains(t, prompt, "convert it to PDT")
	assert.Contains(t, prompt, "[PLACEHOLDER]")
	assert.Contains(t, prompt, "9am-10am")
	assert.Contains(t, prompt, "{start.date} and {end.date}")
	assert.Contains(t, prompt, "Query:```coffee with dana at 18:05```")
}

func TestSystemPromptUsesReferenceZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	prompt := buildSystemPrompt(time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC), loc)
	assert.Contains(t, prompt, "always in EST")
	assert.Contains(t, prompt, `"timeZone": "America/New_York"`)
}

func TestEventSchemaRequiredFields(t *testing.T) {
	assert.ElementsMatch(t, []string{"summary", "start", "end"}, eventSchema.Required)
	assert.Contains(t, eventSchema.Properties, "attendees")
	assert.Contains(t, eventSchema.Properties["start"].Properties, "dateTime")
	assert.Contains(t, eventSchema.Properties["end"].Properties, "date")
	assert.Equal(t, "Start of the event", eventSchema.Properties["start"].Description)
	assert.Empty(t, eventDateTimeSchema.Description)
}
