package extractor

import (
	"fmt"
	"time"
)

// DefaultReferenceZone is the zone ambiguous times are interpreted in.
const DefaultReferenceZone = "America/Los_Angeles"

const timestampLayout = "Monday, 2006-01-02 15:04:05 MST"

const systemPrompt = `You are a helpful assistant that helps users create calendar events.
If the user does not provide extra specific information about anything provided simply create the JSON structure.
Here is an example of how dateTime should be structured (always in %[1]s):
{"dateTime": "2015-05-28T09:00:00-07:00", "timeZone": "%[2]s"}`

const userPromptTemplate = "Below is a query to create a calendar event. The query will be specified within the triple backticks ```query```.\n" +
	"Here are some default values if the query does not provide them. The current day, date and time is: %[1]s.\n" +
	"If the query specifies next weekday or weekend, figure out the date and accordingly send the right start and end times.\n" +
	"If the query does not specify any given time, create a placeholder event in the description by adding [PLACEHOLDER] {description} and set it at 9am-10am on the given query day.\n" +
	"If the query has different time zones, i.e., military time (18:05 or 21:25) convert it to %[2]s before inserting the time.\n" +
	"If the query does not have a time but two dates, set the {start.date} and {end.date} properties and do not fill in the dateTime or timeZone properties.\n" +
	"If the query specifies all the event details, ignore the default values.\n\n" +
	"Query:```%[3]s```"

// currentTime formats now in loc the way the prompt expects it.
func currentTime(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(timestampLayout)
}

// zoneAbbrev returns the short name of loc at now, e.g. PST or PDT.
func zoneAbbrev(now time.Time, loc *time.Location) string {
	name, _ := now.In(loc).Zone()
	return name
}

func buildSystemPrompt(now time.Time, loc *time.Location) string {
	return fmt.Sprintf(systemPrompt, zoneAbbrev(now, loc), loc.String())
}

// BuildPrompt renders the user instruction for query.
func BuildPrompt(query string, now time.Time, loc *time.Location) string {
	return fmt.Sprintf(userPromptTemplate, currentTime(now, loc), zoneAbbrev(now, loc), query)
}
