package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nlcal/internal/models"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultCalendarID addresses the authenticated user's main calendar.
const DefaultCalendarID = "primary"

// AuthenticationError reports that no usable credential could be obtained or kept.
type AuthenticationError struct {
	Msg string
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s: %v", e.Msg, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Stage names the pipeline step that failed.
func (e *AuthenticationError) Stage() string { return "authentication" }

// SubmissionError reports that the Calendar API did not create the event.
type SubmissionError struct {
	Msg string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %s: %v", e.Msg, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Stage names the pipeline step that failed.
func (e *SubmissionError) Stage() string { return "submission" }

// Config holds everything a CalendarClient needs.
type Config struct {
	// OAuth is nil when no client secret is available; a valid persisted token
	// is then still usable but cannot be refreshed or replaced.
	OAuth *oauth2.Config
	// OAuthErr explains why OAuth is nil.
	OAuthErr   error
	Store      TokenStore
	Consent    ConsentFlow
	CalendarID string
	Timeout    time.Duration
	// Endpoint overrides the Calendar API base URL.
	Endpoint string
}

// CalendarClient creates events in Google Calendar. It owns the OAuth token
// and is safe for concurrent use.
type CalendarClient struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClient creates a new Google Calendar client. No network or disk access
// happens until the first CreateEvent.
func NewClient(logger *slog.Logger, cfg Config) (*CalendarClient, error) {
	if cfg.Store == nil {
		return nil, errors.New("token store cannot be nil")
	}
	if cfg.OAuth == nil && cfg.OAuthErr == nil {
		cfg.OAuthErr = ErrNoClientSecret
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	return &CalendarClient{cfg: cfg, logger: logger}, nil
}

// CreateEvent inserts event and returns its htmlLink.
func (c *CalendarClient) CreateEvent(ctx context.Context, event *models.Event) (string, error) {
	token, err := c.credential(ctx)
	if err != nil {
		return "", err
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	service, err := c.service(ctx, token)
	if err != nil {
		return "", &SubmissionError{Msg: "failed to create calendar service", Err: err}
	}

	c.logger.Debug("Inserting event", "calendarID", c.cfg.CalendarID, "summary", event.Summary)
	created, err := service.Events.Insert(c.cfg.CalendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &SubmissionError{Msg: fmt.Sprintf("calendar API returned %d", apiErr.Code), Err: err}
		}
		return "", &SubmissionError{Msg: "failed to insert event", Err: err}
	}
	if created.HtmlLink == "" {
		return "", &SubmissionError{Msg: "created event has no link", Err: fmt.Errorf("event %q", created.Id)}
	}

	c.logger.Info("Successfully created event", "id", created.Id, "link", created.HtmlLink)
	return created.HtmlLink, nil
}

func (c *CalendarClient) service(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	// Static: refreshes go through credential so they are always persisted.
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	return calendar.NewService(ctx, opts...)
}

// credential returns a valid token, loading, refreshing or re-acquiring it as
// needed. A fresh token is persisted before it is returned.
func (c *CalendarClient) credential(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		tok, err := c.cfg.Store.Load()
		if err != nil {
			return nil, &AuthenticationError{Msg: "could not load persisted token", Err: err}
		}
		c.token = tok
	}

	if c.token != nil && c.token.Valid() {
		return c.token, nil
	}

	var fresh *oauth2.Token
	if c.token != nil && c.token.RefreshToken != "" {
		c.logger.Info("Token expired, refreshing")
		tok, err := c.refresh(ctx, c.token)
		if err != nil {
			return nil, &AuthenticationError{Msg: "error refreshing credentials", Err: err}
		}
		fresh = tok
	} else {
		c.logger.Info("No usable token, starting consent flow")
		tok, err := c.consent(ctx)
		if err != nil {
			return nil, &AuthenticationError{Msg: "error in consent flow", Err: err}
		}
		fresh = tok
	}

	c.token = fresh
	if err := c.cfg.Store.Save(fresh); err != nil {
		return nil, &AuthenticationError{Msg: "error saving credentials", Err: err}
	}
	return fresh, nil
}

func (c *CalendarClient) refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if c.cfg.OAuth == nil {
		return nil, c.cfg.OAuthErr
	}
	// Drop the access token so the source cannot hand back the stale one.
	expired := *token
	expired.AccessToken = ""
	return c.cfg.OAuth.TokenSource(ctx, &expired).Token()
}

func (c *CalendarClient) consent(ctx context.Context) (*oauth2.Token, error) {
	if c.cfg.OAuth == nil {
		return nil, c.cfg.OAuthErr
	}
	if c.cfg.Consent == nil {
		return nil, errors.New("interactive consent is not available")
	}
	return c.cfg.Consent.Run(ctx, c.cfg.OAuth)
}

// Authorize forces the consent flow and persists the result, replacing any
// existing token.
func (c *CalendarClient) Authorize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, err := c.consent(ctx)
	if err != nil {
		return &AuthenticationError{Msg: "error in consent flow", Err: err}
	}
	c.token = tok
	if err := c.cfg.Store.Save(tok); err != nil {
		return &AuthenticationError{Msg: "error saving credentials", Err: err}
	}
	return nil
}

// toGoogleEvent converts the internal Event model to the Calendar API resource.
func toGoogleEvent(e *models.Event) *calendar.Event {
	ge := &calendar.Event{
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       toGoogleDateTime(e.Start),
		End:         toGoogleDateTime(e.End),
	}
	for _, a := range e.Attendees {
		ge.Attendees = append(ge.Attendees, &calendar.EventAttendee{Email: a.Email})
	}
	return ge
}

func toGoogleDateTime(d *models.EventDateTime) *calendar.EventDateTime {
	if d == nil {
		return nil
	}
	return &calendar.EventDateTime{
		DateTime: d.DateTime,
		TimeZone: d.TimeZone,
		Date:     d.Date,
	}
}
