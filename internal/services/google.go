// Google Calendar implementation of [Calendar]
//
// Event payloads based on https://developers.google.com/calendar/api/v3/reference/events
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	googleBaseURL  = "https://www.googleapis.com/calendar/v3"

	// calendarScope grants read/write access to the user's calendars.
	calendarScope = "https://www.googleapis.com/auth/calendar"
)

// eventDate is the date-only form Google uses for all-day events.
type eventDate struct {
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// googleEvent mirrors the subset of the Events resource this service touches.
type googleEvent struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	Start       eventDate `json:"start,omitempty"`
	End         eventDate `json:"end,omitempty"`
}

// GoogleCalendarService implements [CalendarProvider] for Google Calendar.
// Uses [oauth2] for the authorization code flow and token refresh.
type GoogleCalendarService struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGoogleCalendarService creates a new Google Calendar provider with the given OAuth2 credentials.
func NewGoogleCalendarService(credentials map[string]string) (*GoogleCalendarService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{calendarScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}

	return &GoogleCalendarService{config: config}, nil
}

func (s *GoogleCalendarService) Name() string {
	return "Google Calendar"
}

// AuthURL returns the OAuth2 authorization URL for user consent.
// Offline access is requested so a refresh token is issued.
func (s *GoogleCalendarService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens.
func (s *GoogleCalendarService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// SetHTTPClient overrides the HTTP client used for API calls. Tests use
// this to inject a mock transport; when set, token refresh is bypassed.
func (s *GoogleCalendarService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// ForUser returns a [Calendar] bound to the user's stored tokens.
func (s *GoogleCalendarService) ForUser(ctx context.Context, user *models.User) (Calendar, error) {
	if user == nil || !user.CalendarLinked() {
		return nil, shared.ErrNotLinked
	}

	token := &oauth2.Token{
		AccessToken:  user.AccessToken(),
		RefreshToken: user.RefreshToken(),
	}
	if expiry := user.TokenExpiry(); expiry != nil {
		token.Expiry = *expiry
	}

	client := s.httpClient
	if client == nil {
		client = s.config.Client(ctx, token)
	}

	return &googleCalendarClient{httpClient: client}, nil
}

// googleCalendarClient implements [Calendar] against the primary calendar
// of one authenticated user.
type googleCalendarClient struct {
	httpClient *http.Client
}

// CreateEvent inserts an all-day event and returns its id.
func (c *googleCalendarClient) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	event := newAllDayEvent(summary, description, start, end)

	var created googleEvent
	if err := c.doRequest(ctx, http.MethodPost, "/calendars/primary/events", event, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: provider returned no event id", shared.ErrSyncFailed)
	}

	return created.ID, nil
}

// UpdateEvent fetches the existing event, rewrites its fields, and resubmits it.
func (c *googleCalendarClient) UpdateEvent(ctx context.Context, eventID, summary, description string, start, end time.Time) error {
	path := "/calendars/primary/events/" + url.PathEscape(eventID)

	var existing googleEvent
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &existing); err != nil {
		return err
	}

	updated := newAllDayEvent(summary, description, start, end)
	updated.ID = existing.ID
	updated.Status = existing.Status

	return c.doRequest(ctx, http.MethodPut, path, updated, nil)
}

// DeleteEvent removes the event, treating an already-missing event as a
// successful delete so unlink stays idempotent.
func (c *googleCalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	path := "/calendars/primary/events/" + url.PathEscape(eventID)

	err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && isGone(err) {
		return nil
	}
	return err
}

// statusError carries the HTTP status of a failed calendar call.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("google calendar API error: status %d", e.status)
}

func isGone(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.status == http.StatusNotFound || se.status == http.StatusGone
}

// doRequest performs an authenticated HTTP request against the Calendar API.
func (c *googleCalendarClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := googleBaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", shared.ErrSyncFailed, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrSyncFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrSyncFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %w", shared.ErrSyncFailed, &statusError{status: resp.StatusCode})
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrSyncFailed, err)
		}
	}

	return nil
}

// newAllDayEvent builds the wire form of an all-day event spanning
// [start, end) in the server's local zone.
func newAllDayEvent(summary, description string, start, end time.Time) googleEvent {
	zone := time.Local.String()
	return googleEvent{
		Summary:     summary,
		Description: description,
		Start:       eventDate{Date: start.Format(models.DueDateLayout), TimeZone: zone},
		End:         eventDate{Date: end.Format(models.DueDateLayout), TimeZone: zone},
	}
}
