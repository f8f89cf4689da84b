// package services defines interfaces for the external calendar provider
//
// Google Calendar (REST v3)
package services

import (
	"context"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
)

// Calendar is the per-user capability for manipulating events on an
// external calendar. Implementations carry the user's credentials; callers
// never see tokens.
//
// Every method reports transport and auth failures wrapped in
// shared.ErrSyncFailed so orchestration code can log-and-continue without
// inspecting provider-specific errors.
type Calendar interface {
	// CreateEvent creates an all-day event spanning [start, end) and returns the provider's event id.
	CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error)

	// UpdateEvent fetches the event, overwrites its summary, description, and window, and resubmits it.
	UpdateEvent(ctx context.Context, eventID, summary, description string, start, end time.Time) error

	// DeleteEvent removes the event. Deleting an event the provider no
	// longer has is not an error.
	DeleteEvent(ctx context.Context, eventID string) error
}

// CalendarProvider hands out Calendar capabilities for linked users.
type CalendarProvider interface {
	// ForUser returns a Calendar bound to the user's stored tokens.
	// Fails with shared.ErrNotLinked when the user has no calendar linkage.
	ForUser(ctx context.Context, user *models.User) (Calendar, error)

	// AuthURL returns the provider's OAuth consent URL carrying state.
	AuthURL(state string) string

	// Name returns the provider name (e.g. "Google Calendar")
	Name() string
}
