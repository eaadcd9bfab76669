package backendsvc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type Event struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Venue           string    `json:"venue"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Capacity        int       `json:"capacity"` // 0 = unlimited
	RegisteredCount int       `json:"registered_count"`
	Registered      bool      `json:"registered"` // whether the caller is registered
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEvent contains information needed to create an event.
type NewEvent struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	Venue       string    `json:"venue" validate:"required,max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Capacity    int       `json:"capacity" validate:"omitempty,min=0"`
}

// ListEvents returns the events of the scope session.
func (c *Client) ListEvents(ctx context.Context, sessionID string, upcomingOnly bool) ([]Event, error) {
	q := make(url.Values)
	if sessionID != "" {
		q.Set("sessionId", sessionID)
	}
	if upcomingOnly {
		q.Set("upcoming", strconv.FormatBool(true))
	}
	var events []Event
	if err := c.get(ctx, "/api/events", q, &events); err != nil {
		return nil, errors.Wrap(err, "listing events")
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	var evt Event
	if err := c.get(ctx, "/api/events/"+id, nil, &evt); err != nil {
		return Event{}, errors.Wrap(err, fmt.Sprintf("fetching event %s", id))
	}
	return evt, nil
}

// CreateEvent creates an event in the scope session. The backend re-checks event:create.
func (c *Client) CreateEvent(ctx context.Context, sessionID string, ne NewEvent) (Event, error) {
	in := struct {
		NewEvent
		SessionID string `json:"session_id"`
	}{ne, sessionID}

	var evt Event
	if err := c.post(ctx, "/api/events", in, &evt); err != nil {
		return Event{}, errors.Wrap(err, "creating event")
	}
	return evt, nil
}

// DeleteEvent removes an event. The backend re-checks event:delete.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if err := c.del(ctx, "/api/events/"+id); err != nil {
		return errors.Wrap(err, fmt.Sprintf("deleting event %s", id))
	}
	return nil
}

// RegisterForEvent registers the caller for the event.
func (c *Client) RegisterForEvent(ctx context.Context, id string) error {
	if err := c.post(ctx, "/api/events/"+id+"/register", nil, nil); err != nil {
		return errors.Wrap(err, fmt.Sprintf("registering for event %s", id))
	}
	return nil
}

// UnregisterFromEvent cancels the caller's registration.
func (c *Client) UnregisterFromEvent(ctx context.Context, id string) error {
	if err := c.del(ctx, "/api/events/"+id+"/register"); err != nil {
		return errors.Wrap(err, fmt.Sprintf("unregistering from event %s", id))
	}
	return nil
}
