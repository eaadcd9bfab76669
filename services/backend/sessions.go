package backendsvc

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/session"
)

var _ session.API = (*Client)(nil)

// ListSessions returns all academic sessions, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]session.Session, error) {
	var sessions []session.Session
	if err := c.get(ctx, "/sessions", nil, &sessions); err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}
	return sessions, nil
}

// ActiveSession returns the backend's currently active session.
func (c *Client) ActiveSession(ctx context.Context) (session.Session, error) {
	var sess session.Session
	if err := c.get(ctx, "/sessions/active", nil, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "fetching active session")
	}
	return sess, nil
}

// GetSession returns one session by id.
func (c *Client) GetSession(ctx context.Context, id string) (session.Session, error) {
	var sess session.Session
	if err := c.get(ctx, "/sessions/"+id, nil, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, fmt.Sprintf("fetching session %s", id))
	}
	return sess, nil
}

// CreateSession creates a new academic session. The backend deactivates all
// other sessions if the new one is marked active.
func (c *Client) CreateSession(ctx context.Context, ns session.NewSession) (session.Session, error) {
	var sess session.Session
	if err := c.post(ctx, "/sessions", ns, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// UpdateSession partially updates a session (semester rollover, activation).
func (c *Client) UpdateSession(ctx context.Context, id string, us session.UpdateSession) (session.Session, error) {
	var sess session.Session
	if err := c.patch(ctx, "/sessions/"+id, us, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, fmt.Sprintf("updating session %s", id))
	}
	return sess, nil
}
