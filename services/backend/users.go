package backendsvc

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/auth"
)

// Me returns the caller's identity record as the backend sees it.
func (c *Client) Me(ctx context.Context) (auth.Identity, error) {
	var usr auth.Identity
	if err := c.get(ctx, "/api/users/me", nil, &usr); err != nil {
		return auth.Identity{}, errors.Wrap(err, "fetching identity")
	}
	return usr, nil
}

// Permissions returns the caller's permission set in the given session.
// Admins hold the full registry; everyone else gets the union of their
// session-scoped role assignments.
func (c *Client) Permissions(ctx context.Context, sessionID string) (auth.PermissionSet, error) {
	q := make(url.Values)
	if sessionID != "" {
		q.Set("sessionId", sessionID)
	}
	var perms []string
	if err := c.get(ctx, "/api/users/me/permissions", q, &perms); err != nil {
		return nil, errors.Wrap(err, "fetching permissions")
	}
	return auth.NewPermissionSet(perms...), nil
}
