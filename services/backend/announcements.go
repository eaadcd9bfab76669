package backendsvc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type Announcement struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	Pinned    bool      `json:"pinned"`
	Read      bool      `json:"read"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAnnouncement contains information needed to publish an announcement.
type NewAnnouncement struct {
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required"`
	Category string `json:"category" validate:"omitempty,oneof=general academic event payment urgent"`
	Pinned   bool   `json:"pinned"`
}

// ListAnnouncements returns the announcements of the scope session.
func (c *Client) ListAnnouncements(ctx context.Context, sessionID string, pinnedOnly bool) ([]Announcement, error) {
	q := make(url.Values)
	if sessionID != "" {
		q.Set("sessionId", sessionID)
	}
	if pinnedOnly {
		q.Set("pinned", strconv.FormatBool(true))
	}
	var anns []Announcement
	if err := c.get(ctx, "/api/v1/announcements", q, &anns); err != nil {
		return nil, errors.Wrap(err, "listing announcements")
	}
	return anns, nil
}

func (c *Client) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	var ann Announcement
	if err := c.get(ctx, "/api/v1/announcements/"+id, nil, &ann); err != nil {
		return Announcement{}, errors.Wrap(err, fmt.Sprintf("fetching announcement %s", id))
	}
	return ann, nil
}

// CreateAnnouncement publishes an announcement in the scope session.
// The backend re-checks announcement:create.
func (c *Client) CreateAnnouncement(ctx context.Context, sessionID string, na NewAnnouncement) (Announcement, error) {
	in := struct {
		NewAnnouncement
		SessionID string `json:"session_id"`
	}{na, sessionID}

	var ann Announcement
	if err := c.post(ctx, "/api/v1/announcements", in, &ann); err != nil {
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return ann, nil
}

// MarkAnnouncementRead records that the caller has read the announcement.
func (c *Client) MarkAnnouncementRead(ctx context.Context, id string) error {
	if err := c.post(ctx, "/api/v1/announcements/"+id+"/read", nil, nil); err != nil {
		return errors.Wrap(err, fmt.Sprintf("marking announcement %s read", id))
	}
	return nil
}
