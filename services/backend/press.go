package backendsvc

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Article statuses; submissions move draft -> pending -> approved|rejected.
const (
	ArticleStatusDraft    = "draft"
	ArticleStatusPending  = "pending"
	ArticleStatusApproved = "approved"
	ArticleStatusRejected = "rejected"
)

type Article struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	CoverImageURL string    `json:"cover_image_url"`
	Status        string    `json:"status"`
	Feedback      string    `json:"feedback"` // reviewer feedback, set on rejection
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   string    `json:"author_email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewArticle contains information needed to submit an article for review.
type NewArticle struct {
	Title         string `json:"title" validate:"required,max=200"`
	Body          string `json:"body" validate:"required"`
	CoverImageURL string `json:"cover_image_url" validate:"omitempty,url"`
}

// ArticleReview is a reviewer's decision on a pending article.
type ArticleReview struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback" validate:"required_unless=Approve true,max=2000"`
}

// ListArticles returns the scope session's articles, optionally filtered by status.
// Listing non-approved articles requires press:review on the backend side;
// a 403 surfaces as ErrForbidden so callers can show an access-denied state
// instead of an empty list.
func (c *Client) ListArticles(ctx context.Context, sessionID, status string) ([]Article, error) {
	q := make(url.Values)
	if sessionID != "" {
		q.Set("sessionId", sessionID)
	}
	if status != "" {
		q.Set("status", status)
	}
	var articles []Article
	if err := c.get(ctx, "/api/v1/press/articles", q, &articles); err != nil {
		return nil, errors.Wrap(err, "listing articles")
	}
	return articles, nil
}

func (c *Client) GetArticle(ctx context.Context, id string) (Article, error) {
	var art Article
	if err := c.get(ctx, "/api/v1/press/articles/"+id, nil, &art); err != nil {
		return Article{}, errors.Wrap(err, fmt.Sprintf("fetching article %s", id))
	}
	return art, nil
}

// SubmitArticle submits a new article for review in the scope session.
func (c *Client) SubmitArticle(ctx context.Context, sessionID string, na NewArticle) (Article, error) {
	in := struct {
		NewArticle
		SessionID string `json:"session_id"`
	}{na, sessionID}

	var art Article
	if err := c.post(ctx, "/api/v1/press/articles", in, &art); err != nil {
		return Article{}, errors.Wrap(err, "submitting article")
	}
	return art, nil
}

// ReviewArticle records an approve/reject decision on a pending article.
// The backend re-checks press:review and rejects transitions from non-pending states.
func (c *Client) ReviewArticle(ctx context.Context, id string, review ArticleReview) (Article, error) {
	var art Article
	if err := c.post(ctx, "/api/v1/press/articles/"+id+"/review", review, &art); err != nil {
		return Article{}, errors.Wrap(err, fmt.Sprintf("reviewing article %s", id))
	}
	return art, nil
}
