package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/session"
)

// PrefRepository persists per-user portal preferences (server-side profile variant
// of the preference store).
type PrefRepository struct {
	db *sqlx.DB
}

func NewPrefRepository(db *sqlx.DB) *PrefRepository {
	return &PrefRepository{db: db}
}

// ForUser returns a session.Store scoped to the given user.
func (repo *PrefRepository) ForUser(userID string) session.Store {
	return &userPrefStore{db: repo.db, userID: userID}
}

type userPrefStore struct {
	db     *sqlx.DB
	userID string
}

var _ session.Store = (*userPrefStore)(nil)

func (s *userPrefStore) Get(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM user_prefs WHERE user_id = $1 AND key = $2`, s.userID, key)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *userPrefStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_prefs (user_id, key, value, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.userID, key, value)
	if err != nil {
		return errors.Wrap(err, "upserting user pref")
	}
	return nil
}

// DeleteAll removes every stored preference for the user; used by the admin CLI.
func (repo *PrefRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM user_prefs WHERE user_id = $1`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting user prefs")
	}
	n, err := res.RowsAffected()
	if err != nil && err != sql.ErrNoRows {
		return 0, errors.Wrap(err, "counting deleted prefs")
	}
	return n, nil
}
