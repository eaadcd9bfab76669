package session

import (
	"context"
	"time"
)

// Session represents one academic year window (e.g. "2024/2025").
// Sessions are created and ended by backend administrators; the portal only reads them.
// The backend guarantees at most one session is active at a time.
type Session struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"` // YYYY/YYYY
	IsActive        bool      `json:"is_active"`
	CurrentSemester int       `json:"current_semester"` // 1 or 2
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSession contains information needed to create a new academic session.
type NewSession struct {
	Name            string    `json:"name" validate:"required,sessionname"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	CurrentSemester int       `json:"current_semester" validate:"omitempty,oneof=1 2"`
	IsActive        bool      `json:"is_active"`
}

// UpdateSession defines what information may be provided to modify an existing
// session. Pointers mark fields that may be left out of the update.
type UpdateSession struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,sessionname"`
	CurrentSemester *int    `json:"current_semester,omitempty" validate:"omitempty,oneof=1 2"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// API is the slice of the remote backend this package reads sessions through.
type API interface {
	ListSessions(ctx context.Context) ([]Session, error)
	ActiveSession(ctx context.Context) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
}

// Store is a key-value preference store scoped to a user.
// Backends (cookie, database, in-memory) are swappable without touching the
// session-resolution logic.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}
