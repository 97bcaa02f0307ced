package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/equipx/internal/session"
)

// StoredSession is a row of the sessions table.
type StoredSession struct {
	Profile   string
	Subject   string
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

// SessionRepository persists one bearer token per profile.
//
// A [SessionRepository] bound to a profile with [SessionRepository.ForProfile]
// implements [session.Store].
type SessionRepository struct {
	db      *sql.DB
	profile string
	now     func() time.Time
}

// NewSessionRepository creates a repository for the given profile (usually the API base URL).
func NewSessionRepository(db *sql.DB, profile string) *SessionRepository {
	return &SessionRepository{db: db, profile: profile, now: time.Now}
}

// ForProfile returns a copy of the repository bound to another profile.
func (r *SessionRepository) ForProfile(profile string) *SessionRepository {
	return &SessionRepository{db: r.db, profile: profile, now: r.now}
}

// Profile is the key this repository reads and writes.
func (r *SessionRepository) Profile() string { return r.profile }

// Load returns the stored token, or "" when the profile has none.
func (r *SessionRepository) Load(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, "SELECT token FROM sessions WHERE profile = ?", r.profile).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return token, nil
}

// Save stores token for the profile, replacing any previous one.
//
// The subject and expiry are copied from the token payload for [SessionRepository.List];
// a token that cannot be decoded is still stored.
func (r *SessionRepository) Save(ctx context.Context, token string) error {
	var (
		subject string
		expires sql.NullTime
	)
	if claims, err := session.Decode(token); err == nil {
		subject = claims.Subject
		if exp := claims.Expiry(); !exp.IsZero() {
			expires = sql.NullTime{Time: exp, Valid: true}
		}
	}

	now := r.now()
	query := `
		INSERT INTO sessions (profile, token, subject, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile) DO UPDATE SET
			token = excluded.token,
			subject = excluded.subject,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, r.profile, token, subject, expires, now, now); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the profile's token. Clearing an empty profile is not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE profile = ?", r.profile); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// List returns every stored session, most recently updated first.
func (r *SessionRepository) List(ctx context.Context) ([]StoredSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile, subject, expires_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC, profile
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []StoredSession
	for rows.Next() {
		var (
			s       StoredSession
			expires sql.NullTime
		)
		if err := rows.Scan(&s.Profile, &s.Subject, &expires, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if expires.Valid {
			t := expires.Time
			s.ExpiresAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ session.Store = (*SessionRepository)(nil)
