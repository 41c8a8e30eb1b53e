package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// PrefsStore is the SQL credit ledger over the user_prefs table.
type PrefsStore struct {
	d *DB
}

func NewPrefsStore(d *DB) *PrefsStore {
	return &PrefsStore{d: d}
}

// Credits returns the user's balance. Unknown users and NULL balances are 0.
func (s *PrefsStore) Credits(ctx context.Context, userID string) (int, error) {
	var credits sql.NullInt64
	err := s.d.db.QueryRowContext(ctx, s.d.rebind(`SELECT credits FROM user_prefs WHERE user_id = ?`), userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query credits: %w", err)
	}
	if !credits.Valid || credits.Int64 < 0 {
		return 0, nil
	}
	return int(credits.Int64), nil
}

// Decrement atomically removes one credit, never going below zero, and
// returns the new balance.
func (s *PrefsStore) Decrement(ctx context.Context, userID string) (int, error) {
	var remaining int64
	err := s.d.db.QueryRowContext(ctx, s.d.rebind(
		`UPDATE user_prefs SET credits = credits - 1, updated_at = ?
		 WHERE user_id = ? AND credits > 0
		 RETURNING credits`),
		time.Now().UnixMilli(), userID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return s.Credits(ctx, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("decrement credits: %w", err)
	}
	return int(remaining), nil
}

// Prefs returns the stored prefs. Unknown users get the zero value.
func (s *PrefsStore) Prefs(ctx context.Context, userID string) (model.Prefs, error) {
	var (
		plan           sql.NullString
		credits, limit sql.NullInt64
	)
	err := s.d.db.QueryRowContext(ctx, s.d.rebind(
		`SELECT plan, credits, limit_credits FROM user_prefs WHERE user_id = ?`), userID).
		Scan(&plan, &credits, &limit)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prefs{}, nil
	}
	if err != nil {
		return model.Prefs{}, fmt.Errorf("query prefs: %w", err)
	}
	return model.Prefs{
		Plan:    model.Plan(plan.String),
		Credits: int(credits.Int64),
		Limit:   int(limit.Int64),
	}, nil
}

// MergePrefs writes defaults under whatever the user already has: existing
// non-null columns are kept.
func (s *PrefsStore) MergePrefs(ctx context.Context, userID string, defaults model.Prefs) error {
	now := time.Now().UnixMilli()
	_, err := s.d.db.ExecContext(ctx, s.d.rebind(
		`INSERT INTO user_prefs (user_id, plan, credits, limit_credits, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   plan = COALESCE(user_prefs.plan, excluded.plan),
		   credits = COALESCE(user_prefs.credits, excluded.credits),
		   limit_credits = COALESCE(user_prefs.limit_credits, excluded.limit_credits),
		   updated_at = excluded.updated_at`),
		userID, nullString(string(defaults.Plan)), defaults.Credits, nullInt(defaults.Limit), now, now)
	if err != nil {
		return fmt.Errorf("merge prefs: %w", err)
	}
	return nil
}

// SetCredits overwrites both the balance and the limit.
func (s *PrefsStore) SetCredits(ctx context.Context, userID string, credits, limit int) error {
	now := time.Now().UnixMilli()
	_, err := s.d.db.ExecContext(ctx, s.d.rebind(
		`INSERT INTO user_prefs (user_id, credits, limit_credits, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   credits = excluded.credits,
		   limit_credits = excluded.limit_credits,
		   updated_at = excluded.updated_at`),
		userID, credits, limit, now, now)
	if err != nil {
		return fmt.Errorf("set credits: %w", err)
	}
	return nil
}

// SetPlan changes the user's plan, creating the row if needed.
func (s *PrefsStore) SetPlan(ctx context.Context, userID string, plan model.Plan) error {
	now := time.Now().UnixMilli()
	_, err := s.d.db.ExecContext(ctx, s.d.rebind(
		`INSERT INTO user_prefs (user_id, plan, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET plan = excluded.plan, updated_at = excluded.updated_at`),
		userID, string(plan), now, now)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

// Users lists every user with prefs, ordered by id.
func (s *PrefsStore) Users(ctx context.Context) ([]model.User, error) {
	rows, err := s.d.db.QueryContext(ctx,
		`SELECT user_id, plan, credits, limit_credits, updated_at FROM user_prefs ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var (
			u              model.User
			plan           sql.NullString
			credits, limit sql.NullInt64
			updated        int64
		)
		if err := rows.Scan(&u.ID, &plan, &credits, &limit, &updated); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Prefs = model.Prefs{Plan: model.Plan(plan.String), Credits: int(credits.Int64), Limit: int(limit.Int64)}
		u.UpdatedAt = time.UnixMilli(updated).UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
