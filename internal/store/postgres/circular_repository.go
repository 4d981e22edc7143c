// Copyright 2026 The Schoolplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/schoolplane/schoolplane/internal/circular"
	"github.com/schoolplane/schoolplane/internal/platform"
)

// CircularRepository implements circular.Repository
type CircularRepository struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewCircularRepository creates a new circular repository
func NewCircularRepository(db *DB) *CircularRepository {
	return &CircularRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type circularRow struct {
	ID        string     `db:"id"`
	SchoolID  string     `db:"school_id"`
	Title     string     `db:"title"`
	Body      string     `db:"body"`
	CreatedBy string     `db:"created_by"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt *time.Time `db:"expires_at"`
}

func (row *circularRow) toDomain() *circular.Circular {
	return &circular.Circular{
		ID:        row.ID,
		SchoolID:  row.SchoolID,
		Title:     row.Title,
		Body:      row.Body,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
}

// Create inserts a circular and fans it out to the school's active members
// in one transaction, so a circular is never visible without recipients.
func (r *CircularRepository) Create(ctx context.Context, c *circular.Circular) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO circulars (id, school_id, title, body, created_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		c.ID, c.SchoolID, c.Title, c.Body, c.CreatedBy, c.CreatedAt, c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create circular: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO circular_recipients (circular_id, user_id)
		SELECT $1, user_id FROM school_memberships
		WHERE school_id = $2 AND is_active
	`, c.ID, c.SchoolID)
	if err != nil {
		return fmt.Errorf("failed to fan out circular: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit circular: %w", err)
	}
	return nil
}

// GetByID retrieves a circular by ID
func (r *CircularRepository) GetByID(ctx context.Context, circularID string) (*circular.Circular, error) {
	var row circularRow
	err := pgxscan.Get(ctx, r.db.pool, &row, `
		SELECT id, school_id, title, body, created_by, created_at, expires_at
		FROM circulars
		WHERE id = $1
	`, circularID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, circular.ErrCircularNotFound
		}
		return nil, fmt.Errorf("failed to get circular: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves circulars for schools within the scope set, newest first.
func (r *CircularRepository) List(ctx context.Context, scope platform.ScopeSet, filter circular.ListFilter) ([]*circular.Circular, error) {
	q := r.sb.Select("id", "school_id", "title", "body", "created_by", "created_at", "expires_at").
		From("circulars").
		OrderBy("created_at DESC")

	q = scopedSchoolIDs(q, "school_id", scope)

	if filter.CreatedBy != "" {
		q = q.Where(sq.Eq{"created_by": filter.CreatedBy})
	}
	if !filter.IncludeExpired {
		q = q.Where(sq.Or{
			sq.Eq{"expires_at": nil},
			sq.Gt{"expires_at": time.Now()},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build circular query: %w", err)
	}

	var rows []*circularRow
	if err := pgxscan.Select(ctx, r.db.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to list circulars: %w", err)
	}

	circulars := make([]*circular.Circular, 0, len(rows))
	for _, row := range rows {
		circulars = append(circulars, row.toDomain())
	}
	return circulars, nil
}

// UnreadCount counts unread, unexpired circulars for a recipient.
func (r *CircularRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM circular_recipients cr
		JOIN circulars c ON c.id = cr.circular_id
		WHERE cr.user_id = $1
		  AND cr.read_at IS NULL
		  AND (c.expires_at IS NULL OR c.expires_at > now())
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread circulars: %w", err)
	}
	return count, nil
}

// MarkRead marks a circular read for a recipient. Reads are idempotent:
// the first timestamp wins.
func (r *CircularRepository) MarkRead(ctx context.Context, circularID, userID string) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE circular_recipients SET read_at = now()
		WHERE circular_id = $1 AND user_id = $2 AND read_at IS NULL
	`, circularID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark circular read: %w", err)
	}
	return nil
}
