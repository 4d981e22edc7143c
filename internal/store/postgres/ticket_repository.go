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

	"github.com/schoolplane/schoolplane/internal/platform"
	"github.com/schoolplane/schoolplane/internal/ticket"
)

// TicketRepository implements ticket.Repository
type TicketRepository struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type ticketRow struct {
	ID         string    `db:"id"`
	SchoolID   string    `db:"school_id"`
	Subject    string    `db:"subject"`
	Status     string    `db:"status"`
	CreatorID  string    `db:"creator_id"`
	AssigneeID *string   `db:"assignee_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row *ticketRow) toDomain() *ticket.Ticket {
	t := &ticket.Ticket{
		ID:        row.ID,
		SchoolID:  row.SchoolID,
		Subject:   row.Subject,
		Status:    row.Status,
		CreatorID: row.CreatorID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.AssigneeID != nil {
		t.AssigneeID = *row.AssigneeID
	}
	return t
}

// GetByID retrieves a ticket by ID
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var row ticketRow
	err := pgxscan.Get(ctx, r.db.pool, &row, `
		SELECT id, school_id, subject, status, creator_id, assignee_id, created_at, updated_at
		FROM tickets
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves tickets for schools within the scope set, newest first.
func (r *TicketRepository) List(ctx context.Context, scope platform.ScopeSet, filter ticket.ListFilter) ([]*ticket.Ticket, error) {
	q := r.sb.Select("id", "school_id", "subject", "status", "creator_id", "assignee_id", "created_at", "updated_at").
		From("tickets").
		OrderBy("created_at DESC")

	q = scopedSchoolIDs(q, "school_id", scope)

	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Query != "" {
		q = q.Where(sq.ILike{"subject": "%" + filter.Query + "%"})
	}
	if filter.AssigneeID != "" {
		q = q.Where(sq.Eq{"assignee_id": filter.AssigneeID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ticket query: %w", err)
	}

	var rows []*ticketRow
	if err := pgxscan.Select(ctx, r.db.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	tickets := make([]*ticket.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, row.toDomain())
	}
	return tickets, nil
}
