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
	"github.com/shopspring/decimal"

	"github.com/schoolplane/schoolplane/internal/platform"
	"github.com/schoolplane/schoolplane/internal/subscription"
)

// SubscriptionRepository implements subscription.Repository
type SubscriptionRepository struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type subscriptionRow struct {
	ID           string          `db:"id"`
	SchoolID     string          `db:"school_id"`
	PlanID       string          `db:"plan_id"`
	PlanName     string          `db:"plan_name"`
	PlanPrice    decimal.Decimal `db:"plan_price"`
	DurationDays int             `db:"duration_days"`
	StartsAt     time.Time       `db:"starts_at"`
	ExpiresAt    time.Time       `db:"expires_at"`
}

func (row *subscriptionRow) toDomain() *subscription.SchoolSubscription {
	return &subscription.SchoolSubscription{
		ID:       row.ID,
		SchoolID: row.SchoolID,
		Plan: subscription.Plan{
			ID:           row.PlanID,
			Name:         row.PlanName,
			Price:        row.PlanPrice,
			DurationDays: row.DurationDays,
		},
		StartsAt:  row.StartsAt,
		ExpiresAt: row.ExpiresAt,
	}
}

const subscriptionColumns = `s.id, s.school_id, s.plan_id, p.name AS plan_name,
	p.price AS plan_price, p.duration_days, s.starts_at, s.expires_at`

// GetBySchool retrieves the subscription of one school
func (r *SubscriptionRepository) GetBySchool(ctx context.Context, schoolID string) (*subscription.SchoolSubscription, error) {
	var row subscriptionRow
	err := pgxscan.Get(ctx, r.db.pool, &row, `
		SELECT `+subscriptionColumns+`
		FROM school_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.school_id = $1
	`, schoolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves subscriptions for schools within the scope set, soonest
// expiry first.
func (r *SubscriptionRepository) List(ctx context.Context, scope platform.ScopeSet) ([]*subscription.SchoolSubscription, error) {
	q := r.sb.Select("s.id", "s.school_id", "s.plan_id", "p.name AS plan_name",
		"p.price AS plan_price", "p.duration_days", "s.starts_at", "s.expires_at").
		From("school_subscriptions s").
		Join("subscription_plans p ON p.id = s.plan_id").
		OrderBy("s.expires_at ASC")

	q = scopedSchoolIDs(q, "s.school_id", scope)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription query: %w", err)
	}

	var rows []*subscriptionRow
	if err := pgxscan.Select(ctx, r.db.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]*subscription.SchoolSubscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toDomain())
	}
	return subs, nil
}
