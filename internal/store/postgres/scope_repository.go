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

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/schoolplane/schoolplane/internal/platform"
)

// ScopeRepository implements platform.ScopeRepository
type ScopeRepository struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewScopeRepository creates a new scope repository
func NewScopeRepository(db *DB) *ScopeRepository {
	return &ScopeRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByAdminID retrieves the scope record for a platform admin.
// Returns platform.ErrScopeNotFound when no record exists.
func (r *ScopeRepository) GetByAdminID(ctx context.Context, adminID string) (*platform.ScopeRecord, error) {
	record := platform.ScopeRecord{AdminID: adminID}
	err := r.db.pool.QueryRow(ctx, `
		SELECT gender_scope, allowed_cities
		FROM platform_scopes
		WHERE admin_id = $1
	`, adminID).Scan(&record.GenderScope, &record.Cities)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, platform.ErrScopeNotFound
		}
		return nil, fmt.Errorf("failed to get scope record: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT school_id FROM platform_scope_schools WHERE admin_id = $1
	`, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scope schools: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, fmt.Errorf("failed to scan scope school: %w", err)
		}
		record.SchoolIDs = append(record.SchoolIDs, sid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scope schools: %w", err)
	}

	return &record, nil
}

// MaterializeSchoolIDs resolves a scope record to concrete active school IDs.
// An explicit school list wins; otherwise the directory is filtered by the
// record's gender scope and allowed cities. Inactive schools never appear.
func (r *ScopeRepository) MaterializeSchoolIDs(ctx context.Context, record *platform.ScopeRecord) ([]string, error) {
	q := r.sb.Select("id").From("schools").Where(sq.Eq{"is_active": true})

	if len(record.SchoolIDs) > 0 {
		q = q.Where(sq.Eq{"id": record.SchoolIDs})
	} else {
		if record.GenderScope != "" && record.GenderScope != platform.GenderScopeAll {
			q = q.Where(sq.Eq{"gender": string(record.GenderScope)})
		}
		if len(record.Cities) > 0 {
			q = q.Where(sq.Eq{"city": record.Cities})
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build scope query: %w", err)
	}

	var ids []string
	if err := pgxscan.Select(ctx, r.db.pool, &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to materialize scope: %w", err)
	}
	return ids, nil
}
