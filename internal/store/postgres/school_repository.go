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
	"github.com/schoolplane/schoolplane/internal/school"
)

// SchoolRepository implements school.Repository
type SchoolRepository struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type schoolRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	City      string    `db:"city"`
	Gender    string    `db:"gender"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row *schoolRow) toDomain() *school.School {
	return &school.School{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		City:      row.City,
		Gender:    school.Gender(row.Gender),
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// Create creates a new school
func (r *SchoolRepository) Create(ctx context.Context, s *school.School) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO schools (id, name, code, city, gender, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		s.ID, s.Name, s.Code, s.City, string(s.Gender), s.IsActive,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create school: %w", err)
	}
	return nil
}

// GetByID retrieves a school by ID
func (r *SchoolRepository) GetByID(ctx context.Context, id string) (*school.School, error) {
	var row schoolRow
	err := pgxscan.Get(ctx, r.db.pool, &row, `
		SELECT id, name, code, city, gender, is_active, created_at, updated_at
		FROM schools
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, school.ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves schools within the scope set matching the filter, ordered
// by name. An empty scope set yields no rows; callers are expected to have
// short-circuited that case already.
func (r *SchoolRepository) List(ctx context.Context, scope platform.ScopeSet, filter school.DirectoryFilter) ([]*school.School, error) {
	q := r.sb.Select("id", "name", "code", "city", "gender", "is_active", "created_at", "updated_at").
		From("schools").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name")

	q = scopedSchoolIDs(q, "id", scope)

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"code": pattern},
			sq.ILike{"city": pattern},
		})
	}
	if filter.Gender != "" {
		q = q.Where(sq.Eq{"gender": string(filter.Gender)})
	}
	if filter.City != "" {
		q = q.Where(sq.Eq{"city": filter.City})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build school query: %w", err)
	}

	var rows []*schoolRow
	if err := pgxscan.Select(ctx, r.db.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}

	schools := make([]*school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.toDomain())
	}
	return schools, nil
}

// Cities returns the distinct city names within the scope set, sorted.
func (r *SchoolRepository) Cities(ctx context.Context, scope platform.ScopeSet) ([]string, error) {
	q := r.sb.Select("DISTINCT city").
		From("schools").
		Where(sq.Eq{"is_active": true}).
		Where(sq.NotEq{"city": ""}).
		OrderBy("city")

	q = scopedSchoolIDs(q, "id", scope)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cities query: %w", err)
	}

	var cities []string
	if err := pgxscan.Select(ctx, r.db.pool, &cities, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

// scopedSchoolIDs applies a platform.ScopeSet to the query as a filter on
// the given school-ID column. ScopeSet.All applies no restriction; an empty
// set matches nothing (sq.Eq with an empty slice renders a false predicate),
// keeping the query fail-closed even if a caller forgets to short-circuit.
func scopedSchoolIDs(q sq.SelectBuilder, column string, scope platform.ScopeSet) sq.SelectBuilder {
	if scope.All {
		return q
	}
	return q.Where(sq.Eq{column: scope.IDs})
}
