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
	"github.com/schoolplane/schoolplane/internal/report"
)

// ReportRepository implements report.Repository
type ReportRepository struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type reportRow struct {
	ID            string    `db:"id"`
	SchoolID      string    `db:"school_id"`
	Title         string    `db:"title"`
	Category      string    `db:"category"`
	SubmitterID   string    `db:"submitter_id"`
	SubmitterName string    `db:"submitter_name"`
	ReportDate    time.Time `db:"report_date"`
	Beneficiaries int       `db:"beneficiaries"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row *reportRow) toDomain() *report.Report {
	return &report.Report{
		ID:            row.ID,
		SchoolID:      row.SchoolID,
		Title:         row.Title,
		Category:      row.Category,
		SubmitterID:   row.SubmitterID,
		SubmitterName: row.SubmitterName,
		ReportDate:    row.ReportDate,
		Beneficiaries: row.Beneficiaries,
		CreatedAt:     row.CreatedAt,
	}
}

// Create creates a new report
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO reports (id, school_id, title, category, submitter_id, submitter_name, report_date, beneficiaries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rep.ID, rep.SchoolID, rep.Title, rep.Category, rep.SubmitterID,
		rep.SubmitterName, rep.ReportDate, rep.Beneficiaries, rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*report.Report, error) {
	var row reportRow
	err := pgxscan.Get(ctx, r.db.pool, &row, `
		SELECT id, school_id, title, category, submitter_id, submitter_name, report_date, beneficiaries, created_at
		FROM reports
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves reports for schools within the scope set, newest report
// date first.
func (r *ReportRepository) List(ctx context.Context, scope platform.ScopeSet, filter report.ListFilter) ([]*report.Report, error) {
	q := r.sb.Select("id", "school_id", "title", "category", "submitter_id", "submitter_name", "report_date", "beneficiaries", "created_at").
		From("reports").
		OrderBy("report_date DESC", "created_at DESC")

	q = scopedSchoolIDs(q, "school_id", scope)

	if filter.From != nil {
		q = q.Where(sq.GtOrEq{"report_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(sq.LtOrEq{"report_date": *filter.To})
	}
	if filter.SubmitterName != "" {
		q = q.Where(sq.ILike{"submitter_name": "%" + filter.SubmitterName + "%"})
	}
	if filter.Category != "" {
		q = q.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build report query: %w", err)
	}

	var rows []*reportRow
	if err := pgxscan.Select(ctx, r.db.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*report.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toDomain())
	}
	return reports, nil
}
