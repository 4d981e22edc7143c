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

// Package report holds activity reports submitted within one school.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/schoolplane/schoolplane/internal/platform"
)

// Domain errors
var (
	ErrReportNotFound = errors.New("report not found")
)

// Report is one documented activity belonging to a school.
type Report struct {
	ID            string
	SchoolID      string
	Title         string
	Category      string
	SubmitterID   string
	SubmitterName string
	ReportDate    time.Time
	Beneficiaries int
	CreatedAt     time.Time
}

// ListFilter narrows a report listing. All fields optional.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	SubmitterName string
	Category      string
	Limit         int
	Offset        int
}

// Repository defines the interface for report persistence. Listing takes
// the platform.ScopeSet filter and must not widen it.
type Repository interface {
	// Create creates a new report
	Create(ctx context.Context, r *Report) error

	// GetByID retrieves a report by ID
	GetByID(ctx context.Context, id string) (*Report, error)

	// List retrieves reports for schools within the scope set, newest
	// report date first.
	List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Report, error)
}

// Service provides report business logic
type Service struct {
	repo Repository
}

// NewService creates a new report service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(ctx context.Context, id string) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the reports visible through the scope set. An empty scope
// set legitimately yields an empty collection.
func (s *Service) List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Report, error) {
	if scope.IsEmpty() {
		return []*Report{}, nil
	}
	return s.repo.List(ctx, scope, filter)
}
