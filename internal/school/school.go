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

// Package school holds the school directory: each school is an isolation
// unit of the deployment, and every listing is scope-filtered.
package school

import (
	"context"
	"errors"
	"time"

	"github.com/schoolplane/schoolplane/internal/platform"
)

// Domain errors
var (
	ErrSchoolNotFound = errors.New("school not found")
)

// Gender classifies a school.
type Gender string

const (
	GenderBoys  Gender = "boys"
	GenderGirls Gender = "girls"
)

// School is one isolated unit of data: reports, circulars and
// subscriptions all belong to exactly one school.
type School struct {
	ID        string
	Name      string
	Code      string
	City      string
	Gender    Gender
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DirectoryFilter narrows a directory listing. All fields are optional.
type DirectoryFilter struct {
	Query  string // free-text match on name, code or city
	Gender Gender
	City   string
}

// Repository defines the interface for school persistence. Listing methods
// take the platform.ScopeSet filter; they must not widen it.
type Repository interface {
	// Create creates a new school
	Create(ctx context.Context, s *School) error

	// GetByID retrieves a school by ID
	GetByID(ctx context.Context, id string) (*School, error)

	// List retrieves schools within the scope set matching the filter,
	// ordered by name.
	List(ctx context.Context, scope platform.ScopeSet, filter DirectoryFilter) ([]*School, error)

	// Cities returns the distinct city names within the scope set.
	Cities(ctx context.Context, scope platform.ScopeSet) ([]string, error)
}

// Service provides school directory business logic
type Service struct {
	repo Repository
}

// NewService creates a new school service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetSchool retrieves a school by ID
func (s *Service) GetSchool(ctx context.Context, id string) (*School, error) {
	return s.repo.GetByID(ctx, id)
}

// Directory lists the schools visible through the given scope set. The
// city facet is computed from the full scope set (before the city filter)
// so the facet list stays useful.
func (s *Service) Directory(ctx context.Context, scope platform.ScopeSet, filter DirectoryFilter) ([]*School, []string, error) {
	if scope.IsEmpty() {
		// Fail-closed listing: empty collection, never an error.
		return []*School{}, []string{}, nil
	}

	cities, err := s.repo.Cities(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	schools, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, err
	}

	return schools, cities, nil
}
