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

// Package subscription tracks each school's plan and renewal state. The
// platform dashboard reads it; billing flows live elsewhere.
package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolplane/schoolplane/internal/platform"
)

// Domain errors
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Plan is a purchasable subscription tier.
type Plan struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	DurationDays int
}

// SchoolSubscription binds one school to a plan for a period.
type SchoolSubscription struct {
	ID        string
	SchoolID  string
	Plan      Plan
	StartsAt  time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the subscription has lapsed. A zero expiry is
// treated as lapsed: absence of a valid period never grants access.
func (s *SchoolSubscription) IsExpired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || now.After(s.ExpiresAt)
}

// Repository defines the interface for subscription persistence. Listing
// takes the platform.ScopeSet filter and must not widen it.
type Repository interface {
	// GetBySchool retrieves the subscription of one school
	GetBySchool(ctx context.Context, schoolID string) (*SchoolSubscription, error)

	// List retrieves subscriptions for schools within the scope set,
	// soonest expiry first.
	List(ctx context.Context, scope platform.ScopeSet) ([]*SchoolSubscription, error)
}

// Service provides subscription read logic for the platform views
type Service struct {
	repo Repository
}

// NewService creates a new subscription service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetBySchool retrieves the subscription of one school.
func (s *Service) GetBySchool(ctx context.Context, schoolID string) (*SchoolSubscription, error) {
	return s.repo.GetBySchool(ctx, schoolID)
}

// List returns the subscriptions visible through the scope set.
func (s *Service) List(ctx context.Context, scope platform.ScopeSet) ([]*SchoolSubscription, error) {
	if scope.IsEmpty() {
		return []*SchoolSubscription{}, nil
	}
	return s.repo.List(ctx, scope)
}
