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

// Package ticket holds per-school support tickets as seen from the
// platform dashboard.
package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/schoolplane/schoolplane/internal/platform"
)

// Domain errors
var (
	ErrTicketNotFound = errors.New("ticket not found")
)

// Status values
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusRejected   = "rejected"
)

// Ticket is a support request raised inside one school.
type Ticket struct {
	ID         string
	SchoolID   string
	Subject    string
	Status     string
	CreatorID  string
	AssigneeID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ListFilter narrows a ticket listing.
type ListFilter struct {
	Status     string
	Query      string
	AssigneeID string
	Limit      int
	Offset     int
}

// Repository defines the interface for ticket persistence. Listing takes
// the platform.ScopeSet filter and must not widen it.
type Repository interface {
	// GetByID retrieves a ticket by ID
	GetByID(ctx context.Context, id string) (*Ticket, error)

	// List retrieves tickets for schools within the scope set, newest
	// first.
	List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Ticket, error)
}

// Service provides ticket read logic for the platform views
type Service struct {
	repo Repository
}

// NewService creates a new ticket service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the tickets visible through the scope set.
func (s *Service) List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Ticket, error) {
	if scope.IsEmpty() {
		return []*Ticket{}, nil
	}
	return s.repo.List(ctx, scope, filter)
}
