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

package circular

import (
	"context"
	"fmt"
	"time"

	"github.com/schoolplane/schoolplane/internal/audit"
	"github.com/schoolplane/schoolplane/internal/id"
	"github.com/schoolplane/schoolplane/internal/platform"
)

// Repository defines the interface for circular persistence. Listing takes
// the platform.ScopeSet filter and must not widen it.
type Repository interface {
	// Create creates a circular and fans it out to the school's members.
	Create(ctx context.Context, c *Circular) error

	// GetByID retrieves a circular by ID
	GetByID(ctx context.Context, id string) (*Circular, error)

	// List retrieves circulars for schools within the scope set, newest
	// first.
	List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Circular, error)

	// UnreadCount counts unread, unexpired circulars for a recipient.
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead marks a circular read for a recipient.
	MarkRead(ctx context.Context, circularID, userID string) error
}

// Service provides circular business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new circular service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// Create publishes a circular to one school. Callers must have already
// authorized the target school through the access evaluator; this service
// only validates shape.
func (s *Service) Create(ctx context.Context, schoolID, title, body, createdBy string, expiresAt *time.Time) (*Circular, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if schoolID == "" {
		return nil, ErrNoTargetSchool
	}

	c := &Circular{
		ID:        id.NewUUIDv7(),
		SchoolID:  schoolID,
		Title:     title,
		Body:      body,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create circular: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCircularCreated,
		ActorID:  createdBy,
		SchoolID: schoolID,
		Resource: c.ID,
	})

	return c, nil
}

// List returns the circulars visible through the scope set. An empty scope
// set legitimately yields an empty collection.
func (s *Service) List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Circular, error) {
	if scope.IsEmpty() {
		return []*Circular{}, nil
	}
	return s.repo.List(ctx, scope, filter)
}

// Get retrieves one circular.
func (s *Service) Get(ctx context.Context, circularID string) (*Circular, error) {
	return s.repo.GetByID(ctx, circularID)
}

// UnreadCount counts unread circulars for the user's badge.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks a circular read for the user.
func (s *Service) MarkRead(ctx context.Context, circularID, userID string) error {
	return s.repo.MarkRead(ctx, circularID, userID)
}
