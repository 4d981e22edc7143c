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

package platform

import (
	"context"
	"errors"
	"sort"
)

// Domain errors
var (
	// ErrScopeNotFound means no scope record exists for the principal.
	// Callers must treat this identically to an empty scope for denial
	// purposes; it is distinct only for diagnostics.
	ErrScopeNotFound = errors.New("platform scope not found")
)

// GenderScope narrows a scope record to schools of one gender.
type GenderScope string

const (
	GenderScopeAll   GenderScope = "all"
	GenderScopeBoys  GenderScope = "boys"
	GenderScopeGirls GenderScope = "girls"
)

// ScopeRecord is the stored form of a platform admin's visibility scope:
// an optional explicit school list plus attribute filters. A record with no
// explicit schools is materialized by filtering the active school directory
// by gender and city.
type ScopeRecord struct {
	AdminID     string
	GenderScope GenderScope
	Cities      []string
	SchoolIDs   []string
}

// ScopeSpec is a materialized visibility scope: the finite set of school IDs
// one platform-admin principal may view. A nil *ScopeSpec means "no scope
// record" and must never be interpreted as "all access". ScopeSpec is
// immutable for the duration of a request.
type ScopeSpec struct {
	adminID string
	ids     map[string]struct{}
}

// NewScopeSpec builds a materialized scope for the given admin.
func NewScopeSpec(adminID string, schoolIDs []string) *ScopeSpec {
	ids := make(map[string]struct{}, len(schoolIDs))
	for _, sid := range schoolIDs {
		if sid != "" {
			ids[sid] = struct{}{}
		}
	}
	return &ScopeSpec{adminID: adminID, ids: ids}
}

// AdminID returns the owning principal's ID.
func (s *ScopeSpec) AdminID() string {
	if s == nil {
		return ""
	}
	return s.adminID
}

// Contains reports whether the school is in the scope set. Nil-safe.
func (s *ScopeSpec) Contains(schoolID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[schoolID]
	return ok
}

// IsEmpty reports whether the scope grants visibility of no schools.
// A nil receiver (absent record) is empty: both states deny identically.
func (s *ScopeSpec) IsEmpty() bool {
	return s == nil || len(s.ids) == 0
}

// Len returns the number of schools in scope.
func (s *ScopeSpec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// SchoolIDs returns the scope set as a sorted slice.
func (s *ScopeSpec) SchoolIDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for sid := range s.ids {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}

// ScopeRepository defines the interface for scope-record persistence.
type ScopeRepository interface {
	// GetByAdminID retrieves the scope record for a platform admin.
	// Returns ErrScopeNotFound when no record exists.
	GetByAdminID(ctx context.Context, adminID string) (*ScopeRecord, error)

	// MaterializeSchoolIDs resolves a scope record to the concrete set of
	// active school IDs it grants: the explicit school list when present,
	// otherwise the school directory filtered by gender scope and cities.
	MaterializeSchoolIDs(ctx context.Context, record *ScopeRecord) ([]string, error)
}

// ScopeResolver produces the materialized scope for a principal. It is a
// pure lookup: two calls within one request return the same value.
type ScopeResolver struct {
	repo ScopeRepository
}

// NewScopeResolver creates a new scope resolver.
func NewScopeResolver(repo ScopeRepository) *ScopeResolver {
	return &ScopeResolver{repo: repo}
}

// Resolve returns the materialized scope for the principal, or (nil,
// ErrScopeNotFound) when no scope record exists. Any other error is an
// infrastructure fault (ReasonScopeResolutionFailed): callers must treat
// the scope as absent rather than propagating the fault.
func (r *ScopeResolver) Resolve(ctx context.Context, adminID string) (*ScopeSpec, error) {
	record, err := r.repo.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	ids, err := r.repo.MaterializeSchoolIDs(ctx, record)
	if err != nil {
		return nil, err
	}

	return NewScopeSpec(adminID, ids), nil
}
