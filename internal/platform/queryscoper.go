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

import "github.com/schoolplane/schoolplane/internal/identity"

// ScopeSet is the school filter a listing query must apply. All carries the
// superuser sentinel: no filter at all, which is different from an empty ID
// list (a query guaranteed to match zero rows).
type ScopeSet struct {
	All bool
	IDs []string
}

// IsEmpty reports whether the set matches zero rows.
func (s ScopeSet) IsEmpty() bool {
	return !s.All && len(s.IDs) == 0
}

// AllSchools is the unfiltered sentinel.
func AllSchools() ScopeSet {
	return ScopeSet{All: true}
}

// NoSchools matches zero rows.
func NoSchools() ScopeSet {
	return ScopeSet{}
}

// SingleSchool narrows a listing to one school whose access the caller has
// already run through the evaluator. Endpoints must use this instead of
// assembling the one-element set by hand.
func SingleSchool(schoolID string) ScopeSet {
	return ScopeSet{IDs: []string{schoolID}}
}

// ScopedSchoolIDs builds the school filter for listing queries serving
// platform-visible data. Every such endpoint must route its query
// construction through this function; none may hand-roll an equivalent
// filter.
//
// Superusers get the unfiltered sentinel. Platform admins get their scope
// set, intersected with the request-supplied target school when one is
// present; the parameter is never trusted on its own. An absent or empty
// scope yields the empty set: the resulting query matches zero rows rather
// than erroring or falling back to a global shape.
func ScopedSchoolIDs(principal *identity.User, scope *ScopeSpec, targetSchoolID string) ScopeSet {
	if principal.IsSuperuser() {
		return AllSchools()
	}
	if scope.IsEmpty() {
		return NoSchools()
	}
	if targetSchoolID != "" {
		if scope.Contains(targetSchoolID) {
			return ScopeSet{IDs: []string{targetSchoolID}}
		}
		return NoSchools()
	}
	return ScopeSet{IDs: scope.SchoolIDs()}
}
