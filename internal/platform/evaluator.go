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

// NoActiveSchool is passed for routes that never consult the entered
// school, so the active-school consistency rule cannot fire.
const NoActiveSchool = ""

// CanAccessSchool is the per-resource decision function. It combines scope
// membership with active-school consistency, first match wins:
//
//  1. superuser principals are allowed (reviewed configuration choice: the
//     bypass covers the resource layer, not only the route layer);
//  2. an absent or empty scope denies;
//  3. a target outside the scope set denies;
//  4. an entered school different from the target denies;
//  5. otherwise allow.
//
// The active school only ever restricts further: rule 3 runs before rule 4,
// so an entered school can never grant membership outside scope. Callers
// must pass the session's current value on every use; the evaluator never
// trusts that it was valid at set-time, because scope may have shrunk since
// (the session value is re-verified here against the freshly resolved
// scope).
//
// Pure and stateless: safe to call from any goroutine.
func CanAccessSchool(principal *identity.User, scope *ScopeSpec, activeSchoolID, targetSchoolID string) Decision {
	if principal.IsSuperuser() {
		return Allow(ReasonSuperuserBypass)
	}
	if scope.IsEmpty() {
		return Deny(ReasonScopeEmpty)
	}
	if !scope.Contains(targetSchoolID) {
		return Deny(ReasonOutOfScope)
	}
	if activeSchoolID != NoActiveSchool && activeSchoolID != targetSchoolID {
		return Deny(ReasonActiveSchoolMismatch)
	}
	return Allow(ReasonAllowed)
}
