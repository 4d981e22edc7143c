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

// Package platform implements the access-decision engine for the
// platform-admin role: the route allowlist, scope resolution, the
// per-resource access evaluator, scoped query construction and the
// active-school session lifecycle.
//
// Every function in this package is total with respect to its documented
// inputs: a missing, malformed or unresolvable authorization input produces
// a Deny decision (or an empty scope set), never a panic and never default
// access.
package platform

// Reason classifies the outcome of an access decision. Reason codes are for
// internal diagnostics, audit and metrics only; they are never returned
// verbatim to the requesting principal.
type Reason string

const (
	// ReasonAllowed marks a positive decision.
	ReasonAllowed Reason = "allowed"

	// ReasonSuperuserBypass marks a positive decision produced by the
	// documented superuser bypass.
	ReasonSuperuserBypass Reason = "superuser_bypass"

	// ReasonNotPlatformAdmin marks a route-layer pass-through for
	// principals the allowlist does not constrain.
	ReasonNotPlatformAdmin Reason = "not_platform_admin"

	// ReasonRouteNotAllowlisted denies a platform admin invoking a route
	// absent from the registry.
	ReasonRouteNotAllowlisted Reason = "route_not_allowlisted"

	// ReasonScopeEmpty denies when the principal has no scope record or a
	// present-but-empty one. Both states deny identically; callers may log
	// them distinctly.
	ReasonScopeEmpty Reason = "scope_empty"

	// ReasonOutOfScope denies access to a school outside the resolved
	// scope set.
	ReasonOutOfScope Reason = "out_of_scope"

	// ReasonActiveSchoolMismatch denies when an entered school conflicts
	// with the requested one.
	ReasonActiveSchoolMismatch Reason = "active_school_mismatch"

	// ReasonActiveSchoolRequired denies a route that demands an entered
	// school when the session has none.
	ReasonActiveSchoolRequired Reason = "active_school_required"

	// ReasonScopeResolutionFailed records an infrastructure fault during
	// scope lookup. It is not a policy decision: callers treat the scope as
	// absent (fail-closed) and surface this reason to operator-facing
	// signals only.
	ReasonScopeResolutionFailed Reason = "scope_resolution_failed"
)

// Decision is the ephemeral result of one access check. It is recomputed on
// every request and never persisted.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow builds a positive decision.
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny builds a negative decision.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
