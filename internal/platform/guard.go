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

// AllowlistGuard gates every inbound request on route identity before any
// handler logic runs. It constrains platform admins only; a denial must
// short-circuit all downstream view logic so a route missing from the
// registry can never leak data even when its handler is otherwise correct.
type AllowlistGuard struct {
	registry *RouteRegistry
}

// NewAllowlistGuard creates a guard over the given registry.
func NewAllowlistGuard(registry *RouteRegistry) *AllowlistGuard {
	return &AllowlistGuard{registry: registry}
}

// Evaluate decides whether the principal may invoke the named route.
//
// Superusers bypass the allowlist unconditionally (documented bypass; they
// are still subject to whatever governs them at the resource layer).
// Principals that are not platform admins pass through: this guard does not
// govern them. Platform admins are allowed iff the route is registered.
func (g *AllowlistGuard) Evaluate(principal *identity.User, routeName string) Decision {
	if principal.IsSuperuser() {
		return Allow(ReasonSuperuserBypass)
	}
	if !principal.IsPlatformAdmin() {
		return Allow(ReasonNotPlatformAdmin)
	}
	if _, ok := g.registry.Lookup(routeName); !ok {
		return Deny(ReasonRouteNotAllowlisted)
	}
	return Allow(ReasonAllowed)
}

// Registry exposes the guarded registry for handler-layer descriptor
// lookups (active-school mode).
func (g *AllowlistGuard) Registry() *RouteRegistry {
	return g.registry
}
