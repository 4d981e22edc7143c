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

// ActiveSchoolMode states whether a route needs an entered school.
type ActiveSchoolMode int

const (
	// ActiveSchoolNone: the route never consults the active school; the
	// evaluator is called with no active school so rule 4 cannot fire.
	ActiveSchoolNone ActiveSchoolMode = iota

	// ActiveSchoolOptional: the route accepts either state and still
	// enforces scope membership.
	ActiveSchoolOptional

	// ActiveSchoolRequired: the route refuses to run without an entered
	// school. This check happens at the handler layer before the evaluator
	// is consulted.
	ActiveSchoolRequired
)

// Route names. These are the identities the allowlist is keyed by; handlers
// bind to them at router construction and the registry is read-only after
// startup.
const (
	RouteLogin             = "login"
	RouteLogout            = "logout"
	RouteMyProfile         = "my_profile"
	RouteLanding           = "landing"
	RouteHealth            = "health"
	RouteServiceWorker     = "service_worker"
	RouteUnreadCount       = "unread_notifications_count"
	RouteSchoolsDirectory  = "platform_schools_directory"
	RouteEnterSchool       = "platform_enter_school"
	RouteLeaveSchool       = "platform_leave_school"
	RouteSchoolDashboard   = "platform_school_dashboard"
	RouteSchoolReports     = "platform_school_reports"
	RouteSchoolTickets     = "platform_school_tickets"
	RouteSchoolNotify      = "platform_school_notify"
	RouteCircularsList     = "circulars_list"
	RouteCircularCreate    = "circular_create"
	RouteCircularMarkRead  = "circular_mark_read"
	RouteSubscriptionsList = "platform_subscriptions_list"

	// RouteReportShare is intentionally absent from the default registry:
	// platform admins may view reports but never issue share links, so the
	// allowlist denies them here before the handler's submitter check runs.
	RouteReportShare = "report_share"
)

// RouteDescriptor describes one allowlisted route.
type RouteDescriptor struct {
	Name          string
	RequiresScope bool
	ActiveSchool  ActiveSchoolMode
}

// RouteRegistry is the static table of routes a platform-admin principal
// may invoke. Process-wide and read-only after startup: a route absent from
// this table is denied for platform admins no matter what its handler would
// do.
type RouteRegistry struct {
	routes map[string]RouteDescriptor
}

// NewRouteRegistry builds a registry from descriptors.
func NewRouteRegistry(descriptors ...RouteDescriptor) *RouteRegistry {
	routes := make(map[string]RouteDescriptor, len(descriptors))
	for _, d := range descriptors {
		routes[d.Name] = d
	}
	return &RouteRegistry{routes: routes}
}

// DefaultRouteRegistry returns the production allowlist.
func DefaultRouteRegistry() *RouteRegistry {
	return NewRouteRegistry(
		// Public / no-scope routes.
		RouteDescriptor{Name: RouteLogin},
		RouteDescriptor{Name: RouteLogout},
		RouteDescriptor{Name: RouteMyProfile},
		RouteDescriptor{Name: RouteLanding},
		RouteDescriptor{Name: RouteHealth},
		RouteDescriptor{Name: RouteServiceWorker},
		RouteDescriptor{Name: RouteUnreadCount},

		// School directory and the enter/leave lifecycle.
		RouteDescriptor{Name: RouteSchoolsDirectory, RequiresScope: true},
		RouteDescriptor{Name: RouteEnterSchool, RequiresScope: true},
		RouteDescriptor{Name: RouteLeaveSchool, RequiresScope: true, ActiveSchool: ActiveSchoolOptional},

		// School-dashboard-class routes: scope plus an entered school.
		RouteDescriptor{Name: RouteSchoolDashboard, RequiresScope: true, ActiveSchool: ActiveSchoolRequired},
		RouteDescriptor{Name: RouteSchoolReports, RequiresScope: true, ActiveSchool: ActiveSchoolRequired},
		RouteDescriptor{Name: RouteSchoolTickets, RequiresScope: true, ActiveSchool: ActiveSchoolRequired},
		RouteDescriptor{Name: RouteSchoolNotify, RequiresScope: true, ActiveSchool: ActiveSchoolRequired},

		// Circular listing/creation/read-tracking: scope but no entered
		// school needed. "What I created" filtering happens at the handler
		// layer; marking read only ever touches the caller's own recipient
		// row.
		RouteDescriptor{Name: RouteCircularsList, RequiresScope: true, ActiveSchool: ActiveSchoolOptional},
		RouteDescriptor{Name: RouteCircularCreate, RequiresScope: true, ActiveSchool: ActiveSchoolOptional},
		RouteDescriptor{Name: RouteCircularMarkRead, RequiresScope: true, ActiveSchool: ActiveSchoolOptional},

		RouteDescriptor{Name: RouteSubscriptionsList, RequiresScope: true},
	)
}

// Lookup returns the descriptor for a route name.
func (r *RouteRegistry) Lookup(name string) (RouteDescriptor, bool) {
	d, ok := r.routes[name]
	return d, ok
}

// Names returns all registered route names (for diagnostics).
func (r *RouteRegistry) Names() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	return names
}
