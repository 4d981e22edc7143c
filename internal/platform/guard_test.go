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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowlistGuard_RegisteredRouteAllows(t *testing.T) {
	guard := NewAllowlistGuard(DefaultRouteRegistry())

	d := guard.Evaluate(platformAdmin("admin-1"), RouteSchoolsDirectory)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonAllowed, d.Reason)
}

func TestAllowlistGuard_UnregisteredRouteDeniesPlatformAdmin(t *testing.T) {
	// A route missing from the registry denies even though a handler for it
	// may exist and behave correctly.
	guard := NewAllowlistGuard(DefaultRouteRegistry())

	d := guard.Evaluate(platformAdmin("admin-1"), "billing_export")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRouteNotAllowlisted, d.Reason)
}

func TestAllowlistGuard_SuperuserBypassesAllowlist(t *testing.T) {
	guard := NewAllowlistGuard(DefaultRouteRegistry())

	d := guard.Evaluate(superuser("su-1"), "billing_export")
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonSuperuserBypass, d.Reason)
}

func TestAllowlistGuard_RegularUserPassesThrough(t *testing.T) {
	// The guard does not govern non-platform-admin principals; whatever
	// governs them downstream applies unchanged.
	guard := NewAllowlistGuard(DefaultRouteRegistry())

	d := guard.Evaluate(regularUser("user-1"), "billing_export")
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonNotPlatformAdmin, d.Reason)
}

func TestAllowlistGuard_EmptyRegistryDeniesEverything(t *testing.T) {
	guard := NewAllowlistGuard(NewRouteRegistry())

	for _, route := range []string{RouteLogin, RouteSchoolsDirectory, RouteEnterSchool} {
		d := guard.Evaluate(platformAdmin("admin-1"), route)
		assert.False(t, d.Allowed, "route %s", route)
		assert.Equal(t, ReasonRouteNotAllowlisted, d.Reason)
	}
}

func TestDefaultRouteRegistry_Entries(t *testing.T) {
	registry := DefaultRouteRegistry()

	tests := []struct {
		name          string
		requiresScope bool
		activeSchool  ActiveSchoolMode
	}{
		{RouteLogin, false, ActiveSchoolNone},
		{RouteLogout, false, ActiveSchoolNone},
		{RouteMyProfile, false, ActiveSchoolNone},
		{RouteLanding, false, ActiveSchoolNone},
		{RouteHealth, false, ActiveSchoolNone},
		{RouteServiceWorker, false, ActiveSchoolNone},
		{RouteUnreadCount, false, ActiveSchoolNone},
		{RouteSchoolsDirectory, true, ActiveSchoolNone},
		{RouteEnterSchool, true, ActiveSchoolNone},
		{RouteLeaveSchool, true, ActiveSchoolOptional},
		{RouteSchoolDashboard, true, ActiveSchoolRequired},
		{RouteSchoolReports, true, ActiveSchoolRequired},
		{RouteSchoolTickets, true, ActiveSchoolRequired},
		{RouteSchoolNotify, true, ActiveSchoolRequired},
		{RouteCircularsList, true, ActiveSchoolOptional},
		{RouteCircularCreate, true, ActiveSchoolOptional},
		{RouteCircularMarkRead, true, ActiveSchoolOptional},
		{RouteSubscriptionsList, true, ActiveSchoolNone},
	}

	assert.Len(t, registry.Names(), len(tests))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, ok := registry.Lookup(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.requiresScope, desc.RequiresScope)
			assert.Equal(t, tt.activeSchool, desc.ActiveSchool)
		})
	}

	// Share-link issuing stays off the allowlist: platform admins are
	// view-only for reports.
	_, ok := registry.Lookup(RouteReportShare)
	assert.False(t, ok)
}
