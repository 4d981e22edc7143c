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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolplane/schoolplane/internal/audit"
)

// memorySessionWriter records active-school writes.
type memorySessionWriter struct {
	active map[string]*string
	err    error
}

func newMemorySessionWriter() *memorySessionWriter {
	return &memorySessionWriter{active: make(map[string]*string)}
}

func (m *memorySessionWriter) SetActiveSchool(ctx context.Context, sessionID string, schoolID *string) error {
	if m.err != nil {
		return m.err
	}
	m.active[sessionID] = schoolID
	return nil
}

// captureAuditLogger collects emitted audit events.
type captureAuditLogger struct {
	events []audit.Event
}

func (c *captureAuditLogger) Log(ctx context.Context, event audit.Event) {
	c.events = append(c.events, event)
}

func (c *captureAuditLogger) hasType(eventType string) bool {
	for _, e := range c.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

// captureRecorder collects decision-signal records.
type captureRecorder struct {
	layers  []string
	reasons []Reason
}

func (c *captureRecorder) Record(ctx context.Context, layer string, d Decision) {
	c.layers = append(c.layers, layer)
	c.reasons = append(c.reasons, d.Reason)
}

func (c *captureRecorder) hasReason(reason Reason) bool {
	for _, r := range c.reasons {
		if r == reason {
			return true
		}
	}
	return false
}

func newTestService(repo ScopeRepository) (*Service, *memorySessionWriter, *captureAuditLogger, *captureRecorder) {
	sessions := newMemorySessionWriter()
	auditLogger := &captureAuditLogger{}
	recorder := &captureRecorder{}
	svc := NewService(
		NewScopeResolver(repo),
		NewAllowlistGuard(DefaultRouteRegistry()),
		sessions,
		auditLogger,
		recorder,
	)
	return svc, sessions, auditLogger, recorder
}

func TestService_ResolveScope_AbsentRecordIsQuiet(t *testing.T) {
	svc, _, auditLogger, recorder := newTestService(newMockScopeRepository())

	scope := svc.ResolveScope(context.Background(), platformAdmin("admin-1"))
	assert.Nil(t, scope)
	assert.Empty(t, auditLogger.events)
	assert.Empty(t, recorder.reasons)
}

func TestService_ResolveScope_InfraFaultFailsClosed(t *testing.T) {
	repo := newMockScopeRepository()
	repo.err = errors.New("connection refused")
	svc, _, auditLogger, recorder := newTestService(repo)

	scope := svc.ResolveScope(context.Background(), platformAdmin("admin-1"))

	// The caller sees an absent scope (denial), never the fault itself.
	assert.Nil(t, scope)
	assert.True(t, recorder.hasReason(ReasonScopeResolutionFailed))
	assert.True(t, auditLogger.hasType(audit.TypeScopeResolutionFailed))
}

func TestService_ResolveScope_NonAdminHasNoScope(t *testing.T) {
	repo := newMockScopeRepository()
	repo.records["su-1"] = &ScopeRecord{AdminID: "su-1"}
	svc, _, _, _ := newTestService(repo)

	assert.Nil(t, svc.ResolveScope(context.Background(), superuser("su-1")))
	assert.Nil(t, svc.ResolveScope(context.Background(), regularUser("user-1")))
}

func TestService_EvaluateRoute_DenialIsAudited(t *testing.T) {
	svc, _, auditLogger, recorder := newTestService(newMockScopeRepository())

	d := svc.EvaluateRoute(context.Background(), platformAdmin("admin-1"), "unknown_route")
	assert.False(t, d.Allowed)
	assert.True(t, auditLogger.hasType(audit.TypeRouteDenied))
	assert.Equal(t, []string{LayerRoute}, recorder.layers)
}

func TestService_Authorize_FreshScopePerCall(t *testing.T) {
	repo := newMockScopeRepository()
	repo.records["admin-1"] = &ScopeRecord{AdminID: "admin-1"}
	repo.materalized["admin-1"] = []string{"school-a"}
	svc, _, auditLogger, _ := newTestService(repo)
	admin := platformAdmin("admin-1")

	d := svc.Authorize(context.Background(), admin, NoActiveSchool, "school-a")
	assert.True(t, d.Allowed)

	// Scope shrinks between requests; the next call re-resolves and denies.
	repo.materalized["admin-1"] = nil
	d = svc.Authorize(context.Background(), admin, NoActiveSchool, "school-a")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonScopeEmpty, d.Reason)
	assert.True(t, auditLogger.hasType(audit.TypeAccessDenied))
}

func TestService_EnterSchool_InScope(t *testing.T) {
	repo := newMockScopeRepository()
	repo.records["admin-1"] = &ScopeRecord{AdminID: "admin-1"}
	repo.materalized["admin-1"] = []string{"school-a"}
	svc, sessions, auditLogger, recorder := newTestService(repo)

	d, err := svc.EnterSchool(context.Background(), platformAdmin("admin-1"), "sess-1", "school-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	require.NotNil(t, sessions.active["sess-1"])
	assert.Equal(t, "school-a", *sessions.active["sess-1"])
	assert.True(t, auditLogger.hasType(audit.TypeSchoolEntered))
	assert.Equal(t, []string{LayerEntry}, recorder.layers)
}

func TestService_EnterSchool_OutOfScopeLeavesSessionUntouched(t *testing.T) {
	repo := newMockScopeRepository()
	repo.records["admin-1"] = &ScopeRecord{AdminID: "admin-1"}
	repo.materalized["admin-1"] = []string{"school-a"}
	svc, sessions, auditLogger, _ := newTestService(repo)

	d, err := svc.EnterSchool(context.Background(), platformAdmin("admin-1"), "sess-1", "school-x")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOutOfScope, d.Reason)

	_, written := sessions.active["sess-1"]
	assert.False(t, written)
	assert.True(t, auditLogger.hasType(audit.TypeSchoolEntryDenied))
}

func TestService_EnterSchool_ReplacesPreviousEntry(t *testing.T) {
	// Entering while already entered replaces the value: last write wins.
	repo := newMockScopeRepository()
	repo.records["admin-1"] = &ScopeRecord{AdminID: "admin-1"}
	repo.materalized["admin-1"] = []string{"school-a", "school-b"}
	svc, sessions, _, _ := newTestService(repo)
	admin := platformAdmin("admin-1")

	_, err := svc.EnterSchool(context.Background(), admin, "sess-1", "school-a")
	require.NoError(t, err)
	_, err = svc.EnterSchool(context.Background(), admin, "sess-1", "school-b")
	require.NoError(t, err)

	assert.Equal(t, "school-b", *sessions.active["sess-1"])
}

func TestService_LeaveSchool_ClearsEntry(t *testing.T) {
	repo := newMockScopeRepository()
	repo.records["admin-1"] = &ScopeRecord{AdminID: "admin-1"}
	repo.materalized["admin-1"] = []string{"school-a"}
	svc, sessions, auditLogger, _ := newTestService(repo)
	admin := platformAdmin("admin-1")

	_, err := svc.EnterSchool(context.Background(), admin, "sess-1", "school-a")
	require.NoError(t, err)
	require.NoError(t, svc.LeaveSchool(context.Background(), admin, "sess-1"))

	assert.Nil(t, sessions.active["sess-1"])
	assert.True(t, auditLogger.hasType(audit.TypeSchoolLeft))
}

func TestService_LeaveSchool_WhenNotEnteredIsNoop(t *testing.T) {
	svc, sessions, _, _ := newTestService(newMockScopeRepository())

	err := svc.LeaveSchool(context.Background(), platformAdmin("admin-1"), "sess-1")
	require.NoError(t, err)
	assert.Nil(t, sessions.active["sess-1"])
}

func TestService_ScopedSchools_SuperuserAll(t *testing.T) {
	svc, _, _, _ := newTestService(newMockScopeRepository())

	set := svc.ScopedSchools(context.Background(), superuser("su-1"), "")
	assert.True(t, set.All)
}

func TestService_ScopedSchools_FailedResolutionYieldsEmpty(t *testing.T) {
	repo := newMockScopeRepository()
	repo.err = errors.New("timeout")
	svc, _, _, recorder := newTestService(repo)

	set := svc.ScopedSchools(context.Background(), platformAdmin("admin-1"), "")
	assert.True(t, set.IsEmpty())
	assert.True(t, recorder.hasReason(ReasonScopeResolutionFailed))
}
