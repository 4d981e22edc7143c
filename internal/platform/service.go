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
	"fmt"
	"log/slog"

	"github.com/schoolplane/schoolplane/internal/audit"
	"github.com/schoolplane/schoolplane/internal/identity"
	"github.com/schoolplane/schoolplane/internal/observability/logger"
)

// Decision layers for the operator-facing decision signal.
const (
	LayerRoute    = "route"
	LayerResource = "resource"
	LayerEntry    = "entry"
)

// DecisionRecorder receives every access decision for operator-facing
// metrics. Implementations must not influence the decision.
type DecisionRecorder interface {
	Record(ctx context.Context, layer string, d Decision)
}

// NopRecorder discards decisions.
type NopRecorder struct{}

// Record implements DecisionRecorder.
func (NopRecorder) Record(context.Context, string, Decision) {}

// SessionWriter is the narrow slice of the session service the lifecycle
// needs: writing the active-school field. Last-write-wins across a
// principal's concurrent requests; no merge.
type SessionWriter interface {
	SetActiveSchool(ctx context.Context, sessionID string, schoolID *string) error
}

// Service orchestrates the platform-admin access core: fail-closed scope
// resolution and the enter/leave active-school lifecycle.
type Service struct {
	resolver    *ScopeResolver
	guard       *AllowlistGuard
	sessions    SessionWriter
	auditLogger audit.Logger
	recorder    DecisionRecorder
}

// NewService creates a new platform access service.
func NewService(
	resolver *ScopeResolver,
	guard *AllowlistGuard,
	sessions SessionWriter,
	auditLogger audit.Logger,
	recorder DecisionRecorder,
) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{
		resolver:    resolver,
		guard:       guard,
		sessions:    sessions,
		auditLogger: auditLogger,
		recorder:    recorder,
	}
}

// Guard returns the route allowlist guard.
func (s *Service) Guard() *AllowlistGuard {
	return s.guard
}

// ResolveScope resolves the principal's scope, fail-closed. An absent
// record returns nil without noise (a valid state meaning "no access"); a
// storage fault also returns nil but is surfaced to the operator signal,
// never to the caller. Superusers and regular principals have no scope by
// definition.
func (s *Service) ResolveScope(ctx context.Context, principal *identity.User) *ScopeSpec {
	if !principal.IsPlatformAdmin() {
		return nil
	}

	scope, err := s.resolver.Resolve(ctx, principal.ID)
	if err == nil {
		slog.DebugContext(ctx, "platform scope resolved",
			logger.UserID(principal.ID), logger.ScopeSize(scope.Len()))
		return scope
	}
	if errors.Is(err, ErrScopeNotFound) {
		// Valid "no access" state; log distinctly from the empty set for
		// diagnostics.
		slog.DebugContext(ctx, "platform scope absent", logger.UserID(principal.ID))
		return nil
	}

	// Infrastructure fault: treated identically to an absent scope, but
	// surfaced to operators.
	slog.ErrorContext(ctx, "platform scope resolution failed",
		logger.UserID(principal.ID), logger.Error(err))
	s.recorder.Record(ctx, LayerResource, Deny(ReasonScopeResolutionFailed))
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeScopeResolutionFailed,
		ActorID:  principal.ID,
		Resource: "platform_scope",
		Metadata: map[string]any{audit.AttrReason: err.Error()},
	})
	return nil
}

// EvaluateRoute runs the allowlist guard and records the outcome.
func (s *Service) EvaluateRoute(ctx context.Context, principal *identity.User, routeName string) Decision {
	d := s.guard.Evaluate(principal, routeName)
	s.recorder.Record(ctx, LayerRoute, d)
	if !d.Allowed {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeRouteDenied,
			ActorID:  principal.ID,
			Resource: routeName,
			Metadata: map[string]any{audit.AttrReason: string(d.Reason), audit.AttrRoute: routeName},
		})
	}
	return d
}

// Authorize runs the per-resource evaluator against a freshly resolved
// scope and records the outcome. activeSchoolID is the session's current
// value, or NoActiveSchool for routes that never consult it.
func (s *Service) Authorize(ctx context.Context, principal *identity.User, activeSchoolID, targetSchoolID string) Decision {
	scope := s.ResolveScope(ctx, principal)
	d := CanAccessSchool(principal, scope, activeSchoolID, targetSchoolID)
	s.recorder.Record(ctx, LayerResource, d)
	if !d.Allowed {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeAccessDenied,
			ActorID:  principal.ID,
			SchoolID: targetSchoolID,
			Resource: "school",
			Metadata: map[string]any{audit.AttrReason: string(d.Reason)},
		})
	}
	return d
}

// ScopedSchools resolves scope and builds the listing filter for the
// principal, honoring an optional request-supplied target school.
func (s *Service) ScopedSchools(ctx context.Context, principal *identity.User, targetSchoolID string) ScopeSet {
	scope := s.ResolveScope(ctx, principal)
	return ScopedSchoolIDs(principal, scope, targetSchoolID)
}

// EnterSchool performs the Unset/Set(t) transition: it re-resolves scope at
// entry time and refuses when the school is outside it. Stale scope from
// session-creation time is never trusted.
func (s *Service) EnterSchool(ctx context.Context, principal *identity.User, sessionID, schoolID string) (Decision, error) {
	scope := s.ResolveScope(ctx, principal)
	d := CanAccessSchool(principal, scope, NoActiveSchool, schoolID)
	s.recorder.Record(ctx, LayerEntry, d)
	if !d.Allowed {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeSchoolEntryDenied,
			ActorID:  principal.ID,
			SchoolID: schoolID,
			Resource: "active_school",
			Metadata: map[string]any{audit.AttrReason: string(d.Reason)},
		})
		return d, nil
	}

	if err := s.sessions.SetActiveSchool(ctx, sessionID, &schoolID); err != nil {
		return Deny(ReasonScopeResolutionFailed), fmt.Errorf("failed to set active school: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSchoolEntered,
		ActorID:  principal.ID,
		SchoolID: schoolID,
		Resource: "active_school",
	})
	return d, nil
}

// LeaveSchool performs the Set(t) to Unset transition.
func (s *Service) LeaveSchool(ctx context.Context, principal *identity.User, sessionID string) error {
	if err := s.sessions.SetActiveSchool(ctx, sessionID, nil); err != nil {
		return fmt.Errorf("failed to clear active school: %w", err)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSchoolLeft,
		ActorID:  principal.ID,
		Resource: "active_school",
	})
	return nil
}
