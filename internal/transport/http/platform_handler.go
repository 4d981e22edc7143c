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

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schoolplane/schoolplane/internal/circular"
	"github.com/schoolplane/schoolplane/internal/observability/logger"
	"github.com/schoolplane/schoolplane/internal/platform"
	"github.com/schoolplane/schoolplane/internal/report"
	"github.com/schoolplane/schoolplane/internal/school"
	"github.com/schoolplane/schoolplane/internal/subscription"
	"github.com/schoolplane/schoolplane/internal/ticket"
)

// SchoolsDirectory lists the schools the principal may see, with optional
// q/gender/city filters. Scope-level denial is an empty listing, not an
// error.
func (h *Handler) SchoolsDirectory(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())

	scope := h.platformService.ScopedSchools(r.Context(), principal, r.URL.Query().Get("school"))

	filter := school.DirectoryFilter{
		Query:  r.URL.Query().Get("q"),
		Gender: school.Gender(r.URL.Query().Get("gender")),
		City:   r.URL.Query().Get("city"),
	}

	schools, cities, err := h.schoolService.Directory(r.Context(), scope, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list schools", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list schools")
		return
	}

	items := make([]map[string]any, 0, len(schools))
	for _, s := range schools {
		items = append(items, map[string]any{
			"id":     s.ID,
			"name":   s.Name,
			"code":   s.Code,
			"city":   s.City,
			"gender": s.Gender,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"schools": items,
		"cities":  cities,
	})
}

// EnterSchool sets the session's active school after re-verifying scope
// membership at entry time.
func (h *Handler) EnterSchool(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())
	schoolID := chi.URLParam(r, "schoolID")

	d, err := h.platformService.EnterSchool(r.Context(), principal, sess.ID, schoolID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to enter school", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to enter school")
		return
	}
	if !d.Allowed {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"active_school_id": schoolID,
	})
}

// LeaveSchool clears the session's active school.
func (h *Handler) LeaveSchool(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	if err := h.platformService.LeaveSchool(r.Context(), principal, sess.ID); err != nil {
		slog.ErrorContext(r.Context(), "failed to leave school", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to leave school")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"active_school_id": "",
	})
}

// targetSchool picks the school a dashboard-class handler works on: the
// entered school, or the request parameter for principals the active-school
// gate does not bind (superusers).
func (h *Handler) targetSchool(r *http.Request) string {
	if sess := GetSession(r.Context()); sess != nil && sess.ActiveSchool() != "" {
		return sess.ActiveSchool()
	}
	return r.URL.Query().Get("school")
}

// SchoolDashboard shows the entered school with its subscription state.
func (h *Handler) SchoolDashboard(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	target := h.targetSchool(r)
	if target == "" {
		respondError(w, http.StatusBadRequest, "school is required")
		return
	}

	d := h.platformService.Authorize(r.Context(), principal, sess.ActiveSchool(), target)
	if !d.Allowed {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	sch, err := h.schoolService.GetSchool(r.Context(), target)
	if err != nil {
		if errors.Is(err, school.ErrSchoolNotFound) {
			respondError(w, http.StatusNotFound, "school not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get school", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	resp := map[string]any{
		"id":     sch.ID,
		"name":   sch.Name,
		"code":   sch.Code,
		"city":   sch.City,
		"gender": sch.Gender,
	}

	sub, err := h.subscriptionService.GetBySchool(r.Context(), target)
	switch {
	case err == nil:
		resp["subscription"] = map[string]any{
			"plan":       sub.Plan.Name,
			"price":      sub.Plan.Price,
			"expires_at": sub.ExpiresAt,
			"expired":    sub.IsExpired(time.Now()),
		}
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		resp["subscription"] = nil
	default:
		slog.ErrorContext(r.Context(), "failed to get subscription", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// SchoolReports lists the entered school's reports with date, submitter and
// category filters.
func (h *Handler) SchoolReports(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	target := h.targetSchool(r)
	if target == "" {
		respondError(w, http.StatusBadRequest, "school is required")
		return
	}

	d := h.platformService.Authorize(r.Context(), principal, sess.ActiveSchool(), target)
	if !d.Allowed {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	filter := report.ListFilter{
		SubmitterName: r.URL.Query().Get("submitter"),
		Category:      r.URL.Query().Get("category"),
		Limit:         parseIntParam(r, "limit", 50),
		Offset:        parseIntParam(r, "offset", 0),
	}
	if from, err := time.Parse("2006-01-02", r.URL.Query().Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", r.URL.Query().Get("to")); err == nil {
		filter.To = &to
	}

	reports, err := h.reportService.List(r.Context(), platform.SingleSchool(target), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list reports", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	items := make([]map[string]any, 0, len(reports))
	for _, rep := range reports {
		items = append(items, map[string]any{
			"id":             rep.ID,
			"title":          rep.Title,
			"category":       rep.Category,
			"submitter_name": rep.SubmitterName,
			"report_date":    rep.ReportDate.Format("2006-01-02"),
			"beneficiaries":  rep.Beneficiaries,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"reports": items})
}

// SchoolTickets lists the entered school's support tickets.
func (h *Handler) SchoolTickets(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	target := h.targetSchool(r)
	if target == "" {
		respondError(w, http.StatusBadRequest, "school is required")
		return
	}

	d := h.platformService.Authorize(r.Context(), principal, sess.ActiveSchool(), target)
	if !d.Allowed {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	filter := ticket.ListFilter{
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
		Limit:  parseIntParam(r, "limit", 50),
		Offset: parseIntParam(r, "offset", 0),
	}

	tickets, err := h.ticketService.List(r.Context(), platform.SingleSchool(target), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list tickets", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}

	items := make([]map[string]any, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, map[string]any{
			"id":         t.ID,
			"subject":    t.Subject,
			"status":     t.Status,
			"created_at": t.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"tickets": items})
}

// NotifyRequest is the payload for publishing a circular to the entered
// school.
type NotifyRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// NotifySchool publishes a circular to the entered school's members.
func (h *Handler) NotifySchool(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	target := h.targetSchool(r)
	if target == "" {
		respondError(w, http.StatusBadRequest, "school is required")
		return
	}

	d := h.platformService.Authorize(r.Context(), principal, sess.ActiveSchool(), target)
	if !d.Allowed {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid expires_at")
		return
	}

	c, err := h.circularService.Create(r.Context(), target, req.Title, req.Body, principal.ID, expiresAt)
	if err != nil {
		switch {
		case errors.Is(err, circular.ErrEmptyTitle), errors.Is(err, circular.ErrNoTargetSchool):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to create circular", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create circular")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"circular_id": c.ID})
}

// ListCirculars lists circulars across the principal's visible schools. The
// target_school parameter narrows within scope; created_by_me filters to
// the principal's own.
func (h *Handler) ListCirculars(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())

	scope := h.platformService.ScopedSchools(r.Context(), principal, r.URL.Query().Get("target_school"))

	filter := circular.ListFilter{
		IncludeExpired: r.URL.Query().Get("include_expired") == "true",
		Limit:          parseIntParam(r, "limit", 50),
		Offset:         parseIntParam(r, "offset", 0),
	}
	if r.URL.Query().Get("created_by_me") == "true" {
		filter.CreatedBy = principal.ID
	}

	circulars, err := h.circularService.List(r.Context(), scope, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list circulars", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list circulars")
		return
	}

	items := make([]map[string]any, 0, len(circulars))
	for _, c := range circulars {
		items = append(items, map[string]any{
			"id":         c.ID,
			"school_id":  c.SchoolID,
			"title":      c.Title,
			"body":       c.Body,
			"created_at": c.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"circulars": items})
}

// CreateCircularRequest is the payload for targeting a circular at one
// school by ID.
type CreateCircularRequest struct {
	SchoolID  string `json:"school_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CreateCircular publishes a circular to an explicit target school. The
// session's entered school is the default target when the payload omits
// one; scope membership is verified either way.
func (h *Handler) CreateCircular(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	var req CreateCircularRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := req.SchoolID
	if target == "" {
		target = sess.ActiveSchool()
	}
	if target == "" {
		respondError(w, http.StatusBadRequest, "school_id is required")
		return
	}

	d := h.platformService.Authorize(r.Context(), principal, platform.NoActiveSchool, target)
	if !d.Allowed {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid expires_at")
		return
	}

	c, err := h.circularService.Create(r.Context(), target, req.Title, req.Body, principal.ID, expiresAt)
	if err != nil {
		switch {
		case errors.Is(err, circular.ErrEmptyTitle), errors.Is(err, circular.ErrNoTargetSchool):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to create circular", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create circular")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"circular_id": c.ID})
}

// MarkCircularRead removes a circular from the caller's unread badge. The
// write only ever touches the caller's own recipient row; platform admins
// are additionally held to scope for the circular's school, like the other
// circular routes.
func (h *Handler) MarkCircularRead(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	circularID := chi.URLParam(r, "circularID")

	c, err := h.circularService.Get(r.Context(), circularID)
	if err != nil {
		if errors.Is(err, circular.ErrCircularNotFound) {
			respondError(w, http.StatusNotFound, "circular not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get circular", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to mark circular read")
		return
	}

	if principal.IsPlatformAdmin() {
		d := h.platformService.Authorize(r.Context(), principal, platform.NoActiveSchool, c.SchoolID)
		if !d.Allowed {
			respondError(w, http.StatusForbidden, "not permitted")
			return
		}
	}

	if err := h.circularService.MarkRead(r.Context(), circularID, principal.ID); err != nil {
		slog.ErrorContext(r.Context(), "failed to mark circular read", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to mark circular read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// ListSubscriptions lists subscription state across the principal's visible
// schools, soonest expiry first.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())

	scope := h.platformService.ScopedSchools(r.Context(), principal, r.URL.Query().Get("school"))

	subs, err := h.subscriptionService.List(r.Context(), scope)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list subscriptions", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	now := time.Now()
	items := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		items = append(items, map[string]any{
			"school_id":  sub.SchoolID,
			"plan":       sub.Plan.Name,
			"price":      sub.Plan.Price,
			"starts_at":  sub.StartsAt,
			"expires_at": sub.ExpiresAt,
			"expired":    sub.IsExpired(now),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": items})
}

func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
