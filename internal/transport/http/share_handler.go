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
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolplane/schoolplane/internal/audit"
	"github.com/schoolplane/schoolplane/internal/observability/logger"
	"github.com/schoolplane/schoolplane/internal/report"
	"github.com/schoolplane/schoolplane/internal/sharelink"
)

// ShareReport issues a signed public link for a report. Only the report's
// submitter and superusers may issue links; platform admins view reports
// through scoped listings but do not share on a school's behalf.
func (h *Handler) ShareReport(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	reportID := chi.URLParam(r, "reportID")

	rep, err := h.reportService.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get report", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to share report")
		return
	}

	if !principal.IsSuperuser() && rep.SubmitterID != principal.ID {
		respondError(w, http.StatusForbidden, "not permitted")
		return
	}

	token, err := h.shareIssuer.Issue(rep.ID, rep.SchoolID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue share token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to share report")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeShareLinkIssued,
		ActorID:  principal.ID,
		SchoolID: rep.SchoolID,
		Resource: rep.ID,
	})

	respondJSON(w, http.StatusCreated, map[string]string{
		"url": "/shared/reports/" + token,
	})
}

// ViewSharedReport serves a report through a signed link, no session
// needed. The token alone decides access: a valid signature on an
// unexpired token for an existing report.
func (h *Handler) ViewSharedReport(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	claims, err := h.shareIssuer.Verify(token)
	if err != nil {
		if errors.Is(err, sharelink.ErrExpiredToken) {
			respondError(w, http.StatusGone, "link expired")
			return
		}
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	rep, err := h.reportService.GetReport(r.Context(), claims.ReportID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":             rep.ID,
		"title":          rep.Title,
		"category":       rep.Category,
		"submitter_name": rep.SubmitterName,
		"report_date":    rep.ReportDate.Format("2006-01-02"),
		"beneficiaries":  rep.Beneficiaries,
	})
}
