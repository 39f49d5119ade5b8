package http

import (
	"net/http"
	"time"

	"habitual/internal/auth"
)

const insightListLimit = 20

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	insights, err := s.repo.ListInsights(r.Context(), user.ID, time.Now().UTC(), insightListLimit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightViews(insights))
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insight generation is not configured")
		return
	}
	user, _ := auth.UserFromContext(r.Context())

	insights, err := s.insights.Generate(r.Context(), user, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInsightViews(insights))
}

type insightFeedbackRequest struct {
	Helpful bool `json:"helpful"`
}

func (s *Server) handleInsightFeedback(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req insightFeedbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.repo.SetInsightFeedback(r.Context(), r.PathValue("id"), user.ID, req.Helpful); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	insight, err := s.repo.GetInsight(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightView(insight))
}
