package http

import (
	"net/http"
	"strconv"
	"time"

	"habitual/internal/auth"
	"habitual/internal/core"
	"habitual/internal/storage"
)

const maxEntryListDays = 366

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	filter := storage.EntryFilter{HabitID: r.URL.Query().Get("habitId")}
	if v := r.URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 || days > maxEntryListDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 366")
			return
		}
		filter.Since = time.Now().UTC().AddDate(0, 0, -days)
	}

	entries, err := s.repo.ListEntries(r.Context(), user.ID, filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryViews(entries))
}

type createEntryRequest struct {
	HabitID string     `json:"habitId"`
	Amount  string     `json:"amount"`
	Date    *time.Time `json:"date"`
	Notes   string     `json:"notes"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req createEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	now := time.Now().UTC()
	entry := core.Entry{
		HabitID: req.HabitID,
		Amount:  amount,
		Date:    now,
		Notes:   req.Notes,
	}
	if req.Date != nil {
		entry.Date = req.Date.UTC()
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.entries.Create(r.Context(), user, entry, now)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.entriesCreated.Add(1)
	s.dashboardCache.Delete(user.ID)
	writeJSON(w, http.StatusCreated, toEntryView(created))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.entries.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.dashboardCache.Delete(user.ID)
	w.WriteHeader(http.StatusNoContent)
}
