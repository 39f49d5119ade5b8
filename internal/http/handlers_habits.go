package http

import (
	"net/http"

	"habitual/internal/auth"
	"habitual/internal/core"
)

type habitRequest struct {
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	DefaultAmount *string `json:"defaultAmount"`
	Icon          *string `json:"icon"`
	Color         *string `json:"color"`
	IsArchived    *bool   `json:"isArchived"`
}

// apply merges the request onto a habit, parsing amounts and categories.
func (req habitRequest) apply(h *core.Habit) error {
	if req.Name != nil {
		h.Name = *req.Name
	}
	if req.Category != nil {
		category, err := core.ParseCategory(*req.Category)
		if err != nil {
			return err
		}
		h.Category = category
	}
	if req.DefaultAmount != nil {
		if *req.DefaultAmount == "" {
			h.DefaultAmount = core.Money{}
		} else {
			amount, err := core.ParseMoney(*req.DefaultAmount)
			if err != nil {
				return err
			}
			h.DefaultAmount = amount
		}
	}
	if req.Icon != nil {
		h.Icon = *req.Icon
	}
	if req.Color != nil {
		h.Color = *req.Color
	}
	if req.IsArchived != nil {
		h.IsArchived = *req.IsArchived
	}
	return nil
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	includeArchived := r.URL.Query().Get("includeArchived") == "true"

	habits, err := s.repo.ListHabits(r.Context(), user.ID, includeArchived)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHabitViews(habits))
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var habit core.Habit
	if err := req.apply(&habit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	habit.UserID = user.ID
	if err := habit.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.habits.Create(r.Context(), user, habit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHabitView(created))
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	habit, err := s.repo.GetHabit(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHabitView(habit))
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	habit, err := s.repo.GetHabit(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.apply(&habit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := habit.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.habits.Update(r.Context(), user, habit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHabitView(updated))
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.repo.DeleteHabit(r.Context(), r.PathValue("id"), user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
