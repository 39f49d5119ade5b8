package http

import (
	"net/http"
	"time"

	"habitual/internal/auth"
	"habitual/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	goals, err := s.repo.ListGoals(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalViews(goals))
}

type createGoalRequest struct {
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	HabitID       string     `json:"habitId"`
	TargetAmount  string     `json:"targetAmount"`
	CurrentAmount string     `json:"currentAmount"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req createGoalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goalType, err := core.ParseGoalType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := core.ParseMoney(req.TargetAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target amount")
		return
	}

	goal := core.Goal{
		UserID:       user.ID,
		HabitID:      req.HabitID,
		Name:         req.Name,
		Type:         goalType,
		TargetAmount: target,
		StartDate:    time.Now().UTC(),
	}
	if req.CurrentAmount != "" {
		current, err := core.ParseMoney(req.CurrentAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid current amount")
			return
		}
		goal.CurrentAmount = current
	}
	if req.StartDate != nil {
		goal.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		goal.EndDate = req.EndDate.UTC()
	}

	// A linked habit must exist and belong to the user.
	if goal.HabitID != "" {
		if _, err := s.repo.GetHabit(r.Context(), goal.HabitID, user.ID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if err := goal.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.repo.CreateGoal(r.Context(), goal)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalView(created))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	goal, err := s.repo.GetGoal(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalView(goal))
}

type updateGoalRequest struct {
	Name          *string    `json:"name"`
	TargetAmount  *string    `json:"targetAmount"`
	CurrentAmount *string    `json:"currentAmount"`
	EndDate       *time.Time `json:"endDate"`
	Status        *string    `json:"status"`
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	goal, err := s.repo.GetGoal(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req updateGoalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		goal.Name = *req.Name
	}
	if req.TargetAmount != nil {
		target, err := core.ParseMoney(*req.TargetAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target amount")
			return
		}
		goal.TargetAmount = target
	}
	if req.CurrentAmount != nil {
		current, err := core.ParseMoney(*req.CurrentAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid current amount")
			return
		}
		goal.CurrentAmount = current
	}
	if req.EndDate != nil {
		goal.EndDate = req.EndDate.UTC()
	}
	if req.Status != nil {
		status, err := core.ParseGoalStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		goal.Status = status
	}

	if err := goal.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.UpdateGoal(r.Context(), goal); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	updated, err := s.repo.GetGoal(r.Context(), goal.ID, user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalView(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.repo.DeleteGoal(r.Context(), r.PathValue("id"), user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
