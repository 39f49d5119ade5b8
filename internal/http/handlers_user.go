package http

import (
	"net/http"
	"strings"

	"habitual/internal/auth"
	"habitual/internal/core"
)

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserView(user))
}

type updateUserRequest struct {
	Name          *string `json:"name"`
	HourlyWage    *string `json:"hourlyWage"`
	Currency      *string `json:"currency"`
	ShareProgress *bool   `json:"shareProgress"`
	ShareAmounts  *bool   `json:"shareAmounts"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		user.Name = name
	}
	if req.HourlyWage != nil {
		if *req.HourlyWage == "" {
			user.HourlyWage = core.Money{}
		} else {
			wage, err := core.ParseMoney(*req.HourlyWage)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid hourly wage")
				return
			}
			user.HourlyWage = wage
		}
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			writeError(w, http.StatusBadRequest, "currency must be a 3-letter code")
			return
		}
		user.Currency = currency
	}
	if req.ShareProgress != nil {
		user.ShareProgress = *req.ShareProgress
	}
	if req.ShareAmounts != nil {
		user.ShareAmounts = *req.ShareAmounts
	}

	if err := s.repo.UpdateProfile(r.Context(), user); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}
