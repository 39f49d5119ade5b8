package http

import (
	"net/http"
	"strings"

	"habitual/internal/auth"
	"habitual/internal/core"
	"habitual/internal/log"
)

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	ctx := r.Context()

	friendships, err := s.repo.ListFriendships(ctx, user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	views := make([]friendshipView, 0, len(friendships))
	for _, f := range friendships {
		otherID := f.RequesterID
		if otherID == user.ID {
			otherID = f.AddresseeID
		}
		var friend *core.User
		if other, err := s.repo.GetUser(ctx, otherID); err == nil {
			friend = &other
		} else {
			log.FromContext(ctx).WarnContext(ctx, "Friend profile lookup failed",
				log.FieldError, err,
				log.FieldUserID, otherID)
		}
		views = append(views, toFriendshipView(f, friend))
	}
	writeJSON(w, http.StatusOK, views)
}

type friendRequestBody struct {
	Email string `json:"email"`
}

func (s *Server) handleRequestFriend(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req friendRequestBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	friendship, err := s.friends.Request(r.Context(), user, email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFriendshipView(friendship, nil))
}

type friendResponseBody struct {
	Status string `json:"status"`
}

func (s *Server) handleRespondFriend(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req friendResponseBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := core.ParseFriendshipStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if status != core.FriendshipAccepted && status != core.FriendshipBlocked {
		writeError(w, http.StatusBadRequest, "status must be accepted or blocked")
		return
	}

	friendship, err := s.friends.Respond(r.Context(), user, r.PathValue("id"), status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFriendshipView(friendship, nil))
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := s.friends.Remove(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
