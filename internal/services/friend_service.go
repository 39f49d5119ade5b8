package services

import (
	"context"
	"errors"
	"fmt"

	"habitual/internal/core"
	"habitual/internal/storage"
)

var (
	// ErrSelfFriend rejects friend requests to oneself.
	ErrSelfFriend = errors.New("cannot friend yourself")

	// ErrFriendshipExists rejects duplicate requests in either direction.
	ErrFriendshipExists = errors.New("friendship already exists")

	// ErrNotAddressee rejects accept attempts by anyone but the addressee.
	ErrNotAddressee = errors.New("only the addressee can respond to a request")
)

// FriendService manages friend requests and responses.
type FriendService struct {
	repo *storage.Repository
}

func NewFriendService(repo *storage.Repository) *FriendService {
	return &FriendService{repo: repo}
}

// Request sends a friend request to the user behind the given email.
func (s *FriendService) Request(ctx context.Context, requester core.User, email string) (core.Friendship, error) {
	addressee, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return core.Friendship{}, err
	}
	if addressee.ID == requester.ID {
		return core.Friendship{}, ErrSelfFriend
	}

	if _, err := s.repo.FindFriendshipBetween(ctx, requester.ID, addressee.ID); err == nil {
		return core.Friendship{}, ErrFriendshipExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.Friendship{}, err
	}

	return s.repo.CreateFriendship(ctx, core.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
	})
}

// Respond lets the addressee accept or block a pending request.
func (s *FriendService) Respond(ctx context.Context, user core.User, friendshipID string, status core.FriendshipStatus) (core.Friendship, error) {
	if status != core.FriendshipAccepted && status != core.FriendshipBlocked {
		return core.Friendship{}, fmt.Errorf("invalid response status: %q", status)
	}

	f, err := s.repo.GetFriendship(ctx, friendshipID, user.ID)
	if err != nil {
		return core.Friendship{}, err
	}
	if f.AddresseeID != user.ID {
		return core.Friendship{}, ErrNotAddressee
	}

	if err := s.repo.UpdateFriendshipStatus(ctx, f.ID, status); err != nil {
		return core.Friendship{}, err
	}
	f.Status = status
	return f, nil
}

// Remove deletes a friendship from either side.
func (s *FriendService) Remove(ctx context.Context, userID, friendshipID string) error {
	return s.repo.DeleteFriendship(ctx, friendshipID, userID)
}
