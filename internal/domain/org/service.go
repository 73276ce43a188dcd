package org

import (
	"context"
	"errors"
	"strings"

	"perfeval/internal/platform/validate"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	return s.Store.ListUsers(ctx, filter)
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, input UserInput) (User, error) {
	input = normalizeUser(input)
	if err := validate.Struct(input); err != nil {
		return User{}, err
	}
	if err := s.checkRelations(ctx, input.ID, input); err != nil {
		return User{}, err
	}
	return s.Store.CreateUser(ctx, input)
}

func (s *Service) UpdateUser(ctx context.Context, id string, input UserInput) (User, error) {
	input = normalizeUser(input)
	if err := validate.Struct(input); err != nil {
		return User{}, err
	}
	if _, err := s.Store.GetUser(ctx, id); err != nil {
		return User{}, err
	}
	if err := s.checkRelations(ctx, id, input); err != nil {
		return User{}, err
	}
	return s.Store.UpdateUser(ctx, id, input)
}

func (s *Service) Subordinates(ctx context.Context, supervisorID string) ([]User, error) {
	return s.Store.Subordinates(ctx, supervisorID)
}

func (s *Service) ActiveUsers(ctx context.Context) ([]User, error) {
	return s.Store.ActiveUsers(ctx)
}

// IsSupervisorOf reports whether supervisorID is the direct supervisor of userID.
func (s *Service) IsSupervisorOf(ctx context.Context, supervisorID, userID string) (bool, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.SupervisorID != nil && *user.SupervisorID == supervisorID, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.Store.ListGroups(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, input GroupInput) (Group, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return Group{}, err
	}
	if input.ParentID != "" {
		if _, err := s.Store.GetGroup(ctx, input.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Group{}, ErrGroupUnknown
			}
			return Group{}, err
		}
	}
	return s.Store.CreateGroup(ctx, input)
}

func (s *Service) checkRelations(ctx context.Context, userID string, input UserInput) error {
	if input.SupervisorID != "" {
		if userID != "" && input.SupervisorID == userID {
			return ErrSelfSupervisor
		}
		if err := s.checkSupervisorChain(ctx, userID, input.SupervisorID); err != nil {
			return err
		}
	}
	if input.GroupID != "" {
		if _, err := s.Store.GetGroup(ctx, input.GroupID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrGroupUnknown
			}
			return err
		}
	}
	return nil
}

// checkSupervisorChain walks up from supervisorID and fails if userID appears.
func (s *Service) checkSupervisorChain(ctx context.Context, userID, supervisorID string) error {
	seen := map[string]bool{}
	current := supervisorID
	for current != "" && !seen[current] {
		seen[current] = true
		sup, err := s.Store.GetUser(ctx, current)
		if errors.Is(err, ErrNotFound) {
			if current == supervisorID {
				return ErrSupervisorUnknown
			}
			return nil
		}
		if err != nil {
			return err
		}
		if sup.SupervisorID == nil {
			return nil
		}
		current = *sup.SupervisorID
		if userID != "" && current == userID {
			return ErrSupervisorCycle
		}
	}
	return nil
}

func normalizeUser(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	input.Position = strings.TrimSpace(input.Position)
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	return input
}
