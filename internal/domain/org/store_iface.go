package org

import "context"

type StoreAPI interface {
	ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error)
	GetUser(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, input UserInput) (User, error)
	UpdateUser(ctx context.Context, id string, input UserInput) (User, error)
	Subordinates(ctx context.Context, supervisorID string) ([]User, error)
	ActiveUsers(ctx context.Context) ([]User, error)
	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id string) (Group, error)
	CreateGroup(ctx context.Context, input GroupInput) (Group, error)
}
