package org

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Position     string    `json:"position"`
	Role         string    `json:"role"`
	GroupID      *string   `json:"groupId,omitempty"`
	SupervisorID *string   `json:"supervisorId,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Group is a municipal department or unit.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId,omitempty"`
	ManagerID *string   `json:"managerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserFilter struct {
	GroupID string
	Role    string
	Active  *bool
	Limit   int
	Offset  int
}

type UserInput struct {
	ID           string `json:"id" validate:"omitempty,uuid"`
	Email        string `json:"email" validate:"required,email,max=320"`
	FullName     string `json:"fullName" validate:"required,max=200"`
	Position     string `json:"position" validate:"max=200"`
	Role         string `json:"role" validate:"required,oneof=admin hr supervisor employee"`
	GroupID      string `json:"groupId" validate:"omitempty,uuid"`
	SupervisorID string `json:"supervisorId" validate:"omitempty,uuid"`
	Active       *bool  `json:"active"`
}

type GroupInput struct {
	Name      string `json:"name" validate:"required,max=200"`
	ParentID  string `json:"parentId" validate:"omitempty,uuid"`
	ManagerID string `json:"managerId" validate:"omitempty,uuid"`
}
