package org

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	users  map[string]User
	groups map[string]Group
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]User{}, groups: map[string]Group{}}
}

func ptr(s string) *string { return &s }

func (f *fakeStore) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	out := []User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, input UserInput) (User, error) {
	u := User{ID: input.ID, Email: input.Email, FullName: input.FullName, Role: input.Role, Active: true}
	if input.SupervisorID != "" {
		u.SupervisorID = ptr(input.SupervisorID)
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, id string, input UserInput) (User, error) {
	u := f.users[id]
	u.Email = input.Email
	u.SupervisorID = nil
	if input.SupervisorID != "" {
		u.SupervisorID = ptr(input.SupervisorID)
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeStore) Subordinates(ctx context.Context, supervisorID string) ([]User, error) {
	return nil, nil
}

func (f *fakeStore) ActiveUsers(ctx context.Context) ([]User, error) {
	return nil, nil
}

func (f *fakeStore) ListGroups(ctx context.Context) ([]Group, error) {
	return nil, nil
}

func (f *fakeStore) GetGroup(ctx context.Context, id string) (Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) CreateGroup(ctx context.Context, input GroupInput) (Group, error) {
	g := Group{ID: "g-new", Name: input.Name}
	f.groups[g.ID] = g
	return g, nil
}

const (
	aliceID = "6f1c7a64-0d55-4c0b-9a3e-5b2a1c9d0e01"
	bobID   = "6f1c7a64-0d55-4c0b-9a3e-5b2a1c9d0e02"
	carolID = "6f1c7a64-0d55-4c0b-9a3e-5b2a1c9d0e03"
)

func TestCreateUserRejectsSelfSupervision(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.CreateUser(context.Background(), UserInput{
		ID: aliceID, Email: "alice@city.example", FullName: "Alice", Role: "employee", SupervisorID: aliceID,
	})
	if !errors.Is(err, ErrSelfSupervisor) {
		t.Fatalf("expected ErrSelfSupervisor, got %v", err)
	}
}

func TestCreateUserValidatesPayload(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.CreateUser(context.Background(), UserInput{Email: "not-an-email", FullName: "", Role: "boss"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateUserNormalizesAndRequiresKnownSupervisor(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	_, err := svc.CreateUser(context.Background(), UserInput{
		ID: aliceID, Email: "alice@city.example", FullName: "Alice", Role: "employee", SupervisorID: bobID,
	})
	if !errors.Is(err, ErrSupervisorUnknown) {
		t.Fatalf("expected ErrSupervisorUnknown, got %v", err)
	}

	store.users[bobID] = User{ID: bobID, Role: "supervisor"}
	user, err := svc.CreateUser(context.Background(), UserInput{
		ID: aliceID, Email: " Alice@City.Example ", FullName: "Alice", Role: "Employee", SupervisorID: bobID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "alice@city.example" || user.Role != "employee" {
		t.Fatalf("expected normalized user, got %+v", user)
	}
}

func TestUpdateUserRejectsSupervisorCycle(t *testing.T) {
	store := newFakeStore()
	store.users[aliceID] = User{ID: aliceID}
	store.users[bobID] = User{ID: bobID, SupervisorID: ptr(carolID)}
	store.users[carolID] = User{ID: carolID, SupervisorID: ptr(aliceID)}
	svc := NewService(store)

	_, err := svc.UpdateUser(context.Background(), aliceID, UserInput{
		Email: "alice@city.example", FullName: "Alice", Role: "supervisor", SupervisorID: bobID,
	})
	if !errors.Is(err, ErrSupervisorCycle) {
		t.Fatalf("expected ErrSupervisorCycle, got %v", err)
	}
}

func TestIsSupervisorOf(t *testing.T) {
	store := newFakeStore()
	store.users[aliceID] = User{ID: aliceID, SupervisorID: ptr(bobID)}
	svc := NewService(store)

	ok, err := svc.IsSupervisorOf(context.Background(), bobID, aliceID)
	if err != nil || !ok {
		t.Fatalf("expected bob to supervise alice, got %v %v", ok, err)
	}
	ok, err = svc.IsSupervisorOf(context.Background(), carolID, aliceID)
	if err != nil || ok {
		t.Fatalf("expected carol not to supervise alice, got %v %v", ok, err)
	}
	ok, err = svc.IsSupervisorOf(context.Background(), bobID, "missing")
	if err != nil || ok {
		t.Fatalf("expected false for unknown user, got %v %v", ok, err)
	}
}

func TestCreateGroupRequiresKnownParent(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.CreateGroup(context.Background(), GroupInput{Name: "Roads", ParentID: carolID})
	if !errors.Is(err, ErrGroupUnknown) {
		t.Fatalf("expected ErrGroupUnknown, got %v", err)
	}
	g, err := svc.CreateGroup(context.Background(), GroupInput{Name: "  Roads "})
	if err != nil || g.Name != "Roads" {
		t.Fatalf("unexpected group %+v err %v", g, err)
	}
}
