package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/gateway/memory"
)

type spyDirectory struct {
	ports.Backend
	mu          sync.Mutex
	deleteCalls int
}

func (s *spyDirectory) DeleteUser(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	return nil
}

func TestDeleteSelfGuardSendsNothing(t *testing.T) {
	spy := &spyDirectory{}
	svc := NewUserService(spy, testLogger())

	err := svc.Delete(context.Background(), "u1", "u1", true)
	if !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("err = %v, want ErrSelfDelete", err)
	}
	if spy.deleteCalls != 0 {
		t.Error("self-delete reached the server")
	}

	if err := svc.Delete(context.Background(), "u2", "u1", false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed: err = %v", err)
	}
	if err := svc.Delete(context.Background(), "u2", "u1", true); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if spy.deleteCalls != 1 {
		t.Errorf("delete calls = %d, want 1", spy.deleteCalls)
	}
}

func TestAddValidatesBeforeRegister(t *testing.T) {
	store := memory.NewSeeded()
	svc := NewUserService(store, testLogger())

	tests := []struct {
		name    string
		input   ports.NewUser
		wantErr error
	}{
		{"no username", ports.NewUser{Email: "x@y.z", Password: "pw"}, core.ErrEmptyUsername},
		{"no email", ports.NewUser{Username: "x", Password: "pw"}, core.ErrEmptyEmail},
		{"no password", ports.NewUser{Username: "x", Email: "x@y.z"}, core.ErrEmptyPassword},
		{"bad role", ports.NewUser{Username: "x", Email: "x@y.z", Password: "pw", Role: "root"}, core.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Add(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := svc.Add(context.Background(), ports.NewUser{Username: "carol", Email: "carol@shop.local", Password: "pw"}); err != nil {
		t.Fatalf("valid add: %v", err)
	}
	users, err := svc.Users(context.Background())
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	var found *core.User
	for i := range users {
		if users[i].Username == "carol" {
			found = &users[i]
		}
	}
	if found == nil {
		t.Fatal("registered user not listed")
	}
	if found.Role != core.RoleUser {
		t.Errorf("role defaulted to %s, want user", found.Role)
	}
}
