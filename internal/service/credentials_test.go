package service

import (
	"context"
	"errors"
	"testing"
)

type mockCredentialRepo struct {
	VerifyFunc func(ctx context.Context, username, password string) (bool, error)
	AddFunc    func(ctx context.Context, username, password string) error
	RemoveFunc func(ctx context.Context, username string) error
}

func (m *mockCredentialRepo) Verify(ctx context.Context, username, password string) (bool, error) {
	return m.VerifyFunc(ctx, username, password)
}
func (m *mockCredentialRepo) Add(ctx context.Context, username, password string) error {
	return m.AddFunc(ctx, username, password)
}
func (m *mockCredentialRepo) Remove(ctx context.Context, username string) error {
	return m.RemoveFunc(ctx, username)
}

func TestVerify_Delegates(t *testing.T) {
	repo := &mockCredentialRepo{
		VerifyFunc: func(ctx context.Context, username, password string) (bool, error) {
			if username != "bob" || password != "pw123" {
				t.Errorf("Verify received (%q, %q); want (bob, pw123)", username, password)
			}
			return true, nil
		},
	}
	svc := NewCredentialService(repo)

	ok, err := svc.Verify(context.Background(), "bob", "pw123")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Error("Verify = false; want true")
	}
}

func TestVerify_Error(t *testing.T) {
	wantErr := errors.New("store failure")
	repo := &mockCredentialRepo{
		VerifyFunc: func(ctx context.Context, username, password string) (bool, error) {
			return false, wantErr
		},
	}
	svc := NewCredentialService(repo)

	ok, err := svc.Verify(context.Background(), "bob", "pw123")
	if err != wantErr {
		t.Fatalf("Verify error = %v; want %v", err, wantErr)
	}
	if ok {
		t.Error("Verify = true; want false on error")
	}
}

func TestAddRemove_Delegate(t *testing.T) {
	var addedUser, removedUser string
	repo := &mockCredentialRepo{
		AddFunc: func(ctx context.Context, username, password string) error {
			addedUser = username
			return nil
		},
		RemoveFunc: func(ctx context.Context, username string) error {
			removedUser = username
			return nil
		},
	}
	svc := NewCredentialService(repo)

	if err := svc.Add(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if addedUser != "alice" {
		t.Errorf("Add passed username %q; want alice", addedUser)
	}

	if err := svc.Remove(context.Background(), "alice"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if removedUser != "alice" {
		t.Errorf("Remove passed username %q; want alice", removedUser)
	}
}
