package services

import (
	"context"
	"testing"

	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/repos"
)

func newUserService(t *testing.T) UserService {
	t.Helper()
	db, log := newTestEnv(t)
	return NewUserService(db, log, repos.NewUserRepo(db, log), nil)
}

func TestUserCreateTrimsAndValidates(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "  Ada Osei  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Name != "Ada Osei" {
		t.Fatalf("name not trimmed: %q", user.Name)
	}
	if user.ID == 0 {
		t.Fatalf("user id not assigned")
	}

	if _, err := svc.Create(ctx, "   "); !pkgerrors.IsValidation(err) {
		t.Fatalf("blank name: want validation error, got %v", err)
	}
}

func TestUserRename(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "Ada")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	renamed, err := svc.Rename(ctx, user.ID, "Ada Osei")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "Ada Osei" || renamed.ID != user.ID {
		t.Fatalf("rename result: %+v", renamed)
	}

	if _, err := svc.Rename(ctx, 9999, "Nobody"); !pkgerrors.IsNotFound(err) {
		t.Fatalf("unknown user: want not found, got %v", err)
	}
}

func TestUserListOrdersByName(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	for _, name := range []string{"Zoe", "Ada", "Mei"} {
		if _, err := svc.Create(ctx, name); err != nil {
			t.Fatalf("Create %q: %v", name, err)
		}
	}
	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Ada", "Mei", "Zoe"}
	if len(users) != len(want) {
		t.Fatalf("list size: want=%d got=%d", len(want), len(users))
	}
	for i, name := range want {
		if users[i].Name != name {
			t.Fatalf("list[%d]: want=%q got=%q", i, name, users[i].Name)
		}
	}
}

func TestUserDelete(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "Ada")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, user.ID); !pkgerrors.IsNotFound(err) {
		t.Fatalf("want not found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, user.ID); !pkgerrors.IsNotFound(err) {
		t.Fatalf("deleting a missing user: want not found, got %v", err)
	}
}
