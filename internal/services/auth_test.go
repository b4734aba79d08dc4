package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/repos/testutil"
	"github.com/yeah-genie/chalk-backend/internal/requestdata"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAuthService(db, log, repos.NewTutorRepo(db, log), "test-secret", time.Hour)
}

func TestRegisterAndLoginTutor(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	tutor := &types.Tutor{
		ID:       uuid.New(),
		Email:    "  Tutor@Example.COM ",
		Password: "hunter2!",
		Name:     "Ada",
	}
	token, err := svc.RegisterTutor(ctx, tutor)
	if err != nil {
		t.Fatalf("RegisterTutor: %v", err)
	}
	if token == "" {
		t.Fatal("register returned empty token")
	}
	// Email is normalized and the password never stored in the clear.
	if tutor.Email != "tutor@example.com" {
		t.Fatalf("email = %q, want normalized", tutor.Email)
	}
	if tutor.Password == "hunter2!" {
		t.Fatal("password stored in the clear")
	}

	// Duplicate registration is refused.
	if _, err := svc.RegisterTutor(ctx, &types.Tutor{
		ID:       uuid.New(),
		Email:    "tutor@example.com",
		Password: "other",
		Name:     "Bob",
	}); err == nil {
		t.Fatal("expected error for duplicate email")
	}

	loginToken, err := svc.LoginTutor(ctx, "TUTOR@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("LoginTutor: %v", err)
	}

	// A valid token round-trips into request data.
	authedCtx, err := svc.SetContextFromToken(ctx, loginToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.TutorID != tutor.ID {
		t.Fatalf("request data = %+v, want tutor %s", rd, tutor.ID)
	}

	if _, err := svc.LoginTutor(ctx, "tutor@example.com", "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, err := svc.LoginTutor(ctx, "nobody@example.com", "hunter2!"); err == nil {
		t.Fatal("expected error for unknown email")
	}
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	if _, err := svc.SetContextFromToken(ctx, "not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	// Tokens signed with another secret are rejected.
	db := testutil.DB(t)
	log := testutil.Logger(t)
	other := NewAuthService(db, log, repos.NewTutorRepo(db, log), "other-secret", time.Hour)
	tutor := &types.Tutor{ID: uuid.New(), Email: "x@example.com", Password: "pw", Name: "X"}
	token, err := other.RegisterTutor(ctx, tutor)
	if err != nil {
		t.Fatalf("RegisterTutor: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}
