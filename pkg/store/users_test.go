package store

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bistrokit/bistro/pkg/models"
)

func registerTestMember(t *testing.T, st *Store, username, password string) *models.User {
	t.Helper()
	user, err := st.RegisterMember(context.Background(), &models.User{
		Username:  username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "555-0100",
		Email:     username + "@example.com",
	}, password)
	if err != nil {
		t.Fatalf("RegisterMember: %v", err)
	}
	return user
}

func TestRegisterMember(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := registerTestMember(t, st, "ada", "correct horse")

	if user.Role != models.RoleMember {
		t.Errorf("role = %s, want MEMBER", user.Role)
	}
	if user.MemberCode == nil || *user.MemberCode < 100000 || *user.MemberCode > 999999 {
		t.Errorf("member code = %v, want 6 digits", user.MemberCode)
	}
	if user.Password == "correct horse" {
		t.Error("password stored in plaintext")
	}

	// The code resolves back to the member.
	got, err := st.GetUserByMemberCode(ctx, *user.MemberCode)
	if err != nil {
		t.Fatalf("GetUserByMemberCode: %v", err)
	}
	if got.Username != "ada" {
		t.Errorf("username = %q, want ada", got.Username)
	}

	t.Run("duplicate username", func(t *testing.T) {
		_, err := st.RegisterMember(ctx, &models.User{Username: "ada"}, "pw")
		if !errors.Is(err, models.ErrDuplicateUsername) {
			t.Errorf("error = %v, want ErrDuplicateUsername", err)
		}
	})
}

func TestValidateCredentials(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	registerTestMember(t, st, "ada", "correct horse")

	t.Run("valid", func(t *testing.T) {
		user, err := st.ValidateCredentials(ctx, "ada", "correct horse")
		if err != nil {
			t.Fatalf("ValidateCredentials: %v", err)
		}
		if user.Username != "ada" {
			t.Errorf("username = %q, want ada", user.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := st.ValidateCredentials(ctx, "ada", "wrong")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		// Same error as a wrong password; no user enumeration.
		_, err := st.ValidateCredentials(ctx, "nobody", "pw")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestMarkLoggedIn_SingleSession(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := registerTestMember(t, st, "ada", "pw")

	if err := st.MarkLoggedIn(ctx, user.ID); err != nil {
		t.Fatalf("MarkLoggedIn: %v", err)
	}
	if err := st.MarkLoggedIn(ctx, user.ID); !errors.Is(err, models.ErrAlreadyOnline) {
		t.Errorf("error = %v, want ErrAlreadyOnline", err)
	}

	if err := st.MarkLoggedOut(ctx, user.ID); err != nil {
		t.Fatalf("MarkLoggedOut: %v", err)
	}
	if err := st.MarkLoggedIn(ctx, user.ID); err != nil {
		t.Errorf("login after logout: %v", err)
	}
}

func TestResetAllLoginFlags(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	a := registerTestMember(t, st, "ada", "pw")
	b := registerTestMember(t, st, "bob", "pw")

	if err := st.MarkLoggedIn(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.MarkLoggedIn(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	if err := st.ResetAllLoginFlags(ctx); err != nil {
		t.Fatalf("ResetAllLoginFlags: %v", err)
	}

	// Both accounts can log in again.
	if err := st.MarkLoggedIn(ctx, a.ID); err != nil {
		t.Errorf("login a: %v", err)
	}
	if err := st.MarkLoggedIn(ctx, b.ID); err != nil {
		t.Errorf("login b: %v", err)
	}
}

func TestUpdateUserContact(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := registerTestMember(t, st, "ada", "pw")

	err := st.UpdateUserContact(ctx, user.ID, "Augusta", "King", "555-0199", "countess@example.com")
	if err != nil {
		t.Fatalf("UpdateUserContact: %v", err)
	}
	got, _ := st.GetUserByID(ctx, user.ID)
	if got.FirstName != "Augusta" || got.Phone != "555-0199" {
		t.Errorf("contact not updated: %+v", got)
	}

	if err := st.UpdateUserContact(ctx, 9999, "X", "Y", "", ""); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestCreateStaff(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateStaff(ctx, &models.User{Username: "w1", Role: models.RoleWorker}, "pw"); err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}

	t.Run("member role rejected", func(t *testing.T) {
		err := st.CreateStaff(ctx, &models.User{Username: "m1", Role: models.RoleMember}, "pw")
		if err == nil {
			t.Error("expected error for non-staff role")
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := st.CreateStaff(ctx, &models.User{Username: "w1", Role: models.RoleWorker}, "pw")
		if !errors.Is(err, models.ErrDuplicateUsername) {
			t.Errorf("error = %v, want ErrDuplicateUsername", err)
		}
	})
}

func TestEnsureManagerUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	password, err := st.EnsureManagerUser(ctx)
	if err != nil {
		t.Fatalf("EnsureManagerUser: %v", err)
	}
	if password == "" {
		t.Fatal("expected a generated password on first bootstrap")
	}

	user, err := st.ValidateCredentials(ctx, ManagerUsername, password)
	if err != nil {
		t.Fatalf("generated password does not validate: %v", err)
	}
	if user.Role != models.RoleManager {
		t.Errorf("role = %s, want MANAGER", user.Role)
	}

	// Second call is a no-op.
	password, err = st.EnsureManagerUser(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if password != "" {
		t.Error("expected empty password when manager already exists")
	}
}

func TestEnsureManagerUser_EnvOverride(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t.Setenv(EnvManagerInitialPassword, "from-env")

	password, err := st.EnsureManagerUser(ctx)
	if err != nil {
		t.Fatalf("EnsureManagerUser: %v", err)
	}
	if password != "" {
		t.Error("env-provided password must not be echoed back")
	}
	if _, err := st.ValidateCredentials(ctx, ManagerUsername, "from-env"); err != nil {
		t.Errorf("env password does not validate: %v", err)
	}
}

func TestBootstrapManager(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("init-pw"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatal(err)
	}

	created, err := st.BootstrapManager(ctx, "", string(hash))
	if err != nil {
		t.Fatalf("BootstrapManager: %v", err)
	}
	if !created {
		t.Fatal("expected account to be created")
	}

	if _, err := st.ValidateCredentials(ctx, ManagerUsername, "init-pw"); err != nil {
		t.Errorf("bootstrap password does not validate: %v", err)
	}

	created, err = st.BootstrapManager(ctx, "", string(hash))
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second bootstrap must be a no-op")
	}
}

func TestListMembers_ExcludesStaff(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	registerTestMember(t, st, "ada", "pw")
	if err := st.CreateStaff(ctx, &models.User{Username: "w1", Role: models.RoleWorker}, "pw"); err != nil {
		t.Fatal(err)
	}

	members, err := st.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].Username != "ada" {
		t.Errorf("members = %v, want only ada", members)
	}
}
