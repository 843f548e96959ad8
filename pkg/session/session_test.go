package session

import (
	"context"
	"errors"
	"testing"

	"github.com/bistrokit/bistro/pkg/models"
)

// fakeStore implements Store in memory with the same single-session flag
// semantics as the real store.
type fakeStore struct {
	users    map[string]*models.User // by username, Password holds the plaintext
	byCode   map[int]*models.User
	loggedIn map[uint]bool
}

func newFakeStore(users ...*models.User) *fakeStore {
	f := &fakeStore{
		users:    make(map[string]*models.User),
		byCode:   make(map[int]*models.User),
		loggedIn: make(map[uint]bool),
	}
	for _, u := range users {
		f.users[u.Username] = u
		if u.MemberCode != nil {
			f.byCode[*u.MemberCode] = u
		}
	}
	return f
}

func (f *fakeStore) ValidateCredentials(_ context.Context, username, password string) (*models.User, error) {
	u, ok := f.users[username]
	if !ok || u.Password != password {
		return nil, models.ErrInvalidCredentials
	}
	clone := *u
	return &clone, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeStore) GetUserByMemberCode(_ context.Context, code int) (*models.User, error) {
	u, ok := f.byCode[code]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) MarkLoggedIn(_ context.Context, userID uint) error {
	if f.loggedIn[userID] {
		return models.ErrAlreadyOnline
	}
	f.loggedIn[userID] = true
	return nil
}

func (f *fakeStore) MarkLoggedOut(_ context.Context, userID uint) error {
	f.loggedIn[userID] = false
	return nil
}

func memberCode(c int) *int { return &c }

func testUsers() *fakeStore {
	return newFakeStore(
		&models.User{ID: 1, Username: "ada", Password: "pw", Role: models.RoleMember, MemberCode: memberCode(123456)},
		&models.User{ID: 2, Username: "worker", Password: "pw", Role: models.RoleWorker},
		&models.User{ID: 3, Username: "boss", Password: "pw", Role: models.RoleManager},
	)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		m := NewManager(testUsers())
		user, err := m.Login(ctx, "conn-1", "ada", "pw")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if user.ID != 1 || !user.IsLoggedIn {
			t.Errorf("user = %+v", user)
		}
		if got := m.Current("conn-1"); got == nil || got.ID != 1 {
			t.Errorf("Current = %v, want user 1", got)
		}
		if m.OnlineCount() != 1 {
			t.Errorf("online = %d, want 1", m.OnlineCount())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		m := NewManager(testUsers())
		_, err := m.Login(ctx, "conn-1", "ada", "nope")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("second login on same connection", func(t *testing.T) {
		m := NewManager(testUsers())
		if _, err := m.Login(ctx, "conn-1", "ada", "pw"); err != nil {
			t.Fatal(err)
		}
		_, err := m.Login(ctx, "conn-1", "worker", "pw")
		if !errors.Is(err, models.ErrAlreadyOnline) {
			t.Errorf("error = %v, want ErrAlreadyOnline", err)
		}
	})

	t.Run("same user from second connection", func(t *testing.T) {
		m := NewManager(testUsers())
		if _, err := m.Login(ctx, "conn-1", "ada", "pw"); err != nil {
			t.Fatal(err)
		}
		_, err := m.Login(ctx, "conn-2", "ada", "pw")
		if !errors.Is(err, models.ErrAlreadyOnline) {
			t.Errorf("error = %v, want ErrAlreadyOnline", err)
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := testUsers()
	m := NewManager(store)

	if _, err := m.Login(ctx, "conn-1", "ada", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := m.Logout(ctx, "conn-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if m.Current("conn-1") != nil {
		t.Error("session survived logout")
	}
	if store.loggedIn[1] {
		t.Error("login flag not released")
	}

	// Logging out an unauthenticated connection fails.
	if err := m.Logout(ctx, "conn-1"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}

	// The user can log in again.
	if _, err := m.Login(ctx, "conn-2", "ada", "pw"); err != nil {
		t.Errorf("re-login: %v", err)
	}
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	store := testUsers()
	m := NewManager(store)

	// Disconnect of an unauthenticated connection is a no-op.
	m.Disconnect(ctx, "conn-0")

	if _, err := m.Login(ctx, "conn-1", "ada", "pw"); err != nil {
		t.Fatal(err)
	}
	m.Disconnect(ctx, "conn-1")

	if m.Current("conn-1") != nil {
		t.Error("session survived disconnect")
	}
	if store.loggedIn[1] {
		t.Error("login flag not released")
	}
}

func TestRequireStaff(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testUsers())

	if _, err := m.Login(ctx, "member", "ada", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(ctx, "worker", "worker", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(ctx, "boss", "boss", "pw"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		connID  string
		wantErr bool
	}{
		{"member", true},
		{"worker", false},
		{"boss", false},
		{"anonymous", true},
	}
	for _, tt := range tests {
		t.Run(tt.connID, func(t *testing.T) {
			_, err := m.RequireStaff(tt.connID)
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireStaff(%s) error = %v, wantErr %v", tt.connID, err, tt.wantErr)
			}
		})
	}

	t.Run("manager only", func(t *testing.T) {
		if _, err := m.RequireManager("worker"); !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("worker passed RequireManager: %v", err)
		}
		if _, err := m.RequireManager("boss"); err != nil {
			t.Errorf("RequireManager(boss): %v", err)
		}
	})
}

func TestIdentifyByCode(t *testing.T) {
	m := NewManager(testUsers())

	user, err := m.IdentifyByCode(context.Background(), 123456)
	if err != nil {
		t.Fatalf("IdentifyByCode: %v", err)
	}
	if user.Username != "ada" {
		t.Errorf("username = %q, want ada", user.Username)
	}

	if _, err := m.IdentifyByCode(context.Background(), 999999); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestCanAccessOrder(t *testing.T) {
	staff := &models.User{ID: 2, Role: models.RoleWorker}
	owner := &models.User{ID: 5, Role: models.RoleMember}
	other := &models.User{ID: 6, Role: models.RoleMember}
	memberOrder := &models.Order{MemberID: 5, Phone: "555-0100", Email: "ada@example.com"}
	guestOrder := &models.Order{Phone: "555-0200"}

	tests := []struct {
		name  string
		user  *models.User
		order *models.Order
		phone string
		email string
		want  bool
	}{
		{"staff always", staff, memberOrder, "", "", true},
		{"owning member", owner, memberOrder, "", "", true},
		{"other member without contact", other, memberOrder, "", "", false},
		// Member-owned orders never match by contact, only by the owner.
		{"other member with matching contact", other, memberOrder, "555-0100", "", false},
		{"anonymous contact on member order", nil, memberOrder, "555-0100", "ada@example.com", false},
		{"anonymous matching phone", nil, guestOrder, "555-0200", "", true},
		{"anonymous wrong contact", nil, guestOrder, "555-9999", "", false},
		{"anonymous no contact", nil, guestOrder, "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessOrder(tt.user, tt.order, tt.phone, tt.email); got != tt.want {
				t.Errorf("CanAccessOrder = %v, want %v", got, tt.want)
			}
		})
	}
}
