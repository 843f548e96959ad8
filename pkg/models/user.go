package models

import "fmt"

// Role represents the role of a user in the system.
type Role string

const (
	// RoleMember is a registered customer with a membership code.
	RoleMember Role = "MEMBER"
	// RoleWorker is restaurant staff (hosts, waiters).
	RoleWorker Role = "WORKER"
	// RoleManager is restaurant management with full permissions.
	RoleManager Role = "MANAGER"
	// RoleGuest is an implicit role for customers without an account.
	// Guest orders are owned by their contact details, not by a user row.
	RoleGuest Role = "GUEST"
)

// IsValid checks if the role is a known Role.
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleWorker, RoleManager, RoleGuest:
		return true
	}
	return false
}

// IsStaff reports whether the role grants staff-level operations.
func (r Role) IsStaff() bool {
	return r == RoleWorker || r == RoleManager
}

// User represents a Bistro account: members identified by a 6-digit
// membership code, and staff (workers and managers) authenticated by
// username/password.
//
// The column names follow the fixed deployment schema and must not change.
type User struct {
	ID         uint   `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username   string `gorm:"column:username;uniqueIndex;not null;size:255" json:"username"`
	Password   string `gorm:"column:password;not null" json:"-"` // bcrypt hash
	FirstName  string `gorm:"column:first_name;size:255" json:"first_name"`
	LastName   string `gorm:"column:last_name;size:255" json:"last_name"`
	Role       Role   `gorm:"column:role;size:50;not null" json:"role"`
	Phone      string `gorm:"column:phone;size:50" json:"phone"`
	Email      string `gorm:"column:email;size:255" json:"email"`
	MemberCode *int   `gorm:"column:member_code;uniqueIndex" json:"member_code,omitempty"`
	IsLoggedIn bool   `gorm:"column:is_logged_in;default:false" json:"is_logged_in"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last", or the username when both are empty.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	if u.Role == RoleMember && u.MemberCode == nil {
		return fmt.Errorf("member requires a membership code")
	}
	return nil
}
