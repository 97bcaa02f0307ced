package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/equipx/internal/shared"
)

// Role is a user's permission level.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole parses a case-insensitive role name.
func ParseRole(s string) (Role, error) { return parseEnum(s, Role.Valid, "role") }

// AccountStatus is the state of a user account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountInactive  AccountStatus = "INACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountPending   AccountStatus = "PENDING"
)

func (s AccountStatus) Valid() bool {
	return slices.Contains([]AccountStatus{AccountActive, AccountInactive, AccountSuspended, AccountPending}, s)
}

// ParseAccountStatus parses a case-insensitive status name.
func ParseAccountStatus(s string) (AccountStatus, error) {
	return parseEnum(s, AccountStatus.Valid, "account status")
}

// User is a member or admin account.
type User struct {
	ID               int           `json:"id" yaml:"id"`
	Username         string        `json:"benutzername" yaml:"username"`
	FirstName        string        `json:"vorname" yaml:"first_name"`
	LastName         string        `json:"nachname" yaml:"last_name"`
	Email            string        `json:"email,omitempty" yaml:"email,omitempty"`
	Role             Role          `json:"role" yaml:"role"`
	AccountStatus    AccountStatus `json:"accountStatus,omitempty" yaml:"account_status,omitempty"`
	Avatar           string        `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	TwoFactorEnabled bool          `json:"twoFactorEnabled,omitempty" yaml:"two_factor_enabled,omitempty"`
	CreatedAt        string        `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// FullName is "First Last", falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserUpdate is the admin body for changing role or account status.
type UserUpdate struct {
	Role          Role          `json:"role,omitempty"`
	AccountStatus AccountStatus `json:"accountStatus,omitempty"`
}

// Validate requires at least one valid field.
func (u UserUpdate) Validate() error {
	if u.Role == "" && u.AccountStatus == "" {
		return fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}
	if u.Role != "" && !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", shared.ErrInvalidInput, u.Role)
	}
	if u.AccountStatus != "" && !u.AccountStatus.Valid() {
		return fmt.Errorf("%w: unknown account status %q", shared.ErrInvalidInput, u.AccountStatus)
	}
	return nil
}

// ProfileUpdate is the member body for editing their own profile.
type ProfileUpdate struct {
	FirstName string `json:"vorname,omitempty"`
	LastName  string `json:"nachname,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Validate requires at least one field and a plausible email.
func (p ProfileUpdate) Validate() error {
	if p.FirstName == "" && p.LastName == "" && p.Email == "" {
		return fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", shared.ErrInvalidInput, p.Email)
	}
	return nil
}
