// Copyright 2026 The Schoolplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrAccountLocked      = errors.New("account is locked")
)

// Role is the single role tag carried by a principal. Exactly one tag is
// active at a time. Superuser is a distinct, higher-trust tag; it is not a
// superset that inherits the platform-admin restrictions.
type Role string

const (
	// RoleRegular is a single-school principal (teacher, manager, officer).
	RoleRegular Role = "regular"

	// RolePlatformAdmin has cross-school visibility restricted to an
	// explicit scope record. No scope record means no access.
	RolePlatformAdmin Role = "platform_admin"

	// RoleSuperuser is unrestricted at the route layer and bypasses the
	// resource-level school checks.
	RoleSuperuser Role = "superuser"
)

// User represents a principal identity in the system.
type User struct {
	ID                  string
	Email               string
	FullName            string
	Role                Role
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// IsSuperuser reports whether the principal carries the superuser tag.
func (u *User) IsSuperuser() bool {
	return u != nil && u.Role == RoleSuperuser
}

// IsPlatformAdmin reports whether the principal carries the platform-admin
// tag. It is deliberately false for superusers: the allowlist constrains
// platform admins only, and the two tags must never be conflated.
func (u *User) IsPlatformAdmin() bool {
	return u != nil && u.Role == RolePlatformAdmin
}

// Credentials represents user authentication credentials
type Credentials struct {
	UserID       string
	PasswordHash string
	UpdatedAt    time.Time
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user identity
	Create(ctx context.Context, user *User) error

	// AddCredentials adds credentials for a user
	AddCredentials(ctx context.Context, credentials *Credentials) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateLockout updates user lockout status
	UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error

	// GetCredentials retrieves user credentials
	GetCredentials(ctx context.Context, userID string) (*Credentials, error)
}
