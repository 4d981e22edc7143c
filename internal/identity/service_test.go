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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolplane/schoolplane/internal/audit"
)

// MockUserRepository is a simple in-memory implementation of UserRepository
type MockUserRepository struct {
	users       map[string]*User
	credentials map[string]*Credentials
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:       make(map[string]*User),
		credentials: make(map[string]*Credentials),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) AddCredentials(ctx context.Context, credentials *Credentials) error {
	m.credentials[credentials.UserID] = credentials
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) UpdateLockout(ctx context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	return nil
}

func (m *MockUserRepository) GetCredentials(ctx context.Context, userID string) (*Credentials, error) {
	c, ok := m.credentials[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return c, nil
}

type nopAuditLogger struct{}

func (nopAuditLogger) Log(ctx context.Context, event audit.Event) {}

func newTestService() (*Service, *MockUserRepository) {
	repo := NewMockUserRepository()
	hasher := NewPasswordHasher(64*1024, 1, 4, 16, 32)
	return NewService(repo, hasher, nopAuditLogger{}, 3, 15*time.Minute), repo
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(64*1024, 1, 4, 16, 32)

	hash, err := hasher.Hash("correct-horse-battery-staple")
	require.NoError(t, err)

	valid, err := hasher.Verify("correct-horse-battery-staple", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = hasher.Verify("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestProvisionUser_Roles(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	admin, err := svc.ProvisionUser(ctx, "admin@example.com", "Admin", RolePlatformAdmin)
	require.NoError(t, err)
	assert.True(t, admin.IsPlatformAdmin())
	assert.False(t, admin.IsSuperuser())

	su, err := svc.ProvisionUser(ctx, "root@example.com", "Root", RoleSuperuser)
	require.NoError(t, err)
	assert.True(t, su.IsSuperuser())
	assert.False(t, su.IsPlatformAdmin())

	_, err = svc.ProvisionUser(ctx, "odd@example.com", "Odd", Role("auditor"))
	assert.Error(t, err)
}

func TestProvisionUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)

	_, err = svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestProvisionUser_InvalidEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ProvisionUser(context.Background(), "not-an-email", "User", RoleRegular)
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAddPassword_RejectsWeak(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AddPassword(ctx, user.ID, "short"), ErrWeakPassword)
	assert.NoError(t, svc.AddPassword(ctx, user.ID, "a-long-enough-password"))
}

func TestAuthenticate_Success(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)
	require.NoError(t, svc.AddPassword(ctx, user.ID, "a-long-enough-password"))

	got, err := svc.Authenticate(ctx, "user@example.com", "a-long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)
	require.NoError(t, svc.AddPassword(ctx, user.ID, "a-long-enough-password"))

	_, err = svc.Authenticate(ctx, "user@example.com", "wrong-password-here")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_LockoutAfterRepeatedFailures(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	user, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)
	require.NoError(t, svc.AddPassword(ctx, user.ID, "a-long-enough-password"))

	for i := 0; i < 3; i++ {
		_, err = svc.Authenticate(ctx, "user@example.com", "wrong-password-here")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	require.NotNil(t, repo.users[user.ID].LockedUntil)

	// Correct password while locked still refuses.
	_, err = svc.Authenticate(ctx, "user@example.com", "a-long-enough-password")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestAuthenticate_SuccessResetsFailureCount(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	user, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)
	require.NoError(t, svc.AddPassword(ctx, user.ID, "a-long-enough-password"))

	_, err = svc.Authenticate(ctx, "user@example.com", "wrong-password-here")
	assert.Error(t, err)
	assert.Equal(t, 1, repo.users[user.ID].FailedLoginAttempts)

	_, err = svc.Authenticate(ctx, "user@example.com", "a-long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.users[user.ID].FailedLoginAttempts)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.ProvisionUser(ctx, "user@example.com", "User", RoleRegular)
	require.NoError(t, err)
	require.NoError(t, svc.AddPassword(ctx, user.ID, "a-long-enough-password"))

	err = svc.ChangePassword(ctx, user.ID, "wrong-old-password", "another-long-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "a-long-enough-password", "another-long-password"))

	_, err = svc.Authenticate(ctx, "user@example.com", "another-long-password")
	assert.NoError(t, err)
}

func TestUser_RoleChecks_NilSafe(t *testing.T) {
	var u *User
	assert.False(t, u.IsSuperuser())
	assert.False(t, u.IsPlatformAdmin())
}
