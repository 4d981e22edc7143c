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

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRepository is a simple in-memory implementation of Repository
type MockRepository struct {
	sessions map[string]*Session
}

func NewMockRepository() *MockRepository {
	return &MockRepository{sessions: make(map[string]*Session)}
}

func (m *MockRepository) Create(ctx context.Context, sess *Session) error {
	cp := *sess
	m.sessions[sess.ID] = &cp
	return nil
}

func (m *MockRepository) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MockRepository) Touch(ctx context.Context, sessionID string, lastSeenAt time.Time) error {
	sess, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastSeenAt = lastSeenAt
	return nil
}

func (m *MockRepository) SetActiveSchool(ctx context.Context, sessionID string, schoolID *string) error {
	sess, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.ActiveSchoolID = schoolID
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockRepository) DeleteByUserID(ctx context.Context, userID string) error {
	for id, sess := range m.sessions {
		if sess.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MockRepository) DeleteExpired(ctx context.Context) error {
	for id, sess := range m.sessions {
		if sess.IsExpired() {
			delete(m.sessions, id)
		}
	}
	return nil
}

func TestService_Create_ActiveSchoolStartsUnset(t *testing.T) {
	svc := NewService(NewMockRepository(), time.Hour, 30*time.Minute)

	sess, err := svc.Create(context.Background(), "user-1", "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Nil(t, sess.ActiveSchoolID)
	assert.Equal(t, "", sess.ActiveSchool())
}

func TestService_Create_UniqueIDs(t *testing.T) {
	svc := NewService(NewMockRepository(), time.Hour, 30*time.Minute)

	a, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestService_Get_ExpiredSessionIsDeleted(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, -time.Minute, 30*time.Minute)

	sess, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, ok := repo.sessions[sess.ID]
	assert.False(t, ok)
}

func TestService_Get_IdleSessionIsDeleted(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, time.Hour, 10*time.Minute)

	sess, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	repo.sessions[sess.ID].LastSeenAt = time.Now().Add(-time.Hour)

	_, err = svc.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestService_SetActiveSchool_RoundTrip(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, time.Hour, 30*time.Minute)

	sess, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	schoolID := "school-a"
	require.NoError(t, svc.SetActiveSchool(context.Background(), sess.ID, &schoolID))

	got, err := svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "school-a", got.ActiveSchool())

	require.NoError(t, svc.SetActiveSchool(context.Background(), sess.ID, nil))

	got, err = svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.ActiveSchool())
}

func TestService_Destroy_RemovesActiveSchoolWithSession(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, time.Hour, 30*time.Minute)

	sess, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	schoolID := "school-a"
	require.NoError(t, svc.SetActiveSchool(context.Background(), sess.ID, &schoolID))

	require.NoError(t, svc.Destroy(context.Background(), sess.ID))

	_, err = svc.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_CleanupExpired(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, time.Hour, 30*time.Minute)

	live, err := svc.Create(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	dead, err := svc.Create(context.Background(), "user-2", "", "")
	require.NoError(t, err)
	repo.sessions[dead.ID].ExpiresAt = time.Now().Add(-time.Minute)

	require.NoError(t, svc.CleanupExpired(context.Background()))

	_, ok := repo.sessions[live.ID]
	assert.True(t, ok)
	_, ok = repo.sessions[dead.ID]
	assert.False(t, ok)
}
