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

package circular

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolplane/schoolplane/internal/audit"
	"github.com/schoolplane/schoolplane/internal/platform"
)

type MockRepository struct {
	circulars map[string]*Circular
	read      map[string]map[string]bool // circularID -> userID
	listCalls int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		circulars: make(map[string]*Circular),
		read:      make(map[string]map[string]bool),
	}
}

func (m *MockRepository) Create(ctx context.Context, c *Circular) error {
	m.circulars[c.ID] = c
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Circular, error) {
	c, ok := m.circulars[id]
	if !ok {
		return nil, ErrCircularNotFound
	}
	return c, nil
}

func (m *MockRepository) List(ctx context.Context, scope platform.ScopeSet, filter ListFilter) ([]*Circular, error) {
	m.listCalls++
	var out []*Circular
	for _, c := range m.circulars {
		if !scope.All && !containsID(scope.IDs, c.SchoolID) {
			continue
		}
		if filter.CreatedBy != "" && c.CreatedBy != filter.CreatedBy {
			continue
		}
		if !filter.IncludeExpired && c.IsExpired(time.Now()) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MockRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	count := 0
	for id, c := range m.circulars {
		if c.IsExpired(time.Now()) {
			continue
		}
		if !m.read[id][userID] {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) MarkRead(ctx context.Context, circularID, userID string) error {
	if m.read[circularID] == nil {
		m.read[circularID] = make(map[string]bool)
	}
	m.read[circularID][userID] = true
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type captureAuditLogger struct {
	events []audit.Event
}

func (l *captureAuditLogger) Log(ctx context.Context, event audit.Event) {
	l.events = append(l.events, event)
}

func TestService_Create(t *testing.T) {
	repo := NewMockRepository()
	logger := &captureAuditLogger{}
	svc := NewService(repo, logger)

	c, err := svc.Create(context.Background(), "school-a", "Exam schedule", "Finals start Sunday.", "admin-1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "school-a", c.SchoolID)

	require.Len(t, logger.events, 1)
	assert.Equal(t, audit.TypeCircularCreated, logger.events[0].Type)
	assert.Equal(t, "school-a", logger.events[0].SchoolID)
}

func TestService_Create_RequiresTitle(t *testing.T) {
	svc := NewService(NewMockRepository(), &captureAuditLogger{})

	_, err := svc.Create(context.Background(), "school-a", "", "body", "admin-1", nil)
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestService_Create_RequiresTargetSchool(t *testing.T) {
	svc := NewService(NewMockRepository(), &captureAuditLogger{})

	_, err := svc.Create(context.Background(), "", "Title", "body", "admin-1", nil)
	assert.ErrorIs(t, err, ErrNoTargetSchool)
}

func TestService_List_EmptyScopeReturnsEmptyCollection(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, &captureAuditLogger{})

	_, err := svc.Create(context.Background(), "school-a", "Title", "body", "admin-1", nil)
	require.NoError(t, err)

	out, err := svc.List(context.Background(), platform.ScopeSet{}, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, repo.listCalls) // repository never queried
}

func TestService_List_ScopedToSchools(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, &captureAuditLogger{})

	_, err := svc.Create(context.Background(), "school-a", "A notice", "", "admin-1", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "school-b", "B notice", "", "admin-1", nil)
	require.NoError(t, err)

	out, err := svc.List(context.Background(), platform.ScopeSet{IDs: []string{"school-a"}}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "school-a", out[0].SchoolID)
}

func TestService_List_ExcludesExpiredByDefault(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, &captureAuditLogger{})

	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), "school-a", "Old notice", "", "admin-1", &past)
	require.NoError(t, err)

	out, err := svc.List(context.Background(), platform.ScopeSet{All: true}, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = svc.List(context.Background(), platform.ScopeSet{All: true}, ListFilter{IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestService_UnreadCount_MarkReadIsIdempotent(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, &captureAuditLogger{})

	c, err := svc.Create(context.Background(), "school-a", "Notice", "", "admin-1", nil)
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkRead(context.Background(), c.ID, "user-1"))
	require.NoError(t, svc.MarkRead(context.Background(), c.ID, "user-1"))

	count, err = svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCircular_IsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&Circular{}).IsExpired(now))
	assert.False(t, (&Circular{ExpiresAt: &future}).IsExpired(now))
	assert.True(t, (&Circular{ExpiresAt: &past}).IsExpired(now))
}
