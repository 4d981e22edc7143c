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

package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockScopeRepository is an in-memory ScopeRepository for resolver tests.
type mockScopeRepository struct {
	records     map[string]*ScopeRecord
	materalized map[string][]string
	err         error
}

func newMockScopeRepository() *mockScopeRepository {
	return &mockScopeRepository{
		records:     make(map[string]*ScopeRecord),
		materalized: make(map[string][]string),
	}
}

func (m *mockScopeRepository) GetByAdminID(ctx context.Context, adminID string) (*ScopeRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	record, ok := m.records[adminID]
	if !ok {
		return nil, ErrScopeNotFound
	}
	return record, nil
}

func (m *mockScopeRepository) MaterializeSchoolIDs(ctx context.Context, record *ScopeRecord) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.materalized[record.AdminID], nil
}

func TestScopeSpec_NilSafety(t *testing.T) {
	var scope *ScopeSpec

	assert.True(t, scope.IsEmpty())
	assert.False(t, scope.Contains("school-a"))
	assert.Equal(t, 0, scope.Len())
	assert.Nil(t, scope.SchoolIDs())
	assert.Equal(t, "", scope.AdminID())
}

func TestScopeSpec_Membership(t *testing.T) {
	scope := NewScopeSpec("admin-1", []string{"school-a", "school-b", "school-a", ""})

	assert.False(t, scope.IsEmpty())
	assert.Equal(t, 2, scope.Len())
	assert.True(t, scope.Contains("school-a"))
	assert.False(t, scope.Contains("school-c"))
	assert.False(t, scope.Contains(""))
	assert.Equal(t, []string{"school-a", "school-b"}, scope.SchoolIDs())
}

func TestScopeResolver_AbsentRecord(t *testing.T) {
	resolver := NewScopeResolver(newMockScopeRepository())

	scope, err := resolver.Resolve(context.Background(), "admin-1")
	assert.Nil(t, scope)
	assert.ErrorIs(t, err, ErrScopeNotFound)
}

func TestScopeResolver_MaterializesRecord(t *testing.T) {
	repo := newMockScopeRepository()
	repo.records["admin-1"] = &ScopeRecord{AdminID: "admin-1", GenderScope: GenderScopeGirls}
	repo.materalized["admin-1"] = []string{"school-a", "school-b"}

	resolver := NewScopeResolver(repo)
	scope, err := resolver.Resolve(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, scope.Len())
	assert.True(t, scope.Contains("school-a"))
}

func TestScopeResolver_PropagatesInfraFault(t *testing.T) {
	repo := newMockScopeRepository()
	repo.err = errors.New("connection refused")

	resolver := NewScopeResolver(repo)
	scope, err := resolver.Resolve(context.Background(), "admin-1")
	assert.Nil(t, scope)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrScopeNotFound)
}
