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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopedSchoolIDs_SuperuserUnfiltered(t *testing.T) {
	set := ScopedSchoolIDs(superuser("su-1"), nil, "")
	assert.True(t, set.All)
	assert.False(t, set.IsEmpty())
}

func TestScopedSchoolIDs_AbsentScopeMatchesNothing(t *testing.T) {
	// Absent scope yields a zero-row filter, never an unfiltered query.
	set := ScopedSchoolIDs(platformAdmin("admin-1"), nil, "")
	assert.False(t, set.All)
	assert.True(t, set.IsEmpty())
}

func TestScopedSchoolIDs_EmptyScopeMatchesNothing(t *testing.T) {
	scope := NewScopeSpec("admin-1", nil)
	set := ScopedSchoolIDs(platformAdmin("admin-1"), scope, "")
	assert.True(t, set.IsEmpty())
}

func TestScopedSchoolIDs_FullScopeWithoutTarget(t *testing.T) {
	scope := NewScopeSpec("admin-1", []string{"school-b", "school-a"})
	set := ScopedSchoolIDs(platformAdmin("admin-1"), scope, "")
	assert.False(t, set.All)
	assert.ElementsMatch(t, []string{"school-a", "school-b"}, set.IDs)
}

func TestScopedSchoolIDs_TargetIntersectsScope(t *testing.T) {
	scope := NewScopeSpec("admin-1", []string{"school-a", "school-b"})

	set := ScopedSchoolIDs(platformAdmin("admin-1"), scope, "school-a")
	assert.Equal(t, []string{"school-a"}, set.IDs)
}

func TestScopedSchoolIDs_TargetOutsideScopeMatchesNothing(t *testing.T) {
	// A request-supplied school outside scope narrows to nothing; the
	// parameter is never trusted to widen visibility.
	scope := NewScopeSpec("admin-1", []string{"school-a"})

	set := ScopedSchoolIDs(platformAdmin("admin-1"), scope, "school-x")
	assert.True(t, set.IsEmpty())
}

func TestScopeSet_Sentinels(t *testing.T) {
	assert.True(t, AllSchools().All)
	assert.False(t, AllSchools().IsEmpty())
	assert.True(t, NoSchools().IsEmpty())
	assert.False(t, NoSchools().All)
}

func TestSingleSchool_NarrowsToOneID(t *testing.T) {
	set := SingleSchool("school-7")
	assert.False(t, set.All)
	assert.False(t, set.IsEmpty())
	assert.Equal(t, []string{"school-7"}, set.IDs)
}
