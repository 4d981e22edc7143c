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

// Package circular implements circulars/notifications addressed to the
// principals of one school.
package circular

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrCircularNotFound = errors.New("circular not found")
	ErrEmptyTitle       = errors.New("circular title is required")
	ErrNoTargetSchool   = errors.New("circular target school is required")
)

// Circular is a notice delivered to the members of one school.
type Circular struct {
	ID        string
	SchoolID  string
	Title     string
	Body      string
	CreatedBy string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// IsExpired reports whether the circular's display window has passed.
func (c *Circular) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// ListFilter narrows a circular listing. CreatedBy supports the
// "what I created" handler-layer filter.
type ListFilter struct {
	CreatedBy      string
	IncludeExpired bool
	Limit          int
	Offset         int
}
