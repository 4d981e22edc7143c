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
	"errors"
	"time"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInvalid  = errors.New("session invalid")
)

// Session represents a user session. ActiveSchoolID is the single school a
// platform-admin principal has "entered"; nil until the enter operation
// sets it, cleared on leave and on logout. Concurrent requests from the
// same principal may race on this field; the policy is last-write-wins with
// no merge.
type Session struct {
	ID             string
	UserID         string
	ActiveSchoolID *string
	IPAddress      string
	UserAgent      string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	LastSeenAt     time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsIdle checks if the session has been idle for too long
func (s *Session) IsIdle(idleTimeout time.Duration) bool {
	return time.Since(s.LastSeenAt) > idleTimeout
}

// ActiveSchool returns the entered school ID or "" when unset.
func (s *Session) ActiveSchool() string {
	if s.ActiveSchoolID == nil {
		return ""
	}
	return *s.ActiveSchoolID
}

// Repository defines the interface for session persistence
type Repository interface {
	// Create creates a new session
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch updates session last seen time
	Touch(ctx context.Context, sessionID string, lastSeenAt time.Time) error

	// SetActiveSchool writes or clears the active-school field
	SetActiveSchool(ctx context.Context, sessionID string, schoolID *string) error

	// Delete deletes a session
	Delete(ctx context.Context, sessionID string) error

	// DeleteByUserID deletes all sessions for a user
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired deletes all expired sessions
	DeleteExpired(ctx context.Context) error
}
