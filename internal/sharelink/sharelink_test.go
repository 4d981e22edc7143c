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

package sharelink

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret-key"), time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("report-1", "school-a")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "report-1", claims.ReportID)
	assert.Equal(t, "school-a", claims.SchoolID)
}

func TestIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	assert.Error(t, err)
}

func TestIssuer_ExpiredToken(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret-key"), time.Hour)
	require.NoError(t, err)

	// Mint a token that is already past its expiry.
	now := time.Now().Add(-2 * time.Hour)
	claims := Claims{
		ReportID: "report-1",
		SchoolID: "school-a",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "report-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestIssuer_WrongSecret(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret-key"), time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer([]byte("different-secret"), time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("report-1", "school-a")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsUnsignedAlgorithm(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret-key"), time.Hour)
	require.NoError(t, err)

	claims := Claims{
		ReportID: "report-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_GarbageToken(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret-key"), time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
