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
	"fmt"
	"os"

	"github.com/schoolplane/schoolplane/internal/audit"
)

const (
	EnvBootstrapSuperuserEmail    = "SP_BOOTSTRAP_SUPERUSER_EMAIL"
	EnvBootstrapSuperuserPassword = "SP_BOOTSTRAP_SUPERUSER_PASSWORD"
)

// BootstrapService seeds the initial superuser so a fresh deployment has a
// principal able to administer everything else.
type BootstrapService struct {
	identityService *Service
	auditLogger     audit.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service, auditLogger audit.Logger) *BootstrapService {
	return &BootstrapService{
		identityService: identityService,
		auditLogger:     auditLogger,
	}
}

// Bootstrap provisions the superuser named by the environment, once. A
// missing email is not an error: bootstrap is opt-in. An already existing
// user under that email means the deployment is bootstrapped; skip
// silently.
func (s *BootstrapService) Bootstrap(ctx context.Context) error {
	email := os.Getenv(EnvBootstrapSuperuserEmail)
	if email == "" {
		return nil
	}
	password := os.Getenv(EnvBootstrapSuperuserPassword)

	if _, err := s.identityService.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("failed to check for existing superuser: %w", err)
	}

	user, err := s.identityService.ProvisionUser(ctx, email, "Superuser", RoleSuperuser)
	if err != nil {
		return fmt.Errorf("failed to provision superuser: %w", err)
	}

	if password != "" {
		if err := s.identityService.AddPassword(ctx, user.ID, password); err != nil {
			return fmt.Errorf("failed to set superuser password: %w", err)
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSuperuserBootstrap,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{"email": email},
	})

	return nil
}
